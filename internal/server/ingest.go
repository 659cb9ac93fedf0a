package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/playerMars/final-ocr/constants"
	"github.com/playerMars/final-ocr/internal/common"
	"github.com/playerMars/final-ocr/internal/entity"
	"github.com/playerMars/final-ocr/internal/ingest"
)

// handleExtract stores an uploaded document under UploadDir and runs the
// full pipeline over it.
func (s *Server) handleExtract(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("upload exceeds %d bytes", s.cfg.MaxUploadBytes)})
			return
		}
		s.respondError(c, common.InvalidInputErrorf("multipart field \"file\" is required"))
		return
	}
	lang := c.PostForm("lang")
	v := common.NewValidator().
		Field("filename", fh.Filename, common.Required, common.MaxLen(255)).
		Field("lang", lang, common.MaxLen(32), common.OCRLang)
	if err := common.ValidateAndReturnError(v); err != nil {
		s.respondError(c, err)
		return
	}
	ext := constants.NormalizeExt(filepath.Ext(fh.Filename))
	if !constants.IsAllowedExt(ext) {
		s.respondError(c, common.InvalidInputErrorf("unsupported file extension %q", ext))
		return
	}

	file, err := s.saveUpload(fh, ext)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.logger.Info("http.upload.saved", "file", file.SourcePath, "name", file.Filename, "size", file.FileSize)

	ctx := c.Request.Context()
	if lang != "" {
		ctx = common.WithLang(ctx, lang)
	}
	res, err := s.deps.Pipeline.ProcessFile(ctx, file)
	if err != nil {
		status := common.HTTPStatus(err)
		c.JSON(status, gin.H{"error": err.Error(), "result": res})
		return
	}
	c.JSON(http.StatusOK, res)
}

// saveUpload copies the upload to a fresh name under UploadDir and
// describes it. Filename keeps the client's name.
func (s *Server) saveUpload(fh *multipart.FileHeader, ext string) (entity.SourceFile, error) {
	dir := s.cfg.UploadDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return entity.SourceFile{}, common.NewAppError("UPLOAD_FAILED", "create upload dir", err)
	}

	src, err := fh.Open()
	if err != nil {
		return entity.SourceFile{}, common.InvalidInputErrorf("read upload: %v", err)
	}
	defer src.Close()

	dst := filepath.Join(dir, uuid.NewString()+"."+ext)
	out, err := os.Create(dst)
	if err != nil {
		return entity.SourceFile{}, common.NewAppError("UPLOAD_FAILED", "create upload file", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return entity.SourceFile{}, common.NewAppError("UPLOAD_FAILED", "write upload file", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return entity.SourceFile{}, common.NewAppError("UPLOAD_FAILED", "close upload file", err)
	}

	file, err := ingest.Describe(dst)
	if err != nil {
		return entity.SourceFile{}, common.NewAppError("UPLOAD_FAILED", "describe upload", err)
	}
	file.Filename = filepath.Base(fh.Filename)
	return file, nil
}
