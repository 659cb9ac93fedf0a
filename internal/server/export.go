package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/playerMars/final-ocr/constants"
	"github.com/playerMars/final-ocr/internal/common"
)

var contentTypes = map[constants.ReportFormat]string{
	constants.ReportXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	constants.ReportJSON: "application/json",
	constants.ReportCSV:  "text/csv; charset=utf-8",
	constants.ReportTXT:  "text/plain; charset=utf-8",
}

func (s *Server) handleExportXLSX(c *gin.Context) {
	s.export(c, constants.ReportXLSX)
}

func (s *Server) handleExport(c *gin.Context) {
	format := strings.ToLower(c.Param("format"))
	v := common.NewValidator().Field("format", format, common.Required, common.OneOf(constants.ReportFormats...))
	if err := common.ValidateAndReturnError(v); err != nil {
		s.respondError(c, err)
		return
	}
	s.export(c, constants.ReportFormat(format))
}

// export renders the stored invoices matching the list query parameters.
func (s *Server) export(c *gin.Context, format constants.ReportFormat) {
	if s.deps.Exports == nil {
		storeDisabled(c)
		return
	}
	filter, err := listFilter(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	out, err := s.deps.Exports.ExportStored(c.Request.Context(), format, filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="invoices.`+string(format)+`"`)
	c.Data(http.StatusOK, contentTypes[format], out)
}
