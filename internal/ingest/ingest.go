// Package ingest discovers invoice files on disk and fingerprints them.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/playerMars/final-ocr/constants"
	"github.com/playerMars/final-ocr/internal/common"
	"github.com/playerMars/final-ocr/internal/entity"
)

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned      uint32 `json:"scanned"`
	Matched      uint32 `json:"matched"`
	Deduplicated uint32 `json:"deduplicated"`
	Failed       uint32 `json:"failed"`
}

// ExtSet builds a lowercase extension set, without dots. An empty list
// yields every allowed extension.
func ExtSet(exts []string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, e := range exts {
		if e = constants.NormalizeExt(strings.TrimSpace(e)); e != "" {
			out[e] = struct{}{}
		}
	}
	if len(out) == 0 {
		for e := range constants.AllowedExtensions {
			out[e] = struct{}{}
		}
	}
	return out
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return base != "." && base != ".." && strings.HasPrefix(base, ".")
}

func allowed(path string, exts map[string]struct{}) bool {
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}

// ScanDirectory walks root and describes every file whose extension is in
// exts. Files whose content hash was already seen in this scan are counted
// as deduplicated and left out. Unreadable entries are counted as failed and
// the walk continues. Results are sorted by path.
func ScanDirectory(ctx context.Context, root string, exts []string, skipHidden bool) ([]entity.SourceFile, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, common.InvalidInputErrorf("root path is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, stats, common.InvalidInputErrorf("root path: %v", err)
	}
	if !info.IsDir() {
		return nil, stats, common.InvalidInputErrorf("root path %q is not a directory", root)
	}

	set := ExtSet(exts)
	seen := map[string]string{}
	var files []entity.SourceFile

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			slog.Warn("ingest.scan.entry_failed", "path", path, "err", walkErr)
			stats.Failed++
			return nil
		}
		if path != root && skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if !allowed(path, set) {
			return nil
		}
		stats.Matched++

		f, err := Describe(path)
		if err != nil {
			slog.Warn("ingest.scan.describe_failed", "path", path, "err", err)
			stats.Failed++
			return nil
		}
		key := hex.EncodeToString(f.ContentHash)
		if first, dup := seen[key]; dup {
			slog.Info("ingest.scan.duplicate", "path", path, "first_seen", first)
			stats.Deduplicated++
			return nil
		}
		seen[key] = path
		files = append(files, f)
		return nil
	})
	if err != nil {
		return files, stats, fmt.Errorf("walk: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].SourcePath < files[j].SourcePath })
	slog.Info("ingest.scan.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return files, stats, nil
}

// Describe hashes the file at path and fills a SourceFile for it.
func Describe(path string) (entity.SourceFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return entity.SourceFile{}, fmt.Errorf("abs path: %w", err)
	}
	f, err := os.Open(abs)
	if err != nil {
		return entity.SourceFile{}, fmt.Errorf("open: %w", err)
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			slog.Warn("ingest.close.failed", "path", abs, "err", err)
		}
	}(f)

	sum, size, err := Hash(f)
	if err != nil {
		return entity.SourceFile{}, err
	}
	return entity.SourceFile{
		SourcePath:  abs,
		ContentHash: sum,
		Filename:    filepath.Base(abs),
		FileExt:     constants.NormalizeExt(filepath.Ext(abs)),
		FileSize:    size,
		UploadedAt:  time.Now().UTC(),
	}, nil
}

// Hash returns the sha256 of r and the number of bytes read.
func Hash(r io.Reader) ([]byte, int, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return nil, 0, fmt.Errorf("hash: %w", err)
	}
	return h.Sum(nil), int(n), nil
}
