package saver

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ultradl/internal/consts"
)

// Sweep removes temp files older than maxAge that an interrupted run left in the
// output directory. It returns how many were removed.
func (s *Saver) Sweep(ctx context.Context, maxAge time.Duration) int {
	log := s.log.With(slog.String("action", "sweep"), slog.Duration("max_age", maxAge))

	matches, err := filepath.Glob(filepath.Join(s.dir, consts.TempFilePattern))
	if err != nil {
		log.ErrorContext(ctx, "glob temp files", slog.Any("error", err))

		return 0
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.ModTime().After(cutoff) {
			continue
		}

		err = os.Remove(path)
		if err != nil && !os.IsNotExist(err) {
			log.WarnContext(ctx, "remove stale temp file", slog.String("path", path), slog.Any("error", err))

			continue
		}

		removed++
	}

	if removed > 0 {
		log.InfoContext(ctx, "stale temp files removed", slog.Int("count", removed))
	}

	return removed
}
