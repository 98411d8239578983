// Package saver lands payloads as files in the output directory.
package saver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ultradl/internal/consts"
	"ultradl/internal/entity"
	"ultradl/internal/errs"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Saver writes payloads under dir.
type Saver struct {
	log *slog.Logger
	dir string
}

// New returns a Saver for dir. The directory is created on first save.
func New(log *slog.Logger, dir string) *Saver {
	return &Saver{
		log: log.With(slog.String("package", "saver")),
		dir: dir,
	}
}

// Dir is the output directory.
func (s *Saver) Dir() string {
	return s.dir
}

// Save writes payload to a temporary file and renames it to filename. An existing
// file with that name is replaced. The temporary file never outlives the call.
func (s *Saver) Save(ctx context.Context, payload *entity.Payload, filename string) (path string, err error) {
	if payload == nil {
		return "", errs.ErrNilPayload
	}

	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", errs.ErrEmptyFilename
	}

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}

	err = os.MkdirAll(s.dir, dirPerm)
	if err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, consts.TempFilePattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmp.Name()
	defer func() {
		// no-op after a successful rename
		if rmErr := os.Remove(tmpName); rmErr != nil && !os.IsNotExist(rmErr) {
			s.log.WarnContext(ctx, "remove temp file", slog.String("path", tmpName), slog.Any("error", rmErr))
		}
	}()

	_, err = tmp.Write(payload.Data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}

	err = os.Chmod(tmpName, filePerm)
	if err != nil {
		return "", fmt.Errorf("chmod temp file: %w", err)
	}

	path = filepath.Join(s.dir, name)

	err = os.Rename(tmpName, path)
	if err != nil {
		return "", fmt.Errorf("rename to %s: %w", name, err)
	}

	s.log.DebugContext(ctx, "file saved",
		slog.String("path", path),
		slog.Any("payload", payload))

	return path, nil
}
