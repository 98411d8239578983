package saver_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ultradl/internal/entity"
	"ultradl/internal/errs"
	"ultradl/internal/saver"
	"ultradl/pkg/logger"
)

func partFiles(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}

	var parts []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".part") {
			parts = append(parts, e.Name())
		}
	}

	return parts
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s := saver.New(logger.Discard(), dir)

	path, err := s.Save(t.Context(), &entity.Payload{Data: []byte("one")}, "media.mp3")
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	if path != filepath.Join(dir, "media.mp3") {
		t.Errorf("path = %q", path)
	}

	// same name overwrites, like a browser download of the same filename
	if _, err := s.Save(t.Context(), &entity.Payload{Data: []byte("two")}, "media.mp3"); err != nil {
		t.Fatalf("second Save() failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}

	if string(got) != "two" {
		t.Errorf("content = %q, want two", got)
	}

	if parts := partFiles(t, dir); len(parts) != 0 {
		t.Errorf("temp files left behind: %v", parts)
	}
}

func TestSaveStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	s := saver.New(logger.Discard(), dir)

	path, err := s.Save(t.Context(), &entity.Payload{Data: []byte("x")}, "../../etc/evil.jpg")
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	if path != filepath.Join(dir, "evil.jpg") {
		t.Errorf("path = %q, want file inside output dir", path)
	}
}

func TestSaveErrors(t *testing.T) {
	dir := t.TempDir()
	s := saver.New(logger.Discard(), dir)

	tests := []struct {
		name     string
		ctx      func() context.Context
		payload  *entity.Payload
		filename string
		wantErr  error
	}{
		{name: "nil payload", ctx: t.Context, payload: nil, filename: "a.jpg", wantErr: errs.ErrNilPayload},
		{name: "empty filename", ctx: t.Context, payload: &entity.Payload{}, filename: "  ", wantErr: errs.ErrEmptyFilename},
		{
			name: "canceled",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(t.Context())
				cancel()
				return ctx
			},
			payload:  &entity.Payload{},
			filename: "a.jpg",
			wantErr:  context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Save(tt.ctx(), tt.payload, tt.filename)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Save() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveRenameFailureCleansUp(t *testing.T) {
	dir := t.TempDir()
	s := saver.New(logger.Discard(), dir)

	// a directory in the way makes the rename fail
	if err := os.MkdirAll(filepath.Join(dir, "media.mp4", "x"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if _, err := s.Save(t.Context(), &entity.Payload{Data: []byte("x")}, "media.mp4"); err == nil {
		t.Fatal("expected rename error")
	}

	if parts := partFiles(t, dir); len(parts) != 0 {
		t.Errorf("temp files left behind: %v", parts)
	}
}
