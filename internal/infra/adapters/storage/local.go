package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"dubbing-orchestrator/internal/domain"
	"dubbing-orchestrator/internal/domain/ports/adapter"
)

var _ adapter.MediaStore = (*LocalMediaStore)(nil)

// LocalMediaStore stages uploads as files under one directory. References
// are bare file names inside that directory.
type LocalMediaStore struct {
	dir string
}

func NewLocalMediaStore(dir string) *LocalMediaStore {
	return &LocalMediaStore{dir: dir}
}

func (s *LocalMediaStore) Stage(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := io.Copy(tmp, ctxReader{ctx: ctx, r: r}); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}

	name := objectName(filename)
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}
	return name, nil
}

// Fetch moves the staged file to dst; a staged upload can be fetched once.
func (s *LocalMediaStore) Fetch(ctx context.Context, ref, dst string) error {
	if ref == "" || ref != filepath.Base(ref) || ref == "." || ref == ".." {
		return fmt.Errorf("staged upload %q: %w", ref, domain.ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	src := filepath.Join(s.dir, ref)
	if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("staged upload %q: %w", ref, domain.ErrNotFound)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	// rename fails across devices; fall back to copy + remove
	if err := copyFile(ctx, src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(ctx context.Context, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, ctxReader{ctx: ctx, r: in}); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Sweep removes staged uploads last modified before cutoff and reports how
// many were removed. A missing directory means nothing was staged yet.
func (s *LocalMediaStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
