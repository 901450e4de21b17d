package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"dubbing-orchestrator/internal/domain"
	"dubbing-orchestrator/internal/domain/ports/adapter"

	"github.com/oklog/ulid/v2"
)

const maxExtLen = 8

// objectName builds a unique, sortable name for a staged upload while
// keeping the client's file extension.
func objectName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > maxExtLen || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return ulid.Make().String() + ext
}

// ctxReader stops a copy as soon as ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

var _ adapter.MediaStore = NopMediaStore{}

// NopMediaStore keeps only metadata: uploads are discarded and nothing is
// ever fetched into the working directory.
type NopMediaStore struct{}

func (NopMediaStore) Stage(ctx context.Context, filename string, r io.Reader) (string, error) {
	return "", nil
}

func (NopMediaStore) Fetch(ctx context.Context, ref, dst string) error {
	if ref != "" {
		return fmt.Errorf("fetch %q: %w", ref, domain.ErrNotFound)
	}
	return nil
}
