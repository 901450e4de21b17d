package adapter

import (
	"context"
	"io"
)

// MediaStore keeps uploaded media between the submit request and the
// pipeline run.
type MediaStore interface {
	// Stage persists the upload and returns an opaque reference to it.
	Stage(ctx context.Context, filename string, r io.Reader) (string, error)
	// Fetch materializes a staged upload at dst on the local filesystem.
	Fetch(ctx context.Context, ref, dst string) error
}
