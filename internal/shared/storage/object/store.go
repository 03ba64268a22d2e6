package object

import (
	"context"
	"io"
)

// ObjectStore defines the contract for writing and reading exported report files.
type ObjectStore interface {
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
