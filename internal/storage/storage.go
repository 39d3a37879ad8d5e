// Package storage provides scoped put/delete of named byte blobs (recipe
// images, shopping-list exports) under a content root.
package storage

import "context"

// FileStore persists named byte blobs and hands back the URL they are
// served from. Delete of a missing blob is not an error.
type FileStore interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, name string) error
}
