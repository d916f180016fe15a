// Package blob stores receipt images in an external byte store addressed
// by (owner, file name). The concrete implementation is Google Cloud
// Storage; tests substitute an in-memory fake.
package blob

import "context"

// Store is the receipt byte store. Implementations must be safe for
// concurrent use across requests.
type Store interface {
	// Put writes the bytes under the owner's prefix.
	Put(ctx context.Context, ownerID int64, fileName string, data []byte) error

	// Get reads the bytes back.
	Get(ctx context.Context, ownerID int64, fileName string) ([]byte, error)

	// Delete removes one object.
	Delete(ctx context.Context, ownerID int64, fileName string) error

	// DeleteAll removes every object under the owner's prefix. Used on
	// account deletion.
	DeleteAll(ctx context.Context, ownerID int64) error
}
