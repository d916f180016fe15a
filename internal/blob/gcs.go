package blob

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/dohyunkim/moneytree/internal/domain"
)

// GCS implements Store on a Google Cloud Storage bucket. The client is
// injected; its lifecycle belongs to the process entry point.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS wraps an existing storage client and bucket name.
func NewGCS(client *storage.Client, bucket string) *GCS {
	return &GCS{client: client, bucket: bucket}
}

// objectName keys receipts under a per-owner prefix so DeleteAll can purge
// an account with one prefix listing.
func objectName(ownerID int64, fileName string) string {
	return fmt.Sprintf("%d/%s", ownerID, fileName)
}

func (g *GCS) Put(ctx context.Context, ownerID int64, fileName string, data []byte) error {
	w := g.client.Bucket(g.bucket).Object(objectName(ownerID, fileName)).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return domain.DependencyErr("write receipt object", err)
	}
	if err := w.Close(); err != nil {
		return domain.DependencyErr("finalize receipt upload", err)
	}
	return nil
}

func (g *GCS) Get(ctx context.Context, ownerID int64, fileName string) ([]byte, error) {
	rc, err := g.client.Bucket(g.bucket).Object(objectName(ownerID, fileName)).NewReader(ctx)
	if err != nil {
		return nil, domain.DependencyErr("open receipt object", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, domain.DependencyErr("read receipt object", err)
	}
	return data, nil
}

func (g *GCS) Delete(ctx context.Context, ownerID int64, fileName string) error {
	err := g.client.Bucket(g.bucket).Object(objectName(ownerID, fileName)).Delete(ctx)
	if err != nil {
		return domain.DependencyErr("delete receipt object", err)
	}
	return nil
}

func (g *GCS) DeleteAll(ctx context.Context, ownerID int64) error {
	prefix := fmt.Sprintf("%d/", ownerID)
	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return domain.DependencyErr("list receipt objects", err)
		}
		if err := g.client.Bucket(g.bucket).Object(attrs.Name).Delete(ctx); err != nil {
			return domain.DependencyErr("delete receipt object", err)
		}
	}
}
