package adapter

import "context"

// BlobStore resolves remote media references to local files and publishes
// local artifacts back to object storage (used by mock-mode output).
type BlobStore interface {
	ResolveToLocal(ctx context.Context, uri string) (string, error)
	Put(ctx context.Context, localPath, destinationHint string) (string, error)
}
