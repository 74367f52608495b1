package storage

import "context"

// StorageService stores payment proof blobs and hands back a public URL.
type StorageService interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

var (
	_ StorageService = (*CloudflareStorage)(nil)
	_ StorageService = (*MemoryStorage)(nil)
)
