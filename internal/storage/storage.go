package storage

import "context"

// ObjectInfo represents metadata for a stored snapshot object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// SnapshotArchive captures the minimal object-store operations parameter
// snapshot retention needs.
type SnapshotArchive interface {
	UploadSnapshot(ctx context.Context, name string, data []byte) error
	ListSnapshots(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadSnapshot(ctx context.Context, name string) ([]byte, error)
}
