package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/leesangmin4533/bgf-dashboard-sub000/internal/config"
)

const snapshotPrefix = "param-snapshots/"

// MinioArchive stores parameter snapshots in an S3-compatible bucket so a
// wiped local backup directory never loses tuning history.
type MinioArchive struct {
	client *minio.Client
	bucket string
}

func NewMinioArchive(cfg config.ArchiveConfig) (*MinioArchive, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("archive endpoint must be provided")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("archive credentials must be provided")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket must be provided")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create archive client: %w", err)
	}

	return &MinioArchive{client: client, bucket: cfg.Bucket}, nil
}

func (a *MinioArchive) UploadSnapshot(ctx context.Context, name string, data []byte) error {
	key := path.Join(snapshotPrefix, name)
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("archive upload failed: %w", err)
	}
	return nil
}

func (a *MinioArchive) ListSnapshots(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    path.Join(snapshotPrefix, prefix),
		Recursive: true,
	}

	var infos []ObjectInfo
	for object := range a.client.ListObjects(ctx, a.bucket, opts) {
		if object.Err != nil {
			return nil, fmt.Errorf("archive list failed: %w", object.Err)
		}
		infos = append(infos, ObjectInfo{Key: object.Key, Size: object.Size})
	}
	return infos, nil
}

func (a *MinioArchive) DownloadSnapshot(ctx context.Context, name string) ([]byte, error) {
	key := path.Join(snapshotPrefix, name)
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("archive get failed: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("archive read failed: %w", err)
	}
	return data, nil
}
