package backup

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BucketConfig addresses an S3-compatible bucket (MinIO, R2, AWS).
type BucketConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	Region    string
	UseSSL    bool
}

// Bucket stores backup documents as objects.
type Bucket struct {
	client *minio.Client
	bucket string
	prefix string
	logger *log.Logger
}

// OpenBucket connects to the configured bucket, creating it when missing.
func OpenBucket(ctx context.Context, cfg BucketConfig, logger *log.Logger) (*Bucket, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating object storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("creating bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("bucket created", "bucket", cfg.Bucket)
	}

	return &Bucket{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: logger,
	}, nil
}

// Key returns the object key for a document exported at t.
func (b *Bucket) Key(t time.Time) string {
	name := "cyberdeck-backup-" + t.UTC().Format("20060102T150405Z") + ".json"
	if b.prefix == "" {
		return name
	}
	return path.Join(b.prefix, name)
}

// Push uploads doc and returns its object key.
func (b *Bucket) Push(ctx context.Context, doc Document) (string, error) {
	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		return "", err
	}
	key := b.Key(doc.ExportedAt)
	_, err := b.client.PutObject(ctx, b.bucket, key, &buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}
	b.logger.Debug("backup uploaded", "bucket", b.bucket, "key", key, "bytes", buf.Len())
	return key, nil
}

// Pull downloads and parses the object at key. An empty key selects the
// newest backup under the prefix.
func (b *Bucket) Pull(ctx context.Context, key string) (Document, string, error) {
	if key == "" {
		keys, err := b.List(ctx)
		if err != nil {
			return Document{}, "", err
		}
		if len(keys) == 0 {
			return Document{}, "", fmt.Errorf("no backups in %s/%s", b.bucket, b.prefix)
		}
		key = keys[0]
	}

	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return Document{}, key, fmt.Errorf("downloading %s: %w", key, err)
	}
	defer obj.Close()

	doc, err := Parse(obj)
	if err != nil {
		return Document{}, key, err
	}
	return doc, key, nil
}

// List returns backup object keys under the prefix, newest first.
func (b *Bucket) List(ctx context.Context) ([]string, error) {
	prefix := b.prefix
	if prefix != "" {
		prefix += "/"
	}
	var keys []string
	for obj := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("listing %s: %w", b.bucket, obj.Err)
		}
		if strings.HasSuffix(obj.Key, ".json") {
			keys = append(keys, obj.Key)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}
