// Package files stores service artifacts (log dumps and rendered graphs) in
// an S3-compatible object store, keyed by category prefix.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Artifact categories.
const (
	CategoryLogs   = "logs"
	CategoryGraphs = "graphs"
)

var (
	ErrInvalidCategory = errors.New("invalid file type")
	ErrNotFound        = errors.New("file not found")
)

// ValidCategory reports whether c names a known artifact category.
func ValidCategory(c string) bool {
	return c == CategoryLogs || c == CategoryGraphs
}

// Info describes one stored artifact.
type Info struct {
	Type     string    `json:"type"`
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// CategoryUsage is the per-category slice of the stats response.
type CategoryUsage struct {
	Count          int64 `json:"count"`
	TotalSizeBytes int64 `json:"total_size_bytes"`
}

// UsageStats summarizes everything in the bucket.
type UsageStats struct {
	Logs           CategoryUsage `json:"logs"`
	Graphs         CategoryUsage `json:"graphs"`
	TotalSizeBytes int64         `json:"total_size_bytes"`
}

// Store is a MinIO-backed artifact store. Objects live under
// <category>/<timestamped name> in a single bucket.
type Store struct {
	mc     *minio.Client
	bucket string
}

// Opts configures the store connection.
type Opts struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseTLS    bool
	Bucket    string
}

// New connects to the object store.
func New(o Opts) (*Store, error) {
	mc, err := minio.New(o.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
		Secure: o.UseTLS,
	})
	if err != nil {
		return nil, err
	}
	return &Store{mc: mc, bucket: o.Bucket}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.mc.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// Upload stores one artifact under a timestamped object name and returns
// the stored name.
func (s *Store) Upload(ctx context.Context, category, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if !ValidCategory(category) {
		return "", ErrInvalidCategory
	}

	stored := fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), filename)
	key := category + "/" + stored

	_, err := s.mc.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return stored, nil
}

// List returns artifacts in one category, or in all categories when
// category is empty.
func (s *Store) List(ctx context.Context, category string) ([]Info, error) {
	categories := []string{CategoryLogs, CategoryGraphs}
	if category != "" {
		if !ValidCategory(category) {
			// Unknown filter matches nothing, mirroring a listing of a
			// directory that does not exist.
			return []Info{}, nil
		}
		categories = []string{category}
	}

	result := []Info{}
	for _, c := range categories {
		prefix := c + "/"
		for obj := range s.mc.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: true,
		}) {
			if obj.Err != nil {
				return nil, fmt.Errorf("list %s: %w", prefix, obj.Err)
			}
			result = append(result, Info{
				Type:     strings.TrimSuffix(c, "s"),
				Filename: strings.TrimPrefix(obj.Key, prefix),
				Size:     obj.Size,
				Modified: obj.LastModified,
			})
		}
	}
	return result, nil
}

// Open returns a reader over one artifact plus its metadata.
func (s *Store) Open(ctx context.Context, category, filename string) (io.ReadCloser, *Info, error) {
	if !ValidCategory(category) {
		return nil, nil, ErrInvalidCategory
	}
	key := category + "/" + filename

	obj, err := s.mc.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", key, err)
	}

	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("stat %s: %w", key, err)
	}

	info := &Info{
		Type:     strings.TrimSuffix(category, "s"),
		Filename: filename,
		Size:     stat.Size,
		Modified: stat.LastModified,
	}
	return obj, info, nil
}

// Delete removes one artifact. Deleting a missing artifact is an error so
// the API can answer 404.
func (s *Store) Delete(ctx context.Context, category, filename string) error {
	if !ValidCategory(category) {
		return ErrInvalidCategory
	}
	key := category + "/" + filename

	_, err := s.mc.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ErrNotFound
		}
		return fmt.Errorf("stat %s: %w", key, err)
	}

	if err := s.mc.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Stats returns per-category counts and sizes.
func (s *Store) Stats(ctx context.Context) (*UsageStats, error) {
	stats := &UsageStats{}

	for _, c := range []string{CategoryLogs, CategoryGraphs} {
		infos, err := s.List(ctx, c)
		if err != nil {
			return nil, err
		}
		usage := CategoryUsage{Count: int64(len(infos))}
		for _, info := range infos {
			usage.TotalSizeBytes += info.Size
		}
		switch c {
		case CategoryLogs:
			stats.Logs = usage
		case CategoryGraphs:
			stats.Graphs = usage
		}
		stats.TotalSizeBytes += usage.TotalSizeBytes
	}
	return stats, nil
}
