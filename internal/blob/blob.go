// Package blob stores uploaded files in named buckets and hands out the
// public URLs they are served from.
package blob

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"locamat/internal/models"
	serviceerrors "locamat/internal/service"
)

type ObjectStorage interface {
	PutObject(ctx context.Context, obj models.Object) error
	GetObject(ctx context.Context, bucket, path string) (models.Object, error)
	DeleteObject(ctx context.Context, bucket, path string) error
}

type Store struct {
	log       *slog.Logger
	objects   ObjectStorage
	publicURL string
}

// New serves objects under publicURL, e.g. http://localhost:8080/storage.
func New(log *slog.Logger, objects ObjectStorage, publicURL string) *Store {
	return &Store{
		log:       log,
		objects:   objects,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (s *Store) Upload(ctx context.Context, bucket, objectPath string, data []byte, mime, ownerID string) error {
	const op = "blob.Upload"
	log := s.log.With("op", op, "bucket", bucket, "path", objectPath)

	if err := checkPath(bucket, objectPath); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := s.objects.PutObject(ctx, models.Object{
		Bucket:  bucket,
		Path:    objectPath,
		Data:    data,
		Mime:    mime,
		OwnerId: ownerID,
	})
	if err != nil {
		return serviceerrors.Report(log, op, "Failed to upload object", err)
	}

	return nil
}

func (s *Store) Download(ctx context.Context, bucket, objectPath string) (models.Object, error) {
	const op = "blob.Download"
	log := s.log.With("op", op, "bucket", bucket, "path", objectPath)

	if err := checkPath(bucket, objectPath); err != nil {
		return models.Object{}, fmt.Errorf("%s: %w", op, err)
	}

	obj, err := s.objects.GetObject(ctx, bucket, objectPath)
	if err != nil {
		return models.Object{}, serviceerrors.Report(log, op, "Failed to download object", err)
	}

	return obj, nil
}

func (s *Store) Remove(ctx context.Context, bucket, objectPath string) error {
	const op = "blob.Remove"
	log := s.log.With("op", op, "bucket", bucket, "path", objectPath)

	if err := s.objects.DeleteObject(ctx, bucket, objectPath); err != nil {
		return serviceerrors.Report(log, op, "Failed to remove object", err)
	}

	return nil
}

// PublicURL is the address an object is served from.
func (s *Store) PublicURL(bucket, objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.publicURL + "/" + url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}

// Locate is the inverse of PublicURL. It reports false for URLs this store
// did not issue.
func (s *Store) Locate(publicURL string) (bucket, objectPath string, ok bool) {
	rest, found := strings.CutPrefix(publicURL, s.publicURL+"/")
	if !found {
		return "", "", false
	}

	unescaped, err := url.PathUnescape(rest)
	if err != nil {
		return "", "", false
	}

	bucket, objectPath, found = strings.Cut(unescaped, "/")
	if !found || bucket == "" || objectPath == "" {
		return "", "", false
	}
	return bucket, objectPath, true
}

func checkPath(bucket, objectPath string) error {
	if bucket == "" || objectPath == "" {
		return serviceerrors.NewValidation("bucket and path are required")
	}
	if strings.HasPrefix(objectPath, "/") || path.Clean(objectPath) != objectPath {
		return serviceerrors.NewValidation("invalid object path")
	}
	return nil
}
