// internal/resume/service.go
package resume

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"researchhub/internal/common/aws"
	"researchhub/internal/common/clock"
	apperrors "researchhub/internal/common/errors"
	"researchhub/internal/common/logger"
)

// BlobStore is the narrow contract the service needs from object storage.
// Satisfied by *aws.S3Client; tests supply a fake.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]aws.ObjectInfo, error)
	SignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Service stores resume binaries and issues time-limited download URLs.
type Service struct {
	blobs  BlobStore
	clock  clock.Clock
	logger logger.Logger
	urlTTL time.Duration
}

func NewService(blobs BlobStore, clk clock.Clock, log logger.Logger, urlTTL time.Duration) *Service {
	return &Service{
		blobs:  blobs,
		clock:  clk,
		logger: log.WithFields(map[string]interface{}{"service": "resume"}),
		urlTTL: urlTTL,
	}
}

// Key derives the storage path for an upload. The millisecond timestamp is
// the uniqueness guard; two uploads of the same sanitized name in the same
// millisecond would collide.
func (s *Service) Key(projectID, filename string) string {
	sanitized := nonAlphanumeric.ReplaceAllString(filename, "_")
	return fmt.Sprintf("projects/%s/cv/%d_%s", projectID, s.clock.Now().UnixMilli(), sanitized)
}

// Upload stores the binary under a freshly derived key and returns the key.
// Failure aborts the enclosing admission operation.
func (s *Service) Upload(ctx context.Context, projectID, filename string, data []byte) (string, error) {
	key := s.Key(projectID, filename)
	if err := s.blobs.Put(ctx, key, data); err != nil {
		return "", apperrors.NewDependencyFailure("blob store", err)
	}
	s.logger.Info("resume stored", map[string]interface{}{
		"projectId": projectID,
		"key":       key,
		"bytes":     len(data),
	})
	return key, nil
}

// Delete removes a stored resume. Callers decide whether failure is fatal;
// for cleanup steps it is best-effort.
func (s *Service) Delete(ctx context.Context, key string) error {
	if err := s.blobs.Delete(ctx, key); err != nil {
		return apperrors.NewDependencyFailure("blob store", err)
	}
	return nil
}

// SignedURL issues a time-limited read URL for the exact stored key.
func (s *Service) SignedURL(ctx context.Context, key string) (string, error) {
	url, err := s.blobs.SignedGetURL(ctx, key, s.urlTTL)
	if err != nil {
		return "", apperrors.NewDependencyFailure("blob store", err)
	}
	return url, nil
}

// LatestKey resolves the most recently modified object under a project
// prefix. It exists only for records persisted before keys were stored on
// the application; a concurrent upload under the same prefix can redirect
// the lookup, so exact-key access is always preferred.
func (s *Service) LatestKey(ctx context.Context, projectID string) (string, error) {
	prefix := fmt.Sprintf("projects/%s/cv/", projectID)
	objects, err := s.blobs.List(ctx, prefix)
	if err != nil {
		return "", apperrors.NewDependencyFailure("blob store", err)
	}
	if len(objects) == 0 {
		return "", apperrors.NewNotFound("resume")
	}
	latest := objects[0]
	for _, obj := range objects[1:] {
		if obj.LastModified.After(latest.LastModified) {
			latest = obj
		}
	}
	return latest.Key, nil
}
