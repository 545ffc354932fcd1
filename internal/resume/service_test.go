// internal/resume/service_test.go
package resume

import (
	"context"
	"errors"
	"testing"
	"time"

	"researchhub/internal/common/aws"
	"researchhub/internal/common/clock"
	apperrors "researchhub/internal/common/errors"
	"researchhub/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlobStore struct {
	objects map[string][]byte
	modTime map[string]time.Time
	putErr  error
	delErr  error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		objects: map[string][]byte{},
		modTime: map[string]time.Time{},
	}
}

func (f *fakeBlobStore) Put(_ context.Context, key string, data []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[key] = data
	f.modTime[key] = time.Now()
	return nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobStore) List(_ context.Context, prefix string) ([]aws.ObjectInfo, error) {
	var out []aws.ObjectInfo
	for key := range f.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, aws.ObjectInfo{Key: key, LastModified: f.modTime[key]})
		}
	}
	return out, nil
}

func (f *fakeBlobStore) SignedGetURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if _, ok := f.objects[key]; !ok {
		return "", errors.New("no such key")
	}
	return "https://blobs.example.com/" + key + "?signed=1", nil
}

func TestService_Key_SanitizesFilename(t *testing.T) {
	clk := clock.NewFake(time.UnixMilli(1709913600000).UTC())
	svc := NewService(newFakeBlobStore(), clk, logger.NewNoOpLogger(), 72*time.Hour)

	key := svc.Key("proj-1", "Ada Park (final).pdf")

	assert.Equal(t, "projects/proj-1/cv/1709913600000_Ada_Park__final__pdf", key)
}

func TestService_UploadAndSignedURL(t *testing.T) {
	blobs := newFakeBlobStore()
	clk := clock.NewFake(time.UnixMilli(1709913600000).UTC())
	svc := NewService(blobs, clk, logger.NewNoOpLogger(), 72*time.Hour)

	key, err := svc.Upload(context.Background(), "proj-1", "resume.pdf", []byte("pdf-bytes"))
	require.NoError(t, err)
	assert.Contains(t, key, "projects/proj-1/cv/")

	url, err := svc.SignedURL(context.Background(), key)
	require.NoError(t, err)
	assert.Contains(t, url, key)
}

func TestService_Upload_StoreFailure(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.putErr = errors.New("bucket unavailable")
	svc := NewService(blobs, clock.Real{}, logger.NewNoOpLogger(), 72*time.Hour)

	_, err := svc.Upload(context.Background(), "proj-1", "resume.pdf", []byte("x"))

	require.Error(t, err)
	assert.True(t, apperrors.IsDependencyFailure(err))
}

func TestService_LatestKey_PicksMostRecent(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.objects["projects/proj-1/cv/1_old_pdf"] = []byte("old")
	blobs.modTime["projects/proj-1/cv/1_old_pdf"] = time.Unix(100, 0)
	blobs.objects["projects/proj-1/cv/2_new_pdf"] = []byte("new")
	blobs.modTime["projects/proj-1/cv/2_new_pdf"] = time.Unix(200, 0)
	blobs.objects["projects/proj-2/cv/3_other_pdf"] = []byte("other")
	blobs.modTime["projects/proj-2/cv/3_other_pdf"] = time.Unix(300, 0)

	svc := NewService(blobs, clock.Real{}, logger.NewNoOpLogger(), 72*time.Hour)

	key, err := svc.LatestKey(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "projects/proj-1/cv/2_new_pdf", key)
}

func TestService_LatestKey_Empty(t *testing.T) {
	svc := NewService(newFakeBlobStore(), clock.Real{}, logger.NewNoOpLogger(), 72*time.Hour)

	_, err := svc.LatestKey(context.Background(), "proj-1")

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
