package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scoutly/internal/common/config"
	"scoutly/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	bodies  [][]byte
	deletes []*s3.DeleteObjectInput
	putErr  error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, in)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_UploadAndDelete(t *testing.T) {
	fake := &fakeS3{}
	store := newS3Store(fake, config.StorageConfig{Bucket: "submissions", Region: "us-east-1"}, logger.NewTestLogger(t))

	require.NoError(t, store.Upload(context.Background(), "u1/1700000000000.jpg", "image/jpeg", []byte("jpeg")))
	require.Len(t, fake.puts, 1)
	assert.Equal(t, "submissions", aws.ToString(fake.puts[0].Bucket))
	assert.Equal(t, "u1/1700000000000.jpg", aws.ToString(fake.puts[0].Key))
	assert.Equal(t, "image/jpeg", aws.ToString(fake.puts[0].ContentType))
	assert.Equal(t, []byte("jpeg"), fake.bodies[0])

	require.NoError(t, store.Delete(context.Background(), "u1/1700000000000.jpg"))
	require.Len(t, fake.deletes, 1)
	assert.Equal(t, "u1/1700000000000.jpg", aws.ToString(fake.deletes[0].Key))
}

func TestS3Store_UploadError(t *testing.T) {
	fake := &fakeS3{putErr: errors.New("access denied")}
	store := newS3Store(fake, config.StorageConfig{Bucket: "submissions"}, logger.NewTestLogger(t))

	err := store.Upload(context.Background(), "u1/1.jpg", "image/jpeg", []byte{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestS3Store_PublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.StorageConfig
		want string
	}{
		{"virtual host", config.StorageConfig{Bucket: "submissions", Region: "eu-west-1"},
			"https://submissions.s3.eu-west-1.amazonaws.com/u1/1.jpg"},
		{"custom endpoint", config.StorageConfig{Bucket: "submissions", Endpoint: "http://minio:9000/"},
			"http://minio:9000/submissions/u1/1.jpg"},
		{"public base", config.StorageConfig{Bucket: "submissions", PublicBaseURL: "https://cdn.scoutly.app/photos"},
			"https://cdn.scoutly.app/photos/u1/1.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newS3Store(&fakeS3{}, tt.cfg, logger.NewNoOpLogger())
			got, err := store.PublicURL("u1/1.jpg")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateKey(t *testing.T) {
	for _, key := range []string{"", "/abs.jpg", "../escape.jpg", "u1//x.jpg", "u1/./x.jpg"} {
		assert.ErrorIs(t, validateKey(key), ErrInvalidKey, key)
	}
	assert.NoError(t, validateKey("user-1/1700000000000.jpg"))
}

func TestLocalFS_RoundTrip(t *testing.T) {
	root := t.TempDir()
	store := NewLocalFS(root, "", logger.NewTestLogger(t))
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "u1/1.jpg", "image/jpeg", []byte("photo")))
	assert.True(t, store.Exists("u1/1.jpg"))

	data, err := os.ReadFile(filepath.Join(root, "u1", "1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "photo", string(data))

	url, err := store.PublicURL("u1/1.jpg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "file://"))
	assert.True(t, strings.HasSuffix(url, "/u1/1.jpg"))

	require.NoError(t, store.Delete(ctx, "u1/1.jpg"))
	assert.False(t, store.Exists("u1/1.jpg"))
	assert.ErrorIs(t, store.Delete(ctx, "u1/1.jpg"), ErrObjectMissing)
}

func TestLocalFS_BaseURL(t *testing.T) {
	store := NewLocalFS(t.TempDir(), "http://localhost:8080/objects/", logger.NewNoOpLogger())
	url, err := store.PublicURL("u1/1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/objects/u1/1.jpg", url)
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Driver: "ftp"}, logger.NewNoOpLogger())
	assert.Error(t, err)

	s, err := New(context.Background(), config.StorageConfig{Driver: "local", LocalRoot: t.TempDir()}, logger.NewNoOpLogger())
	require.NoError(t, err)
	assert.IsType(t, &LocalFS{}, s)
}
