package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	m.types[*input.Key] = *input.ContentType
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestUploadStoresImage(t *testing.T) {
	mock := newMockS3()
	s := newStore(mock, Config{Bucket: "media", PublicURL: "https://cdn.nsultan.example/"})

	obj, err := s.Upload(context.Background(), "menu", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(obj.Key, "menu/"))
	assert.True(t, strings.HasSuffix(obj.Key, ".png"))
	assert.Equal(t, "https://cdn.nsultan.example/"+obj.Key, obj.URL)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, pngHeader, mock.objects[obj.Key])
	assert.Equal(t, "image/png", mock.types[obj.Key])

	key, ok := s.KeyFromURL(obj.URL)
	assert.True(t, ok)
	assert.Equal(t, obj.Key, key)

	require.NoError(t, s.Delete(context.Background(), key))
	assert.Empty(t, mock.objects)
}

func TestUploadRejects(t *testing.T) {
	s := newStore(newMockS3(), Config{Bucket: "media", Endpoint: "https://s3.example"})
	ctx := context.Background()

	_, err := s.Upload(ctx, "menu", strings.NewReader("plain text, not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = s.Upload(ctx, "avatars", bytes.NewReader(pngHeader))
	assert.ErrorIs(t, err, ErrUnknownFolder)

	big := append(append([]byte{}, pngHeader...), make([]byte, MaxUploadSize)...)
	_, err = s.Upload(ctx, "gallery", bytes.NewReader(big))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestUploadWrapsS3Error(t *testing.T) {
	mock := newMockS3()
	mock.putErr = errors.New("access denied")
	s := newStore(mock, Config{Bucket: "media"})

	_, err := s.Upload(context.Background(), "gallery", bytes.NewReader(pngHeader))
	assert.ErrorContains(t, err, "upload to s3")
}

func TestPathStylePublicURL(t *testing.T) {
	s := newStore(newMockS3(), Config{Bucket: "media", Endpoint: "https://s3.example/"})
	assert.Equal(t, "https://s3.example/media/gallery/a.jpg", s.URL("gallery/a.jpg"))

	_, ok := s.KeyFromURL("https://images.unsplash.com/photo-1")
	assert.False(t, ok)
}

func TestNewBuildsClient(t *testing.T) {
	s := New(Config{Endpoint: "https://s3.example", Bucket: "media", AccessKey: "a", SecretKey: "b"})
	assert.NotNil(t, s.client)
}
