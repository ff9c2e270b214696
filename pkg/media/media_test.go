package media

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartFile(t *testing.T, field, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File[field][0]
}

func TestSaveTemp(t *testing.T) {
	dir := t.TempDir()
	fh := multipartFile(t, "avatar", "Me.PNG", []byte("not really a png"))

	path, err := SaveTemp(fh, filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	assert.Equal(t, ".png", filepath.Ext(path))
	assert.Equal(t, filepath.Join(dir, "uploads"), filepath.Dir(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "not really a png", string(data))
}

func TestObjectKey(t *testing.T) {
	a := objectKey("/tmp/clip.MP4")
	b := objectKey("/tmp/clip.MP4")

	assert.True(t, strings.HasSuffix(a, ".mp4"))
	assert.NotEqual(t, a, b)
}

func TestMinioStorage_URLRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"endpoint default", Config{Endpoint: "localhost:9000", Bucket: "media"}, "http://localhost:9000/media/k.mp4"},
		{"ssl endpoint", Config{Endpoint: "https://s3.example.com", UseSSL: true, Bucket: "media"}, "https://s3.example.com/media/k.mp4"},
		{"public url", Config{Endpoint: "minio:9000", Bucket: "media", PublicURL: "https://cdn.example.com/"}, "https://cdn.example.com/media/k.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewMinioStorage(tt.cfg)
			require.NoError(t, err)

			url := s.URL("k.mp4")
			assert.Equal(t, tt.want, url)
			assert.Equal(t, "k.mp4", s.KeyFromURL(url))
			assert.Empty(t, s.KeyFromURL("https://elsewhere.example.com/media/k.mp4"))
		})
	}
}
