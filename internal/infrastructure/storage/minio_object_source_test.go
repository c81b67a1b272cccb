package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMinioObjectSource_Open(t *testing.T) {
	payload := []byte("onnx-weights-payload")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/weights/model.onnx" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("Last-Modified", time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC).Format(http.TimeFormat))
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	src, err := NewMinioObjectSource(MinioConfig{
		Endpoint:  srv.URL,
		AccessKey: "minio",
		SecretKey: "minio123",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	rc, err := src.Open(context.Background(), "weights", "model.onnx")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, payload, data)
}

func TestNewMinioObjectSource_TrimsScheme(t *testing.T) {
	src, err := NewMinioObjectSource(MinioConfig{Endpoint: "https://storage.example.com/"})
	require.NoError(t, err)
	require.Equal(t, "storage.example.com", src.client.EndpointURL().Host)
	require.Equal(t, "https", src.client.EndpointURL().Scheme)
}
