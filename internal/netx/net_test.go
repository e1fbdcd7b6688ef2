package netx

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDownload(t *testing.T) {
	file := []byte("hello, s3")

	t.Run("success 200 OK", func(t *testing.T) {
		var gotMethod string

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(file)
		}))
		defer ts.Close()

		var buf bytes.Buffer
		var lastDone, lastTotal int64
		n, err := Download(context.Background(), ts.Client(), ts.URL+"/some/presigned?X-Amz-Signature=abc", &buf,
			func(done, total int64) { lastDone, lastTotal = done, total })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotMethod != http.MethodGet {
			t.Fatalf("method = %q, want GET", gotMethod)
		}
		if n != int64(len(file)) || !bytes.Equal(buf.Bytes(), file) {
			t.Fatalf("body = %q, want %q", buf.String(), string(file))
		}
		if lastDone != int64(len(file)) || lastTotal != int64(len(file)) {
			t.Fatalf("progress = %d/%d, want %d/%d", lastDone, lastTotal, len(file), len(file))
		}
	})

	t.Run("non-200 -> StatusError", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("Request has expired"))
		}))
		defer ts.Close()

		_, err := Download(context.Background(), ts.Client(), ts.URL, &bytes.Buffer{}, nil)
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("error = %v, want *StatusError", err)
		}
		if se.Code != http.StatusForbidden || !strings.Contains(se.Body, "expired") {
			t.Fatalf("got %+v", se)
		}
		if !strings.Contains(err.Error(), "download failed: 403") {
			t.Fatalf("error = %q, want to contain 403", err.Error())
		}
	})

	t.Run("network error", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		ts.Close()

		_, err := Download(context.Background(), http.DefaultClient, ts.URL, &bytes.Buffer{}, nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		var se *StatusError
		if errors.As(err, &se) {
			t.Fatalf("got wrong kind of error: %v", err)
		}
	})
}
