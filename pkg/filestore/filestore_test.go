package filestore

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func multipartFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatal(err)
	}
	return req.MultipartForm.File["file"][0]
}

func TestLocalFileStore(t *testing.T) {
	basePath := t.TempDir()
	fs, err := NewLocalFileStore(basePath, "/media")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("store and remove", func(t *testing.T) {
		fh := multipartFileHeader(t, "pic.png", pngMagic)

		url, err := fs.Store(context.Background(), fh, FileKindAvatar)
		if err != nil {
			t.Fatalf("store failed: %v", err)
		}
		if !strings.HasPrefix(url, "/media/avatars/") {
			t.Errorf("unexpected url: %s", url)
		}
		if !strings.HasSuffix(url, ".png") {
			t.Errorf("expected original extension kept, got %s", url)
		}

		onDisk := filepath.Join(basePath, strings.TrimPrefix(url, "/media/"))
		if _, err := os.Stat(onDisk); err != nil {
			t.Fatalf("stored file missing on disk: %v", err)
		}

		if err := fs.Remove(context.Background(), url); err != nil {
			t.Fatalf("remove failed: %v", err)
		}
		if _, err := os.Stat(onDisk); !os.IsNotExist(err) {
			t.Error("expected file removed from disk")
		}
	})

	t.Run("content type is sniffed, not trusted", func(t *testing.T) {
		fh := multipartFileHeader(t, "fake.png", []byte("plain text pretending to be an image"))

		if _, err := fs.Store(context.Background(), fh, FileKindAvatar); err == nil {
			t.Error("expected rejection of non-image content")
		}
	})

	t.Run("empty file", func(t *testing.T) {
		fh := multipartFileHeader(t, "empty.png", nil)

		if _, err := fs.Store(context.Background(), fh, FileKindAvatar); err == nil {
			t.Error("expected rejection of empty file")
		}
	})

	t.Run("remove ignores foreign urls", func(t *testing.T) {
		if err := fs.Remove(context.Background(), "https://elsewhere.example/file.png"); err != nil {
			t.Errorf("expected foreign url to be ignored, got %v", err)
		}
	})
}
