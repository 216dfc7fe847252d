package filestore

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileKind selects the validation rules and target directory for an upload.
type FileKind string

const (
	FileKindAvatar     FileKind = "avatars"
	FileKindCoverImage FileKind = "covers"
	FileKindThumbnail  FileKind = "thumbnails"
	FileKindVideo      FileKind = "videos"
)

var allowedTypesByKind = map[FileKind][]string{
	FileKindAvatar:     {"image/jpeg", "image/png", "image/webp"},
	FileKindCoverImage: {"image/jpeg", "image/png", "image/webp"},
	FileKindThumbnail:  {"image/jpeg", "image/png", "image/webp"},
	FileKindVideo:      {"video/mp4", "video/webm", "application/octet-stream"},
}

// FileStore persists uploaded media and returns a URL the API can serve.
type FileStore interface {
	Store(ctx context.Context, fileHeader *multipart.FileHeader, kind FileKind) (string, error)
	Remove(ctx context.Context, url string) error
}

// LocalFileStore writes uploads under a base directory on local disk and
// serves them under baseURL.
type LocalFileStore struct {
	basePath string
	baseURL  string
}

func NewLocalFileStore(basePath string, baseURL string) (*LocalFileStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create file store directory: %w", err)
	}
	return &LocalFileStore{
		basePath: basePath,
		baseURL:  baseURL,
	}, nil
}

// ValidateFileTypeFromContent reads the first 512 bytes of the upload and
// detects the content type with http.DetectContentType, so the declared
// Content-Type header is never trusted.
func ValidateFileTypeFromContent(fileHeader *multipart.FileHeader, allowedTypes []string) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if n == 0 {
		return "", fmt.Errorf("file is empty")
	}

	contentType := http.DetectContentType(buffer[:n])

	allowedMap := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowedMap[t] = true
	}
	if !allowedMap[contentType] {
		return "", fmt.Errorf("invalid file type: %s", contentType)
	}
	return contentType, nil
}

func (fs *LocalFileStore) Store(ctx context.Context, fileHeader *multipart.FileHeader, kind FileKind) (string, error) {
	allowedTypes, ok := allowedTypesByKind[kind]
	if !ok {
		return "", fmt.Errorf("unknown file kind: %s", kind)
	}

	if _, err := ValidateFileTypeFromContent(fileHeader, allowedTypes); err != nil {
		return "", err
	}

	name := uuid.New().String() + filepath.Ext(fileHeader.Filename)
	dir := filepath.Join(fs.basePath, string(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return fs.baseURL + "/" + string(kind) + "/" + name, nil
}

// Remove deletes a previously stored file given the URL Store returned.
// URLs outside the store's base URL are ignored.
func (fs *LocalFileStore) Remove(ctx context.Context, url string) error {
	if len(url) <= len(fs.baseURL) || url[:len(fs.baseURL)] != fs.baseURL {
		return nil
	}
	rel := filepath.Clean(url[len(fs.baseURL):])
	target := filepath.Join(fs.basePath, rel)
	if _, err := filepath.Rel(fs.basePath, target); err != nil {
		return nil
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
