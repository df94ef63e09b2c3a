package utils

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrImageTooLarge is returned when an upload exceeds the size limit.
	ErrImageTooLarge = errors.New("image too large")
	// ErrImageType is returned for content types outside the allow list.
	ErrImageType = errors.New("unsupported image type")
)

var imageExt = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// DetectImageType sniffs data and reconciles it with the declared header
// type.  SVG is text to the sniffer, so it is accepted when declared and
// the payload contains an <svg element.
func DetectImageType(data []byte, declared string) (string, error) {
	declared = strings.ToLower(strings.TrimSpace(strings.SplitN(declared, ";", 2)[0]))
	sniffed := http.DetectContentType(data)
	if _, ok := imageExt[sniffed]; ok {
		return sniffed, nil
	}
	if declared == "image/svg+xml" && bytes.Contains(bytes.ToLower(data), []byte("<svg")) {
		return declared, nil
	}
	return "", ErrImageType
}

// ImageStore writes uploaded images under Root/<kind>/.
type ImageStore struct {
	Root    string
	MaxSize int64
}

// Save validates fh and stores it, returning the path relative to Root
// using forward slashes (e.g. "products/3f...c2.png").
func (s ImageStore) Save(fh *multipart.FileHeader, kind string) (string, error) {
	if fh.Size > s.MaxSize {
		return "", ErrImageTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, s.MaxSize+1))
	if err != nil {
		return "", err
	}
	return s.SaveBytes(data, fh.Header.Get("Content-Type"), kind)
}

// SaveBytes is Save for data already in memory.
func (s ImageStore) SaveBytes(data []byte, declared, kind string) (string, error) {
	if int64(len(data)) > s.MaxSize {
		return "", ErrImageTooLarge
	}
	ct, err := DetectImageType(data, declared)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(s.Root, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	name := uuid.NewString() + imageExt[ct]
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return kind + "/" + name, nil
}

// Remove deletes a stored image.  Missing files are ignored.
func (s ImageStore) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	full, err := s.Resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ErrPathEscape is returned by Resolve for paths outside Root.
var ErrPathEscape = errors.New("path escapes media root")

// Resolve maps a request path to a file under Root, rejecting traversal.
func (s ImageStore) Resolve(rel string) (string, error) {
	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", err
	}
	full, err := filepath.Abs(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", ErrPathEscape
	}
	return full, nil
}
