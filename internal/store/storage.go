package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

// imageBucket is the storage bucket holding dish photos.
const imageBucket = "dish-images"

// UploadImage stores an image object under a fresh name and returns its
// public URL.
func (s *Supabase) UploadImage(ctx context.Context, data []byte, contentType string) (string, error) {
	name := uuid.NewString() + extensionFor(contentType)
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, imageBucket, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if err := s.authorize(ctx, req); err != nil {
		return "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("storage upload error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, imageBucket, name), nil
}

// DeleteImage removes the object behind a public URL. The URL's last path
// segment is the object name.
func (s *Supabase) DeleteImage(ctx context.Context, publicURL string) error {
	name := path.Base(publicURL)
	if name == "" || name == "." || name == "/" {
		return fmt.Errorf("invalid image URL %q", publicURL)
	}
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, imageBucket, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}
	if err := s.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("storage delete error: status %d", resp.StatusCode)
	}
	return nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
