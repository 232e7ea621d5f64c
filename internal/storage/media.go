// Package storage persists uploaded media (recipe images, avatars) on the
// local filesystem. In production the gateway serves the media directory
// directly; the backend only writes into it.
package storage

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MediaStore writes base64 image payloads below a root directory and
// returns URL paths rooted at /media/.
type MediaStore struct {
	root string
}

// extensions maps the accepted image MIME types to file extensions.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// NewMediaStore creates the media root (and its known subdirectories) if
// they do not exist yet.
func NewMediaStore(root string) (*MediaStore, error) {
	for _, dir := range []string{"recipes", "users"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create media directory: %w", err)
		}
	}
	return &MediaStore{root: root}, nil
}

// SaveBase64 decodes a payload of the form
// "data:image/png;base64,...." into a file under the given subdirectory
// and returns its URL path ("/media/<dir>/<name>.<ext>").
func (s *MediaStore) SaveBase64(dir, payload string) (string, error) {
	mime, data, ok := strings.Cut(payload, ";base64,")
	if !ok || !strings.HasPrefix(mime, "data:") {
		return "", fmt.Errorf("image must be a base64 data URL")
	}

	ext, ok := extensions[strings.TrimPrefix(mime, "data:")]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", strings.TrimPrefix(mime, "data:"))
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("image payload is empty")
	}

	name := randomName() + ext
	if err := os.WriteFile(filepath.Join(s.root, dir, name), raw, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return "/media/" + dir + "/" + name, nil
}

// Remove deletes the file behind a URL path previously returned by
// SaveBase64. Unknown paths are ignored.
func (s *MediaStore) Remove(urlPath string) error {
	rel, ok := strings.CutPrefix(urlPath, "/media/")
	if !ok || strings.Contains(rel, "..") {
		return nil
	}
	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove media file: %w", err)
	}
	return nil
}

// Root returns the media root directory for static file serving.
func (s *MediaStore) Root() string {
	return s.root
}

func randomName() string {
	buf := make([]byte, 16)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
