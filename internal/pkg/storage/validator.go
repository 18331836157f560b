package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidMimeType = errors.New("file type not allowed")

// imageExtensions lists the accepted upload content types
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// GetExtensionForMime returns the file extension for an image MIME type
func GetExtensionForMime(mimeType string) (string, error) {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	ext, ok := imageExtensions[mimeType]
	if !ok {
		return "", ErrInvalidMimeType
	}
	return ext, nil
}

// PhotoCardPrefix is the key prefix every card image of userID lives under
func PhotoCardPrefix(userID int64) string {
	return fmt.Sprintf("public/users/%d/photocards/", userID)
}

// NewPhotoCardKey returns a fresh object key for a card image
func NewPhotoCardKey(userID int64, ext string) string {
	return PhotoCardPrefix(userID) + uuid.NewString() + ext
}
