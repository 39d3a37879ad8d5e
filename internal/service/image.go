package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/foodgram/backend/internal/storage"
)

// ImageService decodes uploaded recipe images and hands them to the file
// store under a freshly generated name.
type ImageService struct {
	files storage.FileStore
}

func NewImageService(files storage.FileStore) *ImageService {
	return &ImageService{files: files}
}

// decodeDataURI splits a "data:image/<ext>;base64,<payload>" string into the
// raw bytes and the declared extension.
func decodeDataURI(data string) ([]byte, string, error) {
	if !strings.HasPrefix(data, "data:image/") {
		return nil, "", fmt.Errorf("not an image data URI")
	}
	header, payload, ok := strings.Cut(data, ";base64,")
	if !ok {
		return nil, "", fmt.Errorf("missing base64 payload")
	}
	ext := header[strings.LastIndex(header, "/")+1:]
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", err
	}
	return raw, ext, nil
}

// StoreRecipeImage decodes a data URI and stores the bytes under
// recipes/<uuid>.<ext>, returning the stored URL.
func (s *ImageService) StoreRecipeImage(ctx context.Context, data string) (string, error) {
	raw, ext, err := decodeDataURI(data)
	if err != nil {
		return "", newValidationError("image", "expected a data:image/...;base64 string")
	}
	name := fmt.Sprintf("recipes/%s.%s", uuid.New().String(), ext)
	return s.files.Save(ctx, name, raw, "image/"+ext)
}

// DeleteStored removes a previously stored image given the URL returned by
// StoreRecipeImage. Unknown URLs are ignored.
func (s *ImageService) DeleteStored(ctx context.Context, url string) error {
	idx := strings.LastIndex(url, "recipes/")
	if idx < 0 {
		return nil
	}
	return s.files.Delete(ctx, url[idx:])
}
