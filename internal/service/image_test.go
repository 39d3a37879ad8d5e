package service

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/backend/internal/storage"
)

func TestDecodeDataURI(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)

	raw, ext, err := decodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, payload, raw)
	assert.Equal(t, "png", ext)
}

func TestDecodeDataURIRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"plain text",
		"data:text/plain;base64,aGVsbG8=",
		"data:image/png;base64,%%%not-base64%%%",
		"data:image/png",
	}
	for _, input := range cases {
		_, _, err := decodeDataURI(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestStoreRecipeImage(t *testing.T) {
	mediaRoot := t.TempDir()
	images := NewImageService(storage.NewLocalStore(mediaRoot, "/media"))
	ctx := context.Background()

	url, err := images.StoreRecipeImage(ctx, pngDataURI())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/media/recipes/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	onDisk := filepath.Join(mediaRoot, strings.TrimPrefix(url, "/media/"))
	_, err = os.Stat(onDisk)
	require.NoError(t, err)

	require.NoError(t, images.DeleteStored(ctx, url))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))
}

func TestStoreRecipeImageInvalidInput(t *testing.T) {
	images := NewImageService(storage.NewLocalStore(t.TempDir(), "/media"))

	_, err := images.StoreRecipeImage(context.Background(), "not a data uri")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestDeleteStoredIgnoresForeignURLs(t *testing.T) {
	images := NewImageService(storage.NewLocalStore(t.TempDir(), "/media"))

	assert.NoError(t, images.DeleteStored(context.Background(), "https://example.com/other.png"))
	assert.NoError(t, images.DeleteStored(context.Background(), "/media/recipes/missing.png"))
}
