// Package render holds the raster primitives used to compose ID cards.
package render

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	appErrors "github.com/unexca/student-docs-api/pkg/errors"
)

// AssetCache keeps decoded template images and parsed fonts in memory. Cached
// values are never mutated so they can be shared between renders.
type AssetCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
	fonts  map[string]*opentype.Font
}

// NewAssetCache returns an empty cache.
func NewAssetCache() *AssetCache {
	return &AssetCache{
		images: make(map[string]image.Image),
		fonts:  make(map[string]*opentype.Font),
	}
}

var shared = NewAssetCache()

// SharedAssets is the process-wide cache.
func SharedAssets() *AssetCache {
	return shared
}

// Image returns the decoded image at path, loading it on first use.
func (c *AssetCache) Image(path string) (image.Image, error) {
	c.mu.RLock()
	img, ok := c.images[path]
	c.mu.RUnlock()
	if ok {
		return img, nil
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, appErrors.AssetMissing(path, err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()
	return img, nil
}

// Font returns the parsed TrueType/OpenType font at path.
func (c *AssetCache) Font(path string) (*opentype.Font, error) {
	c.mu.RLock()
	f, ok := c.fonts[path]
	c.mu.RUnlock()
	if ok {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, appErrors.AssetMissing(path, err)
	}
	f, err = opentype.Parse(data)
	if err != nil {
		return nil, appErrors.AssetMissing(path, fmt.Errorf("parse font: %w", err))
	}

	c.mu.Lock()
	c.fonts[path] = f
	c.mu.Unlock()
	return f, nil
}

// Face builds a face of the given point size. Faces hold scratch buffers and
// must not be shared across goroutines, so one is built per render.
func (c *AssetCache) Face(path string, size float64) (font.Face, error) {
	f, err := c.Font(path)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, appErrors.AssetMissing(path, err)
	}
	return face, nil
}

// DecodePhoto decodes uploaded bytes honoring EXIF orientation.
func DecodePhoto(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, appErrors.Encode("photo", err)
	}
	return img, nil
}
