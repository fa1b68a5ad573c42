package service

import (
	"image"
	"strings"

	"github.com/unexca/student-docs-api/pkg/render"
)

// DefaultProvider supplies the values used when an optional input is missing.
// Renderers consult it instead of failing on a role miss or an absent photo.
type DefaultProvider interface {
	Role() string
	Photo() (image.Image, error)
}

// AssetDefaults serves the configured default role and placeholder photo.
type AssetDefaults struct {
	role      string
	photoPath string
	assets    *render.AssetCache
}

// NewAssetDefaults builds a provider backed by the asset cache.
func NewAssetDefaults(role, photoPath string, assets *render.AssetCache) *AssetDefaults {
	role = strings.TrimSpace(role)
	if role == "" {
		role = "ESTUDIANTE"
	}
	if assets == nil {
		assets = render.SharedAssets()
	}
	return &AssetDefaults{role: role, photoPath: photoPath, assets: assets}
}

// Role returns the fallback role.
func (d *AssetDefaults) Role() string {
	return d.role
}

// Photo returns the placeholder photo. A missing file is an asset error.
func (d *AssetDefaults) Photo() (image.Image, error) {
	return d.assets.Image(d.photoPath)
}
