package scene

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrUnknownAsset = errors.New("unknown asset")

// AssetKey names an asset in the manifest
type AssetKey string

// Texture is a loaded texture handle
type Texture struct {
	Key  AssetKey `json:"key"`
	Path string   `json:"path"`
}

// TextureCache maps asset keys to texture handles. Lookups are idempotent: the
// same key always yields the same *Texture.
type TextureCache struct {
	manifest map[AssetKey]string
	loaded   map[AssetKey]*Texture
	mu       sync.RWMutex
}

// NewTextureCache creates a cache that accepts only keys present in manifest
func NewTextureCache(manifest map[AssetKey]string) *TextureCache {
	m := make(map[AssetKey]string, len(manifest))
	for k, v := range manifest {
		m[k] = v
	}
	return &TextureCache{
		manifest: m,
		loaded:   make(map[AssetKey]*Texture),
	}
}

// Load returns the texture for key, loading it on first use
func (c *TextureCache) Load(key AssetKey) (*Texture, error) {
	c.mu.RLock()
	if tex, ok := c.loaded[key]; ok {
		c.mu.RUnlock()
		return tex, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if tex, ok := c.loaded[key]; ok {
		return tex, nil
	}
	path, ok := c.manifest[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, key)
	}
	tex := &Texture{Key: key, Path: path}
	c.loaded[key] = tex
	return tex, nil
}

// Preload loads every manifest entry, returning the first failure
func (c *TextureCache) Preload(keys []AssetKey) error {
	for _, k := range keys {
		if _, err := c.Load(k); err != nil {
			return err
		}
	}
	return nil
}

// Loaded returns the number of distinct textures loaded so far
func (c *TextureCache) Loaded() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.loaded)
}

// Keys returns the manifest keys in sorted order
func (c *TextureCache) Keys() []AssetKey {
	keys := make([]AssetKey, 0, len(c.manifest))
	for k := range c.manifest {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
