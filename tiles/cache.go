package tiles

import (
	"image"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// CachingLoader wraps a Loader with an LRU cache of decoded images, so that
// tiles shared by neighbouring renders are not decoded again. Not safe for
// concurrent use; give each worker its own.
type CachingLoader struct {
	loader     Loader
	maxEntries int
	images     *orderedmap.OrderedMap[TileKey, image.Image]
}

func NewCachingLoader(loader Loader, maxEntries int) *CachingLoader {
	return &CachingLoader{
		loader:     loader,
		maxEntries: maxEntries,
		images:     orderedmap.New[TileKey, image.Image](),
	}
}

func (c *CachingLoader) LoadTile(key TileKey) (image.Image, error) {
	if img, ok := c.images.Get(key); ok {
		_ = c.images.MoveToBack(key)
		return img, nil
	}
	img, err := c.loader.LoadTile(key)
	if err != nil {
		return nil, err
	}
	c.images.Set(key, img)
	for c.images.Len() > c.maxEntries {
		oldest := c.images.Oldest()
		_, _ = c.images.Delete(oldest.Key)
	}
	return img, nil
}

// Len returns the number of cached images.
func (c *CachingLoader) Len() int {
	return c.images.Len()
}
