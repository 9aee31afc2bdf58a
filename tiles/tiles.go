// Package tiles loads source tile images and assembles them, with their
// source-projection extents, into the source list a render consumes.
// Loaders read what exists and report what doesn't; there is no fetching
// policy here.
package tiles

import (
	"errors"
	"fmt"
	"image"
)

// TileKey addresses one tile in a tile grid.
type TileKey struct {
	Z, Col, Row int
}

func (k TileKey) String() string {
	return fmt.Sprintf("%d/%d/%d", k.Z, k.Col, k.Row)
}

// ErrNoTile is returned by loaders for tiles that do not exist. Missing
// tiles are normal at the edges of a partial pyramid and are skipped.
var ErrNoTile = errors.New("no such tile")

// Loader reads tile images from some store.
type Loader interface {
	LoadTile(key TileKey) (image.Image, error)
}
