package tiles

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
)

// DirLoader reads tiles from a z/col/row.png directory tree.
type DirLoader struct {
	Root string
}

func (l DirLoader) LoadTile(key TileKey) (image.Image, error) {
	path := filepath.Join(l.Root,
		strconv.Itoa(key.Z), strconv.Itoa(key.Col), strconv.Itoa(key.Row)+".png")
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, ErrNoTile
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf(`could not decode tile %v: %w`, key, err)
	}
	return img, nil
}
