package tiles

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // jpeg tile_data blobs are common in the wild
	"image/png"
	"log"

	"github.com/go-spatial/geom/encoding/gpkg"
	"github.com/pdok/rewarp/grid"
)

// GeopackageLoader reads raster tiles from a GeoPackage tile pyramid table.
type GeopackageLoader struct {
	handle *gpkg.Handle
	table  string
}

func NewGeopackageLoader(file, table string) (*GeopackageLoader, error) {
	handle, err := gpkg.Open(file)
	if err != nil {
		return nil, fmt.Errorf(`error opening GeoPackage: %w`, err)
	}
	return &GeopackageLoader{handle: handle, table: table}, nil
}

func (l *GeopackageLoader) LoadTile(key TileKey) (image.Image, error) {
	query := fmt.Sprintf(
		`SELECT tile_data FROM "%v" WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?;`, l.table)
	row := l.handle.QueryRow(query, key.Z, key.Col, key.Row)

	var blob []byte
	err := row.Scan(&blob)
	if err != nil {
		// sql.ErrNoRows included: an absent tile is not an error
		return nil, ErrNoTile
	}
	img, _, err := image.Decode(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf(`could not decode tile %v: %w`, key, err)
	}
	return img, nil
}

func (l *GeopackageLoader) Close() error {
	return l.handle.Close()
}

// GeopackageTarget writes rendered tiles into a GeoPackage tile pyramid.
// NewGeopackageTarget creates the table and the gpkg_contents/
// gpkg_tile_matrix_set/gpkg_tile_matrix bookkeeping.
type GeopackageTarget struct {
	handle *gpkg.Handle
	table  string
	grid   *grid.TileGrid
	srsID  int
}

func NewGeopackageTarget(file, table string, g *grid.TileGrid, srsID int) (*GeopackageTarget, error) {
	handle, err := gpkg.Open(file)
	if err != nil {
		return nil, fmt.Errorf(`error opening target GeoPackage: %w`, err)
	}
	t := &GeopackageTarget{handle: handle, table: table, grid: g, srsID: srsID}
	err = t.createTables()
	if err != nil {
		handle.Close()
		return nil, err
	}
	return t, nil
}

func (t *GeopackageTarget) createTables() error {
	ext := t.grid.Extent
	stmts := []struct {
		query string
		args  []interface{}
	}{
		// go-spatial/geom's gpkg bootstrap covers the feature side of the
		// GeoPackage standard; the tile matrix tables have to be created here
		{query: `CREATE TABLE IF NOT EXISTS gpkg_tile_matrix_set (
			table_name TEXT NOT NULL PRIMARY KEY,
			srs_id INTEGER NOT NULL,
			min_x DOUBLE NOT NULL,
			min_y DOUBLE NOT NULL,
			max_x DOUBLE NOT NULL,
			max_y DOUBLE NOT NULL);`},
		{query: `CREATE TABLE IF NOT EXISTS gpkg_tile_matrix (
			table_name TEXT NOT NULL,
			zoom_level INTEGER NOT NULL,
			matrix_width INTEGER NOT NULL,
			matrix_height INTEGER NOT NULL,
			tile_width INTEGER NOT NULL,
			tile_height INTEGER NOT NULL,
			pixel_x_size DOUBLE NOT NULL,
			pixel_y_size DOUBLE NOT NULL,
			CONSTRAINT pk_ttm PRIMARY KEY (table_name, zoom_level));`},
		{query: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%v" (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			zoom_level INTEGER NOT NULL,
			tile_column INTEGER NOT NULL,
			tile_row INTEGER NOT NULL,
			tile_data BLOB NOT NULL,
			UNIQUE (zoom_level, tile_column, tile_row));`, t.table)},
		{
			query: `INSERT OR REPLACE INTO gpkg_contents
				(table_name, data_type, identifier, min_x, min_y, max_x, max_y, srs_id)
				VALUES(?, 'tiles', ?, ?, ?, ?, ?, ?);`,
			args: []interface{}{t.table, t.table, ext[0], ext[1], ext[2], ext[3], t.srsID},
		},
		{
			query: `INSERT OR REPLACE INTO gpkg_tile_matrix_set
				(table_name, srs_id, min_x, min_y, max_x, max_y)
				VALUES(?, ?, ?, ?, ?, ?);`,
			args: []interface{}{t.table, t.srsID, ext[0], ext[1], ext[2], ext[3]},
		},
	}
	for _, stmt := range stmts {
		_, err := t.handle.Exec(stmt.query, stmt.args...)
		if err != nil {
			return fmt.Errorf(`error preparing target GeoPackage: %w`, err)
		}
	}

	for z := range t.grid.Resolutions {
		cols, rows, err := t.grid.MatrixSize(z)
		if err != nil {
			return err
		}
		res := t.grid.Resolutions[z]
		_, err = t.handle.Exec(`INSERT OR REPLACE INTO gpkg_tile_matrix
			(table_name, zoom_level, matrix_width, matrix_height, tile_width, tile_height, pixel_x_size, pixel_y_size)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?);`,
			t.table, z, cols, rows, t.grid.TileSize, t.grid.TileSize, res, res)
		if err != nil {
			return fmt.Errorf(`error preparing target GeoPackage: %w`, err)
		}
	}
	return nil
}

// WriteTile PNG-encodes and stores one rendered tile.
func (t *GeopackageTarget) WriteTile(key TileKey, img *image.RGBA) error {
	var buf bytes.Buffer
	err := png.Encode(&buf, img)
	if err != nil {
		return fmt.Errorf(`could not encode tile %v: %w`, key, err)
	}
	_, err = t.handle.Exec(fmt.Sprintf(
		`INSERT OR REPLACE INTO "%v" (zoom_level, tile_column, tile_row, tile_data) VALUES(?, ?, ?, ?);`, t.table),
		key.Z, key.Col, key.Row, buf.Bytes())
	if err != nil {
		return fmt.Errorf(`could not write tile %v: %w`, key, err)
	}
	return nil
}

func (t *GeopackageTarget) Close() {
	err := t.handle.Close()
	if err != nil {
		log.Printf("error closing target GeoPackage: %v", err)
	}
}
