package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"syscall"

	"github.com/carlmjohnson/versioninfo"

	"github.com/iancoleman/strcase"
	"github.com/pdok/rewarp/grid"
	"github.com/pdok/rewarp/tiles"
	"github.com/pdok/rewarp/warp"
	"github.com/urfave/cli/v2"
)

const SOURCE string = `sourceGpkg`
const SOURCEDIR string = `sourceDir`
const TARGET string = `targetGpkg`
const OVERWRITE string = `overwrite`
const SOURCEGRID string = `sourceGrid`
const TARGETGRID string = `targetGrid`
const TILEMATRICES string = `tilematrices`
const TABLE string = `table`
const ERRORTHRESHOLD string = `errorthreshold`
const MAXDEPTH string = `maxdepth`
const WORKERS string = `workers`
const DEBUG string = `debug`

const tileCacheSize = 64

//nolint:funlen
func main() {
	app := cli.NewApp()
	app.Name = "rewarp"
	app.Usage = "A Golang raster tile reprojection application"
	app.Version = versioninfo.Short()

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    SOURCE,
			Aliases: []string{"s"},
			Usage:   "Source GPKG with a raster tile pyramid",
			EnvVars: []string{strcase.ToScreamingSnake(SOURCE)},
		},
		&cli.StringFlag{
			Name:    SOURCEDIR,
			Aliases: []string{"d"},
			Usage:   "Source directory with z/x/y.png tiles. Alternative to a source GPKG",
			EnvVars: []string{strcase.ToScreamingSnake(SOURCEDIR)},
		},
		&cli.StringFlag{
			Name:     TARGET,
			Aliases:  []string{"t"},
			Usage:    "Target GPKG",
			Required: true,
			EnvVars:  []string{strcase.ToScreamingSnake(TARGET)},
		},
		&cli.BoolFlag{
			Name:     OVERWRITE,
			Aliases:  []string{"o"},
			Usage:    "Overwrite the target GPKG if it exists",
			Required: false,
			EnvVars:  []string{strcase.ToScreamingSnake(OVERWRITE)},
		},
		&cli.StringFlag{
			Name:    SOURCEGRID,
			Aliases: []string{"sg"},
			Usage:   `ID of a (built-in) tile grid the source pyramid is in. E.g.: WebMercatorQuad`,
			Value:   "WebMercatorQuad",
			EnvVars: []string{strcase.ToScreamingSnake(SOURCEGRID)},
		},
		&cli.StringFlag{
			Name:    TARGETGRID,
			Aliases: []string{"tg"},
			Usage:   `ID of a (built-in) tile grid to warp into. E.g.: WorldCRS84Quad`,
			Value:   "WorldCRS84Quad",
			EnvVars: []string{strcase.ToScreamingSnake(TARGETGRID)},
		},
		&cli.StringFlag{
			Name:     TILEMATRICES,
			Aliases:  []string{"z"},
			Usage:    `Zoom levels of the target grid to render. JSON array of integers. E.g.: [0,1,2]`,
			Required: true,
			EnvVars:  []string{strcase.ToScreamingSnake(TILEMATRICES)},
		},
		&cli.StringFlag{
			Name:    TABLE,
			Usage:   "Name of the tile pyramid table in the source and target GPKG",
			Value:   "tiles",
			EnvVars: []string{strcase.ToScreamingSnake(TABLE)},
		},
		&cli.Float64Flag{
			Name:    ERRORTHRESHOLD,
			Aliases: []string{"e"},
			Usage:   "Acceptable reprojection error in source units. 0 means half a source pixel",
			EnvVars: []string{strcase.ToScreamingSnake(ERRORTHRESHOLD)},
		},
		&cli.IntFlag{
			Name:    MAXDEPTH,
			Usage:   "Mesh subdivision cap. 0 means the default cap",
			EnvVars: []string{strcase.ToScreamingSnake(MAXDEPTH)},
		},
		&cli.IntFlag{
			Name:    WORKERS,
			Aliases: []string{"w"},
			Usage:   "How many tiles are warped in parallel",
			Value:   4,
			EnvVars: []string{strcase.ToScreamingSnake(WORKERS)},
		},
		&cli.BoolFlag{
			Name:    DEBUG,
			Usage:   "Draw the triangulation outlines over the rendered tiles",
			EnvVars: []string{strcase.ToScreamingSnake(DEBUG)},
		},
	}

	app.Action = func(c *cli.Context) error {
		sourceGrid, err := grid.LoadEmbeddedTileGrid(c.String(SOURCEGRID))
		if err != nil {
			return err
		}
		targetGrid, err := grid.LoadEmbeddedTileGrid(c.String(TARGETGRID))
		if err != nil {
			return err
		}
		var zooms []int
		err = json.Unmarshal([]byte(c.String(TILEMATRICES)), &zooms)
		if err != nil {
			return err
		}

		job, err := warp.NewJob(&sourceGrid, &targetGrid)
		if err != nil {
			return err
		}
		job.ErrorThreshold = c.Float64(ERRORTHRESHOLD)
		job.MaxDepth = c.Int(MAXDEPTH)
		job.Debug = c.Bool(DEBUG)

		newLoader, err := makeLoaderFactory(c)
		if err != nil {
			return err
		}

		if c.Bool(OVERWRITE) {
			removeTarget(c.String(TARGET))
		}
		target, err := tiles.NewGeopackageTarget(c.String(TARGET), c.String(TABLE), &targetGrid, targetSRSID(&targetGrid))
		if err != nil {
			log.Fatalf("error initializing the target GeoPackage: %s", err)
		}
		defer target.Close()

		log.Println("=== start warping ===")
		err = warp.Run(job, newLoader, zooms, target.WriteTile, c.Int(WORKERS))
		if err != nil {
			return err
		}
		log.Println("=== done warping ===")
		return nil
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func makeLoaderFactory(c *cli.Context) (func() tiles.Loader, error) {
	if dir := c.String(SOURCEDIR); dir != "" {
		return func() tiles.Loader {
			return tiles.NewCachingLoader(tiles.DirLoader{Root: dir}, tileCacheSize)
		}, nil
	}
	file := c.String(SOURCE)
	if file == "" {
		return nil, fmt.Errorf(`either --%v or --%v is required`, SOURCE, SOURCEDIR)
	}
	_, err := os.Stat(file)
	if os.IsNotExist(err) {
		log.Fatalf("error opening source GeoPackage: %s", err)
	}
	table := c.String(TABLE)
	return func() tiles.Loader {
		source, err := tiles.NewGeopackageLoader(file, table)
		if err != nil {
			log.Fatalf("error opening source GeoPackage: %s", err)
		}
		return tiles.NewCachingLoader(source, tileCacheSize)
	}, nil
}

func removeTarget(targetPath string) {
	err := os.Remove(targetPath)
	var pathError *os.PathError
	if err != nil {
		if !(errors.As(err, &pathError) && errors.Is(pathError.Err, syscall.ENOENT)) {
			log.Fatalf("could not remove target file: %e", err)
		}
	}
}

// targetSRSID derives the srs_id to record in the target GPKG from the
// grid's CRS code, 0 when it has no numeric authority code.
func targetSRSID(g *grid.TileGrid) int {
	var id int
	_, err := fmt.Sscanf(g.CRS, "EPSG:%d", &id)
	if err != nil {
		return 0
	}
	return id
}
