package gis

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	// Registered for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// GDALProvider opens raster sources: common image formats plus Arc/Info
// ASCII grids.
type GDALProvider struct{}

// Open reads raster dimensions and returns a raster layer description.
func (GDALProvider) Open(path, name string) (*Layer, error) {
	if name == "" {
		name = LayerNameFromPath(path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return openImageRaster(path, name)
	case ".asc":
		return openASCIIGrid(path, name)
	default:
		return nil, fmt.Errorf("gdal: unsupported raster source %s", path)
	}
}

func openImageRaster(path, name string) (*Layer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gdal: %w", err)
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("gdal: decode %s: %w", path, err)
	}
	return &Layer{
		Name:      name,
		Type:      RasterLayer,
		Visible:   true,
		Source:    path,
		Provider:  "gdal",
		Width:     cfg.Width,
		Height:    cfg.Height,
		BandCount: bandCount(cfg, format),
		Extent:    Extent{XMax: float64(cfg.Width), YMax: float64(cfg.Height)},
	}, nil
}

func bandCount(cfg image.Config, format string) int {
	switch cfg.ColorModel {
	case color.GrayModel, color.Gray16Model:
		return 1
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model:
		return 4
	case color.YCbCrModel:
		return 3
	}
	if format == "gif" {
		// Paletted, expands to RGB.
		return 3
	}
	return 3
}

// openASCIIGrid parses the Arc/Info ASCII grid header: keyword/value lines
// (ncols, nrows, xllcorner, yllcorner, cellsize) ahead of the cell data.
func openASCIIGrid(path, name string) (*Layer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gdal: %w", err)
	}
	defer f.Close()

	header := make(map[string]float64)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && len(header) < 6 {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			break
		}
		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			break
		}
		header[strings.ToLower(fields[0])] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("gdal: read %s: %w", path, err)
	}
	cols, okCols := header["ncols"]
	rows, okRows := header["nrows"]
	if !okCols || !okRows {
		return nil, fmt.Errorf("gdal: %s is not an ascii grid", path)
	}
	cellsize := header["cellsize"]
	xll := header["xllcorner"]
	yll := header["yllcorner"]
	return &Layer{
		Name:      name,
		Type:      RasterLayer,
		Visible:   true,
		Source:    path,
		Provider:  "gdal",
		Width:     int(cols),
		Height:    int(rows),
		BandCount: 1,
		Extent: Extent{
			XMin: xll,
			YMin: yll,
			XMax: xll + cols*cellsize,
			YMax: yll + rows*cellsize,
		},
	}, nil
}
