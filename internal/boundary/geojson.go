package boundary

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// Load reads boundaries from a shapefile (.shp), a zipped shapefile bundle
// (.zip) or a GeoJSON (.geojson, .json) file.
func Load(path, nameField string) (*Collection, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return LoadShapefile(path, nameField)
	case ".zip":
		return LoadZippedShapefile(path, nameField)
	case ".geojson", ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "boundary: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return LoadGeoJSON(f, nameField)
	default:
		return nil, eris.Errorf("boundary: unsupported file type %q", filepath.Ext(path))
	}
}

// LoadGeoJSON reads polygon boundaries from a GeoJSON FeatureCollection.
// Features without a name property or without polygonal geometry are
// skipped.
func LoadGeoJSON(r io.Reader, nameField string) (*Collection, error) {
	var fc geojson.FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, eris.Wrap(err, "boundary: decode geojson")
	}
	if nameField == "" {
		nameField = DefaultNameField
	}

	var regions []Region
	var skipped int
	for _, f := range fc.Features {
		name := propertyString(f.Properties, nameField)
		if name == "" || f.Geometry == nil {
			skipped++
			continue
		}
		switch g := f.Geometry.(type) {
		case *geom.Polygon:
			mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
			if err := mp.Push(g); err != nil {
				skipped++
				continue
			}
			regions = append(regions, Region{Name: name, Geometry: mp})
		case *geom.MultiPolygon:
			regions = append(regions, Region{Name: name, Geometry: g})
		default:
			skipped++
		}
	}

	if skipped > 0 {
		zap.L().Debug("boundary: skipped geojson features", zap.Int("skipped", skipped))
	}
	return NewCollection(regions), nil
}

// propertyString finds key in props case-insensitively and formats it.
func propertyString(props map[string]any, key string) string {
	v, ok := props[key]
	if !ok {
		for k, pv := range props {
			if strings.EqualFold(k, key) {
				v, ok = pv, true
				break
			}
		}
	}
	if !ok || v == nil {
		return ""
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
