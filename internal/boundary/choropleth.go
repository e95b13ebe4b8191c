package boundary

import (
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/riskmap/internal/dashboard"
)

// Choropleth joins every boundary with its layer entry. Boundaries with no
// data get the Unknown tier and neutral color. Layer regions without a
// boundary are returned as unmatched and logged. The collection's extent is
// set as the bbox.
func (c *Collection) Choropleth(layer dashboard.Layer) (*geojson.FeatureCollection, []string) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, c.Len())}
	if c == nil {
		return fc, unmatched(c, layer)
	}
	fc.BBox = c.Bounds()

	for _, r := range c.regions {
		rt := layer.Lookup(r.Name)
		tier, _ := rt.Tier.MarshalText()
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       r.Name,
			Geometry: r.Geometry,
			Properties: map[string]any{
				"name":        r.Name,
				"total":       rt.Total,
				"tier":        string(tier),
				"label":       rt.Label,
				"description": rt.Description,
				"color":       rt.Color,
			},
		})
	}

	missing := unmatched(c, layer)
	if len(missing) > 0 {
		zap.L().Warn("boundary: regions without boundaries",
			zap.Strings("regions", missing),
		)
	}
	return fc, missing
}

func unmatched(c *Collection, layer dashboard.Layer) []string {
	var out []string
	for _, rt := range layer.Sorted() {
		if _, ok := c.Get(rt.Region); !ok {
			out = append(out, rt.Region)
		}
	}
	return out
}
