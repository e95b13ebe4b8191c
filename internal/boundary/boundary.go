// Package boundary loads region boundary polygons and joins them with the
// per-region tier layer into a GeoJSON choropleth.
package boundary

import (
	"sort"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/riskmap/internal/model"
)

// DefaultNameField is the attribute holding the region name.
const DefaultNameField = "name"

// Region is one named boundary.
type Region struct {
	Name     string // normalized join key
	Geometry geom.T
}

// Collection is an immutable set of boundaries keyed by normalized name.
type Collection struct {
	regions []Region
	index   map[string]int
}

// NewCollection builds a collection. Names are normalized; when a name
// repeats, the later geometry replaces the earlier one.
func NewCollection(regions []Region) *Collection {
	c := &Collection{index: make(map[string]int, len(regions))}
	for _, r := range regions {
		r.Name = model.NormalizeRegion(r.Name)
		if r.Name == "" {
			continue
		}
		if i, ok := c.index[r.Name]; ok {
			c.regions[i] = r
			continue
		}
		c.index[r.Name] = len(c.regions)
		c.regions = append(c.regions, r)
	}
	sort.SliceStable(c.regions, func(i, j int) bool { return c.regions[i].Name < c.regions[j].Name })
	for i, r := range c.regions {
		c.index[r.Name] = i
	}
	return c
}

// Len returns the number of boundaries.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.regions)
}

// Names returns the boundary names in sorted order.
func (c *Collection) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.regions))
	for i, r := range c.regions {
		out[i] = r.Name
	}
	return out
}

// Get looks up a boundary by region name.
func (c *Collection) Get(name string) (Region, bool) {
	if c == nil {
		return Region{}, false
	}
	i, ok := c.index[model.NormalizeRegion(name)]
	if !ok {
		return Region{}, false
	}
	return c.regions[i], true
}

// Bounds returns the extent of all geometries, or nil for an empty
// collection.
func (c *Collection) Bounds() *geom.Bounds {
	if c.Len() == 0 {
		return nil
	}
	b := geom.NewBounds(geom.XY)
	for _, r := range c.regions {
		if r.Geometry != nil {
			b.Extend(r.Geometry)
		}
	}
	return b
}
