package space

import (
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"

	"github.com/superxueyizou/MoPlaT/geom"
)

// LoadGeoJSON adds the obstacles of a GeoJSON file and returns how many were added.
// Polygons contribute their outer ring and line strings a thin wall per segment.
// Coordinates are read as planar meters.
func (s *Space) LoadGeoJSON(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrap(err, "obstacles")
	}
	outlines, err := ParseGeoJSON(data)
	if err != nil {
		return 0, errors.Wrapf(err, "obstacles %s", path)
	}
	for i, pts := range outlines {
		if _, err := s.AddObstacle(pts); err != nil {
			return i, errors.Wrapf(err, "obstacles %s", path)
		}
	}
	return len(outlines), nil
}

// ParseGeoJSON returns the obstacle outlines of a GeoJSON feature collection,
// feature or bare geometry.
func ParseGeoJSON(data []byte) ([][]geom.Vec2, error) {
	var geoms []orb.Geometry
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil && fc.Type == "FeatureCollection" {
		for _, f := range fc.Features {
			geoms = append(geoms, f.Geometry)
		}
	} else if f, err := geojson.UnmarshalFeature(data); err == nil && f.Type == "Feature" {
		geoms = append(geoms, f.Geometry)
	} else {
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, errors.Wrap(err, "geojson")
		}
		geoms = append(geoms, g.Geometry())
	}

	var out [][]geom.Vec2
	for _, g := range geoms {
		out = append(out, outlines(g)...)
	}
	return out, nil
}

// outlines returns the obstacle outlines contained in g.
func outlines(g orb.Geometry) [][]geom.Vec2 {
	var out [][]geom.Vec2
	switch g := g.(type) {
	case orb.Polygon:
		if len(g) > 0 {
			out = append(out, vecs(g[0]))
		}
	case orb.MultiPolygon:
		for _, p := range g {
			out = append(out, outlines(p)...)
		}
	case orb.Ring:
		out = append(out, vecs(g))
	case orb.LineString:
		for i := 1; i < len(g); i++ {
			out = append(out, vecs(g[i-1:i+1]))
		}
	case orb.MultiLineString:
		for _, l := range g {
			out = append(out, outlines(l)...)
		}
	case orb.Collection:
		for _, c := range g {
			out = append(out, outlines(c)...)
		}
	}
	return out
}

func vecs(ps []orb.Point) []geom.Vec2 {
	v := make([]geom.Vec2, len(ps))
	for i, p := range ps {
		v[i] = geom.Vec2{X: p.X(), Y: p.Y()}
	}
	return v
}
