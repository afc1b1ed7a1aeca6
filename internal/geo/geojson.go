package geo

// Minimal GeoJSON types for map rendering. Only the geometries the API
// actually emits are modeled.

type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

type Feature struct {
	Type       string         `json:"type"`
	Geometry   *Geometry      `json:"geometry"`
	Properties map[string]any `json:"properties,omitempty"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

func NewFeatureCollection(features []Feature) FeatureCollection {
	if features == nil {
		features = []Feature{}
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}

// NewPoint builds a Point feature from lon/lat.
func NewPoint(lon, lat float64, props map[string]any) Feature {
	return Feature{
		Type:       "Feature",
		Geometry:   &Geometry{Type: "Point", Coordinates: []float64{lon, lat}},
		Properties: props,
	}
}

// NewLineString builds a LineString feature from [lon,lat] pairs.
func NewLineString(coords [][2]float64, props map[string]any) Feature {
	cc := make([][]float64, 0, len(coords))
	for _, c := range coords {
		cc = append(cc, []float64{c[0], c[1]})
	}
	return Feature{
		Type:       "Feature",
		Geometry:   &Geometry{Type: "LineString", Coordinates: cc},
		Properties: props,
	}
}
