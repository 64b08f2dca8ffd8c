package busmap

// GeoJSON rendering of the consolidated network. Each feature becomes
// a LineString; everything else rides along as properties.

type GeoJSONGeometry struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

type GeoJSONProperties struct {
	ID          string       `json:"id"`
	RouteName   string       `json:"route_name"`
	SearchLabel string       `json:"search_label"`
	Description string       `json:"description"`
	StopCount   int          `json:"stop_count"`
	StopDetails []StopDetail `json:"stop_details"`
	Kind        string       `json:"kind"`
}

type GeoJSONFeature struct {
	Type       string            `json:"type"`
	Geometry   GeoJSONGeometry   `json:"geometry"`
	Properties GeoJSONProperties `json:"properties"`
}

type GeoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	Features []GeoJSONFeature `json:"features"`
}

// FeatureCollection wraps consolidated features as a GeoJSON
// FeatureCollection, preserving their order.
func FeatureCollection(features []Feature) GeoJSONFeatureCollection {
	fc := GeoJSONFeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]GeoJSONFeature, 0, len(features)),
	}

	for _, f := range features {
		fc.Features = append(fc.Features, GeoJSONFeature{
			Type: "Feature",
			Geometry: GeoJSONGeometry{
				Type:        "LineString",
				Coordinates: f.Geometry,
			},
			Properties: GeoJSONProperties{
				ID:          f.ID,
				RouteName:   f.RouteName,
				SearchLabel: f.SearchLabel,
				Description: f.Description,
				StopCount:   f.StopCount,
				StopDetails: f.StopDetails,
				Kind:        f.Kind,
			},
		})
	}

	return fc
}
