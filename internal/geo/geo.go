package geo

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// BoundingBox is a rectangular region on the Earth's surface.
// Coordinates are degrees; min values must not exceed max values.
type BoundingBox struct {
	MinLat float64 `json:"minLat" validate:"gte=-90,lte=90,ltefield=MaxLat"`
	MaxLat float64 `json:"maxLat" validate:"gte=-90,lte=90"`
	MinLon float64 `json:"minLon" validate:"gte=-180,lte=180,ltefield=MaxLon"`
	MaxLon float64 `json:"maxLon" validate:"gte=-180,lte=180"`
}

// Validate checks coordinate ranges and min/max ordering.
func (b BoundingBox) Validate() error {
	if err := validate.Struct(b); err != nil {
		return fmt.Errorf("invalid bounding box: %w", err)
	}
	return nil
}

// Contains reports whether the point lies inside the box (borders included).
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// CityRef identifies one city returned by the area search.
type CityRef struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}
