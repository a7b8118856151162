// Package weather provides weather lookups for the crop recommender.
package weather

import (
	"context"

	"github.com/krishimitra/krishi-agent/internal/domain"
)

// StaticProvider returns a fixed snapshot regardless of coordinates.
// It stands in until a real weather integration lands.
// TODO: replace with an OpenWeatherMap-backed provider.
type StaticProvider struct {
	Snap domain.WeatherSnapshot
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		Snap: domain.WeatherSnapshot{
			Location: "your area",
			TempC:    26,
			Humidity: 65,
		},
	}
}

func (p *StaticProvider) Snapshot(ctx context.Context, latitude, longitude float64) (domain.WeatherSnapshot, error) {
	return p.Snap, nil
}
