// Package crop produces seasonal crop recommendations from current
// weather. The model is asked for strict JSON; when it cannot deliver,
// a local suitability table keeps the endpoint answering.
package crop

import (
	"context"
	"fmt"
	"time"

	"github.com/krishimitra/krishi-agent/internal/domain"
	"github.com/krishimitra/krishi-agent/internal/observability"
	"github.com/krishimitra/krishi-agent/internal/retry"
)

// Recommendation is one suggested crop, shaped for direct rendering.
type Recommendation struct {
	Name         string `json:"name"`
	Icon         string `json:"icon"`
	Profit       string `json:"profit"`
	PlantingTime string `json:"plantingTime"`
	Duration     string `json:"duration"`
	Water        string `json:"water"`
	Reason       string `json:"reason"`
}

// cropProfile is a local suitability row used when the model cannot
// produce usable JSON.
type cropProfile struct {
	rec         Recommendation
	minTempC    float64
	maxTempC    float64
	minHumidity float64
	maxHumidity float64
}

var localCrops = []cropProfile{
	{
		rec: Recommendation{
			Name: "Wheat (गेहूं)", Icon: "🌾", Profit: "Medium",
			PlantingTime: "October-December", Duration: "120-150 days",
			Water: "Moderate", Reason: "Cool and dry weather suits wheat well.",
		},
		minTempC: 10, maxTempC: 25, minHumidity: 30, maxHumidity: 70,
	},
	{
		rec: Recommendation{
			Name: "Rice (धान)", Icon: "🌾", Profit: "Medium",
			PlantingTime: "June-July", Duration: "100-150 days",
			Water: "High", Reason: "Warm and humid weather suits rice well.",
		},
		minTempC: 20, maxTempC: 35, minHumidity: 60, maxHumidity: 90,
	},
	{
		rec: Recommendation{
			Name: "Maize (मक्का)", Icon: "🌽", Profit: "High",
			PlantingTime: "June-July", Duration: "90-110 days",
			Water: "Moderate", Reason: "Mild weather with some moisture suits maize.",
		},
		minTempC: 18, maxTempC: 30, minHumidity: 40, maxHumidity: 80,
	},
}

type Service struct {
	model   domain.ModelClient
	weather domain.WeatherProvider

	retryOpts []retry.Option
	now       func() time.Time
}

type Option func(*Service)

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRetryOptions sets the retry policy for model calls.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(s *Service) { s.retryOpts = opts }
}

func NewService(model domain.ModelClient, weather domain.WeatherProvider, opts ...Option) *Service {
	s := &Service{model: model, weather: weather, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Recommend returns crops suited to the current weather at the given
// coordinates. It never returns an empty list on model failure: the
// local table answers instead, filtered by temperature and humidity.
func (s *Service) Recommend(ctx context.Context, latitude, longitude float64) ([]Recommendation, error) {
	w, err := s.weather.Snapshot(ctx, latitude, longitude)
	if err != nil {
		return nil, fmt.Errorf("fetching weather: %w", err)
	}

	prompt := fmt.Sprintf(`You are an agricultural advisor for small Indian farmers.
Current conditions near %s: temperature %.1f C, humidity %.0f%%, month %s.
Recommend 3 to 5 crops to plant now.

Respond ONLY with a JSON array. Each element must have exactly these keys:
"name" (crop name with Hindi name in parentheses), "icon" (a single emoji),
"profit" (Low, Medium or High), "plantingTime", "duration", "water"
(Low, Moderate or High) and "reason" (one short, simple sentence).`,
		w.Location, w.TempC, w.Humidity, s.now().Month())

	var recs []Recommendation
	opts := append([]retry.Option{retry.WithClassifier(domain.Retryable)}, s.retryOpts...)
	err = retry.Do(ctx, func(ctx context.Context) error {
		recs = nil
		return s.model.GenerateJSON(ctx, []domain.Turn{domain.NewTurn(domain.RoleUser, prompt)}, &recs)
	}, opts...)

	log := observability.LoggerFromContext(ctx)
	if err != nil || len(recs) == 0 {
		if err != nil {
			log.Warn("model recommendations unavailable, using local table", "error", err)
		}
		return localFallback(w), nil
	}

	log.Info("crop recommendations generated", "count", len(recs))
	return recs, nil
}

// localFallback filters the suitability table by the observed weather.
// If nothing matches, the whole table is returned rather than nothing.
func localFallback(w domain.WeatherSnapshot) []Recommendation {
	out := make([]Recommendation, 0, len(localCrops))
	for _, c := range localCrops {
		if w.TempC >= c.minTempC && w.TempC <= c.maxTempC &&
			w.Humidity >= c.minHumidity && w.Humidity <= c.maxHumidity {
			out = append(out, c.rec)
		}
	}
	if len(out) == 0 {
		for _, c := range localCrops {
			out = append(out, c.rec)
		}
	}
	return out
}
