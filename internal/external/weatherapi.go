package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"cropsense/internal/types"
)

// ObservationSource is the read contract the inference pipeline has against
// a weather data provider. Implementations return ErrCodeDataUnavailable
// when the provider genuinely has no reading for the requested slot, and an
// upstream error code for transport or provider failures.
type ObservationSource interface {
	Current(ctx context.Context, location string) (*types.WeatherObservation, error)
	Daily(ctx context.Context, location string, date time.Time) (*types.WeatherObservation, error)
	ObservationsRange(ctx context.Context, location string, start, end time.Time) ([]types.WeatherObservation, error)
}

// WeatherClient talks to an open-meteo style JSON forecast API.
type WeatherClient struct {
	base    *BaseClient
	baseURL string
}

// NewWeatherClient builds a provider client rooted at baseURL.
func NewWeatherClient(base *BaseClient, baseURL string) *WeatherClient {
	return &WeatherClient{base: base, baseURL: baseURL}
}

// observationDTO is the provider wire format for a single reading. Optional
// instruments arrive as nullable fields and stay pointers all the way into
// the domain type.
type observationDTO struct {
	Location      string   `json:"location"`
	Timestamp     string   `json:"timestamp"`
	TemperatureC  float64  `json:"temperature_c"`
	Humidity      float64  `json:"humidity"`
	PrecipMM      float64  `json:"precipitation_mm"`
	WindSpeedMS   *float64 `json:"wind_speed_ms"`
	UVIndex       *float64 `json:"uv_index"`
	PressureHPa   *float64 `json:"pressure_hpa"`
	VisibilityKM  *float64 `json:"visibility_km"`
}

type observationsResponse struct {
	Observations []observationDTO `json:"observations"`
}

type currentResponse struct {
	Observation *observationDTO `json:"observation"`
}

// Current fetches the latest reading for a location.
func (w *WeatherClient) Current(ctx context.Context, location string) (*types.WeatherObservation, error) {
	endpoint := fmt.Sprintf("%s/v1/current?location=%s", w.baseURL, url.QueryEscape(location))

	var payload currentResponse
	if err := w.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	if payload.Observation == nil {
		return nil, types.NewAppError(types.ErrCodeDataUnavailable,
			fmt.Sprintf("no current observation for location %s", location), nil)
	}
	obs, err := w.toDomain(*payload.Observation)
	if err != nil {
		return nil, err
	}
	return &obs, nil
}

// Daily fetches the aggregated reading for one calendar day.
func (w *WeatherClient) Daily(ctx context.Context, location string, date time.Time) (*types.WeatherObservation, error) {
	day := date.UTC().Format("2006-01-02")
	endpoint := fmt.Sprintf("%s/v1/daily?location=%s&date=%s",
		w.baseURL, url.QueryEscape(location), day)

	var payload currentResponse
	if err := w.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	if payload.Observation == nil {
		return nil, types.NewAppError(types.ErrCodeDataUnavailable,
			fmt.Sprintf("no daily observation for %s on %s", location, day), nil)
	}
	obs, err := w.toDomain(*payload.Observation)
	if err != nil {
		return nil, err
	}
	return &obs, nil
}

// ObservationsRange fetches all readings for [start, end], inclusive.
func (w *WeatherClient) ObservationsRange(ctx context.Context, location string, start, end time.Time) ([]types.WeatherObservation, error) {
	endpoint := fmt.Sprintf("%s/v1/observations?location=%s&start=%s&end=%s",
		w.baseURL, url.QueryEscape(location),
		start.UTC().Format("2006-01-02"), end.UTC().Format("2006-01-02"))

	var payload observationsResponse
	if err := w.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	out := make([]types.WeatherObservation, 0, len(payload.Observations))
	for _, dto := range payload.Observations {
		obs, err := w.toDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	return out, nil
}

func (w *WeatherClient) getJSON(ctx context.Context, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to build weather request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := w.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return types.NewAppError(types.ErrCodeDataUnavailable,
			"weather provider has no data for the requested slot", nil)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return types.NewAppError(types.ErrCodeUpstreamSourceFailure,
			fmt.Sprintf("weather provider returned %d: %s", resp.StatusCode, string(body)), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return types.NewAppError(types.ErrCodeUpstreamSourceFailure,
			"failed to decode weather provider response", err)
	}
	return nil
}

func (w *WeatherClient) toDomain(dto observationDTO) (types.WeatherObservation, error) {
	ts, err := time.Parse(time.RFC3339, dto.Timestamp)
	if err != nil {
		return types.WeatherObservation{}, types.NewAppError(types.ErrCodeUpstreamSourceFailure,
			fmt.Sprintf("provider returned malformed timestamp %q", dto.Timestamp), err)
	}
	return types.WeatherObservation{
		Location:        dto.Location,
		Timestamp:       ts.UTC(),
		TemperatureC:    dto.TemperatureC,
		Humidity:        dto.Humidity,
		PrecipitationMM: dto.PrecipMM,
		WindSpeedMS:     dto.WindSpeedMS,
		UVIndex:         dto.UVIndex,
		PressureHPa:     dto.PressureHPa,
		VisibilityKM:    dto.VisibilityKM,
	}, nil
}
