package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/starfuse/starfuse/internal/domain/fusion"
)

const providerName = "Open-Meteo"

// weatherDescriptions maps WMO weather codes to human descriptions.
// Unmapped codes degrade to "Unknown".
var weatherDescriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

var cardinalDirections = [16]string{
	"N", "NNE", "NE", "ENE",
	"E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW",
	"W", "WNW", "NW", "NNW",
}

// Client fetches current weather from the Open-Meteo API and normalizes it
// into the fusion snapshot shape. Fetch never fails past this boundary: any
// fault produces an unavailable snapshot carrying the reason.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient builds an Open-Meteo client.
func NewClient(baseURL string, requestTimeout time.Duration, logger *slog.Logger) *Client {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		trimmed = "https://api.open-meteo.com/v1/forecast"
	}
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger.With("component", "weather.client"),
		now:        time.Now,
	}
}

// Fetch retrieves the current weather at a coordinate.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) fusion.WeatherSnapshot {
	if reason := validateCoordinate(lat, lon); reason != "" {
		return c.unavailable(fusion.WeatherReasonInvalidCoordinates, reason)
	}

	endpoint := fmt.Sprintf("%s?latitude=%s&longitude=%s&current_weather=true&timezone=auto&forecast_days=1",
		c.baseURL, formatCoord(lat), formatCoord(lon))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return c.unavailable(fusion.WeatherReasonProviderError, fmt.Sprintf("build weather request: %v", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("weather request failed", "error", err)
		return c.unavailable(fusion.WeatherReasonProviderError, fmt.Sprintf("weather request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return c.unavailable(fusion.WeatherReasonProviderError, fmt.Sprintf("weather provider returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.unavailable(fusion.WeatherReasonProviderError, fmt.Sprintf("read weather response: %v", err))
	}

	var decoded apiResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return c.unavailable(fusion.WeatherReasonProviderError, fmt.Sprintf("decode weather response: %v", err))
	}
	if decoded.CurrentWeather == nil {
		return c.unavailable(fusion.WeatherReasonNoCurrentData, "provider returned no current weather block")
	}

	current := decoded.CurrentWeather
	timezone := decoded.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	return fusion.WeatherSnapshot{
		Available: true,
		Temperature: &fusion.Temperature{
			Celsius:    current.Temperature,
			Fahrenheit: CelsiusToFahrenheit(current.Temperature),
		},
		Wind: &fusion.Wind{
			SpeedKmh:          current.WindSpeed,
			SpeedMph:          KmhToMph(current.WindSpeed),
			DirectionDegrees:  current.WindDirection,
			DirectionCardinal: CardinalDirection(current.WindDirection),
		},
		Condition: &fusion.Condition{
			Code:        current.WeatherCode,
			Description: describeCode(current.WeatherCode),
		},
		Timezone:  timezone,
		Source:    providerName,
		FetchedAt: c.now().UTC(),
	}
}

func (c *Client) unavailable(reason, message string) fusion.WeatherSnapshot {
	return fusion.WeatherSnapshot{
		Available: false,
		Reason:    reason,
		Message:   message,
		FetchedAt: c.now().UTC(),
	}
}

// CelsiusToFahrenheit converts and rounds to the nearest degree.
func CelsiusToFahrenheit(celsius float64) int {
	return int(math.Round(celsius*9/5 + 32))
}

// KmhToMph converts and rounds to the nearest mile per hour.
func KmhToMph(kmh float64) int {
	return int(math.Round(kmh * 0.621371))
}

// CardinalDirection classifies degrees into the nearest of 16 compass
// points. Absent degrees classify as "Unknown".
func CardinalDirection(degrees *float64) string {
	if degrees == nil {
		return "Unknown"
	}
	index := int(math.Round(*degrees/22.5)) % 16
	if index < 0 {
		index += 16
	}
	return cardinalDirections[index]
}

func describeCode(code int) string {
	if description, ok := weatherDescriptions[code]; ok {
		return description
	}
	return "Unknown"
}

func validateCoordinate(lat, lon float64) string {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return "latitude and longitude must be finite numbers"
	}
	if lat < -90 || lat > 90 {
		return "latitude must be between -90 and 90"
	}
	if lon < -180 || lon > 180 {
		return "longitude must be between -180 and 180"
	}
	return ""
}

func formatCoord(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

type apiResponse struct {
	Timezone       string      `json:"timezone"`
	CurrentWeather *currentAPI `json:"current_weather"`
}

type currentAPI struct {
	Temperature   float64  `json:"temperature"`
	WindSpeed     float64  `json:"windspeed"`
	WindDirection *float64 `json:"winddirection"`
	WeatherCode   int      `json:"weathercode"`
}

var _ fusion.WeatherClient = (*Client)(nil)
