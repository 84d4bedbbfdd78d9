package fusion

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SchemaVersion tags every fusion record written by this service.
const SchemaVersion = "1.0"

// Character is the normalized character projection. Upstream registries
// encode unknown numerics as the string "unknown" and mass occasionally as a
// comma-grouped string; the registry client resolves both into nullable
// numbers before the value crosses into this package.
type Character struct {
	Name         string   `json:"name"`
	HeightCm     *int     `json:"heightCm"`
	MassKg       *float64 `json:"massKg"`
	Gender       string   `json:"gender"`
	BirthYear    string   `json:"birthYear"`
	HairColor    string   `json:"hairColor"`
	EyeColor     string   `json:"eyeColor"`
	SkinColor    string   `json:"skinColor"`
	HomeworldURL string   `json:"-"`
}

// Planet is the normalized origin planet projection.
type Planet struct {
	Name          string `json:"name"`
	Climate       string `json:"climate"`
	Terrain       string `json:"terrain"`
	Population    *int64 `json:"population"`
	DiameterKm    *int   `json:"diameterKm"`
	RotationHours *int   `json:"rotationPeriodHours"`
	OrbitalDays   *int   `json:"orbitalPeriodDays"`
	Gravity       string `json:"gravity"`
}

// Coordinate is a terrestrial stand-in for a fictional planet.
type Coordinate struct {
	Lat                   float64 `json:"lat"`
	Lon                   float64 `json:"lon"`
	TerrestrialEquivalent string  `json:"terrestrialEquivalent"`
	ExpectedClimate       string  `json:"expectedClimate"`
}

// Temperature carries both units of the current reading.
type Temperature struct {
	Celsius    float64 `json:"celsius"`
	Fahrenheit int     `json:"fahrenheit"`
}

// Wind carries speed in both units plus the classified direction.
// DirectionCardinal is "Unknown" when the provider omits degrees.
type Wind struct {
	SpeedKmh          float64  `json:"speedKmh"`
	SpeedMph          int      `json:"speedMph"`
	DirectionDegrees  *float64 `json:"directionDegrees"`
	DirectionCardinal string   `json:"directionCardinal"`
}

// Condition is the provider weather code plus its human description.
type Condition struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

// WeatherSnapshot is the normalized weather shape. Available selects which
// sub-shape is populated: reading fields when true, Reason/Message when false.
type WeatherSnapshot struct {
	Available   bool         `json:"available"`
	Coordinate  *Coordinate  `json:"coordinate,omitempty"`
	Temperature *Temperature `json:"temperature,omitempty"`
	Wind        *Wind        `json:"wind,omitempty"`
	Condition   *Condition   `json:"condition,omitempty"`
	Timezone    string       `json:"timezone,omitempty"`
	Source      string       `json:"source,omitempty"`
	Reason      string       `json:"reason,omitempty"`
	Message     string       `json:"message,omitempty"`
	FetchedAt   time.Time    `json:"fetchedAt"`
}

// Reason codes for unavailable weather snapshots.
const (
	WeatherReasonInvalidCoordinates = "invalid_coordinates"
	WeatherReasonProviderError      = "provider_error"
	WeatherReasonNoCurrentData      = "no_current_data"
	WeatherReasonNoCoordinates      = "no_coordinates"
	WeatherReasonUnmappedPlanet     = "unmapped_planet"
)

// MinorError records a non-fatal enrichment failure.
type MinorError struct {
	Service string `json:"service"`
	Detail  string `json:"detail"`
	Impact  string `json:"impact"`
}

// Metadata describes how a fusion record was assembled.
type Metadata struct {
	SearchTerm        string       `json:"searchTerm"`
	ServicesConsulted []string     `json:"servicesConsulted"`
	Completeness      int          `json:"completeness"`
	MinorErrors       []MinorError `json:"minorErrors,omitempty"`
}

// Record is the unit of work product: one character fused with its origin
// planet and the live weather at the planet's terrestrial stand-in.
// Never mutated after creation; ExpiresAt is always CreatedAt plus the
// configured cache TTL.
type Record struct {
	ID        string          `json:"id"`
	Character Character       `json:"character"`
	Planet    *Planet         `json:"originPlanet,omitempty"`
	Weather   WeatherSnapshot `json:"weather"`
	Metadata  Metadata        `json:"metadata"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Version   string          `json:"version"`
}

// Result is the successful outcome of a fusion request.
type Result struct {
	Source          string `json:"source"`
	Record          Record `json:"record"`
	MinorErrorCount int    `json:"minorErrorCount,omitempty"`
	Message         string `json:"message"`
}

// Result sources.
const (
	SourceCache    = "cache"
	SourceUpstream = "upstream"
)

// SearchResult is the normalized registry search response.
type SearchResult struct {
	Count    int
	Results  []Character
	Endpoint string
}

// EndpointHealth reports a single registry endpoint probe.
type EndpointHealth struct {
	Endpoint  string `json:"endpoint"`
	Status    string `json:"status"`
	LatencyMs int64  `json:"latencyMs,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HistoryPage is one reverse-chronological page of persisted records.
type HistoryPage struct {
	Items         []Record `json:"items"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

// Registry searches the ordered list of upstream character registries and
// resolves planet references through the same fallback mechanism. Search and
// resolve failures after source exhaustion are reported as *ExhaustedError.
type Registry interface {
	SearchCharacter(ctx context.Context, term string) (SearchResult, error)
	ResolvePlanet(ctx context.Context, ref string) (Planet, error)
	Health(ctx context.Context) []EndpointHealth
}

// WeatherClient fetches live weather for a coordinate. It never fails: any
// validation, transport or provider fault yields an unavailable snapshot.
type WeatherClient interface {
	Fetch(ctx context.Context, lat, lon float64) WeatherSnapshot
}

// Cache maps normalized search keys to previously computed records. Get
// returns live-or-nothing; an entry whose expiry instant has passed is
// absent no matter what the backing store still holds. Errors mean the
// cache is unavailable, never that the request should fail.
type Cache interface {
	Get(ctx context.Context, key string) (Record, bool, error)
	Put(ctx context.Context, key string, record Record, ttl time.Duration) error
}

// History is the append-only store of every computed record.
type History interface {
	Append(ctx context.Context, record Record) error
	List(ctx context.Context, limit int, pageToken string) (HistoryPage, error)
}

// Attempt is the outcome of one registry endpoint try.
type Attempt struct {
	Endpoint    string
	ZeroResults bool
	Err         error
}

// ExhaustedError reports that every endpoint in the ordered registry list
// was tried without a usable result. The attempt list lets the caller tell
// "no match anywhere" apart from "could not reach the sources".
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d registry endpoints exhausted", len(e.Attempts))
}

// AllZeroResults reports whether every attempt reached the upstream and came
// back with an empty result set.
func (e *ExhaustedError) AllZeroResults() bool {
	if len(e.Attempts) == 0 {
		return false
	}
	for _, a := range e.Attempts {
		if !a.ZeroResults {
			return false
		}
	}
	return true
}

// NormalizeKey canonicalizes a search term for cache lookups.
func NormalizeKey(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}
