package fusion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/starfuse/starfuse/pkg/errors"
)

// Service exposes the fusion pipeline.
type Service interface {
	Fuse(ctx context.Context, term string) (Result, error)
	History(ctx context.Context, limit int, pageToken string) (HistoryPage, error)
	Health(ctx context.Context) []EndpointHealth
}

// Config controls pipeline behavior.
type Config struct {
	CacheTTL time.Duration
}

type service struct {
	cfg      Config
	registry Registry
	weather  WeatherClient
	cache    Cache
	history  History
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewService wires up the fusion domain.
func NewService(cfg Config, registry Registry, weather WeatherClient, cache Cache, history History, logger *slog.Logger) Service {
	return &service{
		cfg:      cfg,
		registry: registry,
		weather:  weather,
		cache:    cache,
		history:  history,
		logger:   logger.With("component", "fusion.service"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Fuse runs the lookup pipeline for a search term: cache check, registry
// search, planet resolution, coordinate mapping, weather enrichment, then a
// best-effort dual write-back to history and cache. Planet and weather
// failures downgrade to metadata; only missing input, source exhaustion and
// unexpected faults terminate the request.
func (s *service) Fuse(ctx context.Context, term string) (Result, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return Result{}, apperrors.Wrap("missing_parameter", "search term is required", nil)
	}

	key := NormalizeKey(term)
	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache lookup failed, treating as miss", "key", key, "error", err)
	}
	if ok {
		return Result{
			Source:          SourceCache,
			Record:          cached,
			MinorErrorCount: len(cached.Metadata.MinorErrors),
			Message:         "fusion served from cache",
		}, nil
	}

	search, err := s.registry.SearchCharacter(ctx, term)
	if err != nil {
		var exhausted *ExhaustedError
		if errors.As(err, &exhausted) {
			if exhausted.AllZeroResults() {
				return Result{}, apperrors.Wrap("not_found", fmt.Sprintf("no character matching %q in any registry", term), err)
			}
			return Result{}, apperrors.Wrap("upstream_unavailable", "every character registry is unreachable", err)
		}
		return Result{}, apperrors.Wrap("internal_error", "character search failed", err)
	}
	if len(search.Results) == 0 {
		return Result{}, apperrors.Wrap("not_found", fmt.Sprintf("no character matching %q in any registry", term), nil)
	}
	character := search.Results[0]

	var minorErrors []MinorError
	var planet *Planet
	if character.HomeworldURL != "" {
		resolved, err := s.registry.ResolvePlanet(ctx, character.HomeworldURL)
		if err != nil {
			s.logger.Warn("planet resolution failed", "character", character.Name, "error", err)
			minorErrors = append(minorErrors, MinorError{
				Service: "registry.planet",
				Detail:  err.Error(),
				Impact:  "origin planet attributes are missing",
			})
		} else {
			planet = &resolved
		}
	}

	services := []string{search.Endpoint}

	var weather WeatherSnapshot
	coord, mapped := Coordinate{}, false
	if planet != nil {
		coord, mapped = MapPlanetCoordinate(planet.Name)
	}
	switch {
	case mapped:
		weather = s.weather.Fetch(ctx, coord.Lat, coord.Lon)
		if weather.Available {
			weather.Coordinate = &coord
			services = append(services, weather.Source)
		} else {
			minorErrors = append(minorErrors, MinorError{
				Service: "weather",
				Detail:  weather.Message,
				Impact:  "live weather is missing from the record",
			})
		}
	case planet != nil:
		// Expected outcome for fictional planets without a terrestrial
		// stand-in; not a minor error.
		weather = WeatherSnapshot{
			Available: false,
			Reason:    WeatherReasonUnmappedPlanet,
			Message:   fmt.Sprintf("planet %s has no terrestrial equivalent coordinates", planet.Name),
			FetchedAt: s.now().UTC(),
		}
	default:
		weather = WeatherSnapshot{
			Available: false,
			Reason:    WeatherReasonNoCoordinates,
			Message:   "no origin planet available to map",
			FetchedAt: s.now().UTC(),
		}
	}

	createdAt := s.now().UTC()
	record := Record{
		ID:        s.newID(),
		Character: character,
		Planet:    planet,
		Weather:   weather,
		Metadata: Metadata{
			SearchTerm:        term,
			ServicesConsulted: services,
			Completeness:      completeness(character, planet, weather),
			MinorErrors:       minorErrors,
		},
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(s.cfg.CacheTTL),
		Version:   SchemaVersion,
	}

	// Both write-backs are best-effort: the response is already decided.
	if err := s.history.Append(ctx, record); err != nil {
		s.logger.Warn("history append failed", "id", record.ID, "error", err)
	}
	if err := s.cache.Put(ctx, key, record, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err)
	}

	message := "fusion assembled from upstream services"
	if len(minorErrors) > 0 {
		message = fmt.Sprintf("fusion assembled with %d minor error(s)", len(minorErrors))
	}
	return Result{
		Source:          SourceUpstream,
		Record:          record,
		MinorErrorCount: len(minorErrors),
		Message:         message,
	}, nil
}

// History returns a reverse-chronological page of persisted records.
func (s *service) History(ctx context.Context, limit int, pageToken string) (HistoryPage, error) {
	page, err := s.history.List(ctx, limit, pageToken)
	if err != nil {
		if apperrors.IsCode(err, "invalid_page_token") {
			return HistoryPage{}, err
		}
		return HistoryPage{}, apperrors.Wrap("history_error", "failed to list fusion history", err)
	}
	return page, nil
}

// Health probes every registry endpoint once.
func (s *service) Health(ctx context.Context) []EndpointHealth {
	return s.registry.Health(ctx)
}

// completeness scores a record over the fixed five-field checklist.
func completeness(character Character, planet *Planet, weather WeatherSnapshot) int {
	const total = 5
	populated := 0
	if character.Name != "" {
		populated++
	}
	if character.HeightCm != nil {
		populated++
	}
	if character.MassKg != nil {
		populated++
	}
	if planet != nil {
		populated++
	}
	if weather.Available {
		populated++
	}
	return int(math.Round(float64(populated) / float64(total) * 100))
}
