package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/starfuse/starfuse/internal/domain/fusion"
)

// Client queries an ordered list of equivalent character registries,
// falling through to the next endpoint on transport failure, bad status or
// an empty result set. Endpoint-specific response shapes are normalized
// here; callers only ever see the canonical character/planet types.
type Client struct {
	endpoints     []string
	httpClient    *http.Client
	healthTimeout time.Duration
	logger        *slog.Logger
}

// NewClient builds a registry client over the configured endpoint list.
func NewClient(endpoints []string, requestTimeout, healthTimeout time.Duration, logger *slog.Logger) *Client {
	cleaned := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		if trimmed := strings.TrimRight(strings.TrimSpace(e), "/"); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	if healthTimeout <= 0 {
		healthTimeout = 5 * time.Second
	}
	return &Client{
		endpoints:     cleaned,
		httpClient:    &http.Client{Timeout: requestTimeout},
		healthTimeout: healthTimeout,
		logger:        logger.With("component", "registry.client"),
	}
}

// SearchCharacter tries each endpoint in order until one returns a
// non-empty result. Exhaustion is reported as *fusion.ExhaustedError
// carrying the per-endpoint outcomes.
func (c *Client) SearchCharacter(ctx context.Context, term string) (fusion.SearchResult, error) {
	attempts := make([]fusion.Attempt, 0, len(c.endpoints))

	for _, endpoint := range c.endpoints {
		result, err := c.searchOne(ctx, endpoint, term)
		if err != nil {
			c.logger.Warn("registry endpoint failed", "endpoint", endpoint, "error", err)
			attempts = append(attempts, fusion.Attempt{Endpoint: endpoint, Err: err})
			continue
		}
		if result.Count == 0 || len(result.Results) == 0 {
			c.logger.Debug("registry endpoint returned no results", "endpoint", endpoint, "term", term)
			attempts = append(attempts, fusion.Attempt{Endpoint: endpoint, ZeroResults: true})
			continue
		}
		result.Endpoint = endpoint
		return result, nil
	}

	return fusion.SearchResult{}, &fusion.ExhaustedError{Attempts: attempts}
}

// ResolvePlanet fetches planet attributes by reference URL, rewriting the
// reference's host to each endpoint in turn while preserving path and query.
func (c *Client) ResolvePlanet(ctx context.Context, ref string) (fusion.Planet, error) {
	attempts := make([]fusion.Attempt, 0, len(c.endpoints))

	for i, endpoint := range c.endpoints {
		target := ref
		if i > 0 {
			rewritten, err := rewriteHost(ref, endpoint)
			if err != nil {
				attempts = append(attempts, fusion.Attempt{Endpoint: endpoint, Err: err})
				continue
			}
			target = rewritten
		}

		planet, err := c.fetchPlanet(ctx, target)
		if err != nil {
			c.logger.Warn("planet fetch failed", "url", target, "error", err)
			attempts = append(attempts, fusion.Attempt{Endpoint: endpoint, Err: err})
			continue
		}
		return planet, nil
	}

	return fusion.Planet{}, &fusion.ExhaustedError{Attempts: attempts}
}

// Health probes every endpoint once and reports reachability. Probes do not
// touch the fusion pipeline's state.
func (c *Client) Health(ctx context.Context) []fusion.EndpointHealth {
	results := make([]fusion.EndpointHealth, 0, len(c.endpoints))
	for _, endpoint := range c.endpoints {
		results = append(results, c.probe(ctx, endpoint))
	}
	return results
}

func (c *Client) probe(ctx context.Context, endpoint string) fusion.EndpointHealth {
	probeCtx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, endpoint+"/people/1/", nil)
	if err != nil {
		return fusion.EndpointHealth{Endpoint: endpoint, Status: "error", Error: err.Error()}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return fusion.EndpointHealth{Endpoint: endpoint, Status: "error", Error: err.Error()}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	status := "healthy"
	if resp.StatusCode >= 300 {
		status = "unhealthy"
	}
	return fusion.EndpointHealth{Endpoint: endpoint, Status: status, LatencyMs: latency.Milliseconds()}
}

func (c *Client) searchOne(ctx context.Context, endpoint, term string) (fusion.SearchResult, error) {
	searchURL := endpoint + "/people/?search=" + url.QueryEscape(term)
	if isEnvelopeEndpoint(endpoint) {
		searchURL = endpoint + "/people/?name=" + url.QueryEscape(term)
	}

	body, err := c.get(ctx, searchURL)
	if err != nil {
		return fusion.SearchResult{}, err
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fusion.SearchResult{}, fmt.Errorf("decode search response: %w", err)
	}

	// The envelope variant nests each match under result[].properties; the
	// flat variant returns count plus a results array. Resolve whichever
	// shape came back before anything crosses the component boundary.
	if len(decoded.Result) > 0 || decoded.TotalRecords > 0 {
		results := make([]fusion.Character, 0, len(decoded.Result))
		for _, item := range decoded.Result {
			results = append(results, normalizeCharacter(item.Properties))
		}
		count := decoded.TotalRecords
		if count == 0 {
			count = len(results)
		}
		return fusion.SearchResult{Count: count, Results: results}, nil
	}

	results := make([]fusion.Character, 0, len(decoded.Results))
	for _, raw := range decoded.Results {
		results = append(results, normalizeCharacter(raw))
	}
	return fusion.SearchResult{Count: decoded.Count, Results: results}, nil
}

func (c *Client) fetchPlanet(ctx context.Context, target string) (fusion.Planet, error) {
	body, err := c.get(ctx, target)
	if err != nil {
		return fusion.Planet{}, err
	}

	var envelope envelopePlanetResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Result != nil && envelope.Result.Properties.Name != "" {
		return normalizePlanet(envelope.Result.Properties), nil
	}

	var raw rawPlanet
	if err := json.Unmarshal(body, &raw); err != nil {
		return fusion.Planet{}, fmt.Errorf("decode planet response: %w", err)
	}
	return normalizePlanet(raw), nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// isEnvelopeEndpoint reports whether the endpoint expects the name= search
// parameter used by the enveloped mirror rather than the classic search=.
func isEnvelopeEndpoint(endpoint string) bool {
	return strings.Contains(endpoint, "swapi.tech")
}

// rewriteHost swaps the scheme and host of ref for the endpoint's,
// preserving the reference's path and query.
func rewriteHost(ref, endpoint string) (string, error) {
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse planet reference: %w", err)
	}
	endpointURL, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	refURL.Scheme = endpointURL.Scheme
	refURL.Host = endpointURL.Host
	return refURL.String(), nil
}

type searchResponse struct {
	Count   int            `json:"count"`
	Results []rawCharacter `json:"results"`

	TotalRecords int `json:"total_records"`
	Result       []struct {
		Properties rawCharacter `json:"properties"`
	} `json:"result"`
}

type envelopePlanetResponse struct {
	Result *struct {
		Properties rawPlanet `json:"properties"`
	} `json:"result"`
}

type rawCharacter struct {
	Name      string `json:"name"`
	Height    string `json:"height"`
	Mass      string `json:"mass"`
	Gender    string `json:"gender"`
	BirthYear string `json:"birth_year"`
	HairColor string `json:"hair_color"`
	SkinColor string `json:"skin_color"`
	EyeColor  string `json:"eye_color"`
	Homeworld string `json:"homeworld"`
}

type rawPlanet struct {
	Name           string `json:"name"`
	Climate        string `json:"climate"`
	Terrain        string `json:"terrain"`
	Population     string `json:"population"`
	Diameter       string `json:"diameter"`
	RotationPeriod string `json:"rotation_period"`
	OrbitalPeriod  string `json:"orbital_period"`
	Gravity        string `json:"gravity"`
}

func normalizeCharacter(raw rawCharacter) fusion.Character {
	return fusion.Character{
		Name:         raw.Name,
		HeightCm:     parseOptionalInt(raw.Height),
		MassKg:       parseOptionalMass(raw.Mass),
		Gender:       raw.Gender,
		BirthYear:    raw.BirthYear,
		HairColor:    raw.HairColor,
		EyeColor:     raw.EyeColor,
		SkinColor:    raw.SkinColor,
		HomeworldURL: raw.Homeworld,
	}
}

func normalizePlanet(raw rawPlanet) fusion.Planet {
	return fusion.Planet{
		Name:          raw.Name,
		Climate:       raw.Climate,
		Terrain:       raw.Terrain,
		Population:    parseOptionalInt64(raw.Population),
		DiameterKm:    parseOptionalInt(raw.Diameter),
		RotationHours: parseOptionalInt(raw.RotationPeriod),
		OrbitalDays:   parseOptionalInt(raw.OrbitalPeriod),
		Gravity:       raw.Gravity,
	}
}

func parseOptionalInt(value string) *int {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "unknown") {
		return nil
	}
	parsed, err := strconv.Atoi(strings.ReplaceAll(value, ",", ""))
	if err != nil {
		return nil
	}
	return &parsed
}

func parseOptionalInt64(value string) *int64 {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "unknown") {
		return nil
	}
	parsed, err := strconv.ParseInt(strings.ReplaceAll(value, ",", ""), 10, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

// parseOptionalMass tolerates comma-grouped upstream values like "1,358".
func parseOptionalMass(value string) *float64 {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "unknown") {
		return nil
	}
	parsed, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &parsed
}

var _ fusion.Registry = (*Client)(nil)
