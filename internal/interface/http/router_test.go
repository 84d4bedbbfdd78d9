package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starfuse/starfuse/internal/domain/auth"
	"github.com/starfuse/starfuse/internal/domain/fusion"
	"github.com/starfuse/starfuse/internal/domain/records"
	"github.com/starfuse/starfuse/internal/infra/config"
	apperrors "github.com/starfuse/starfuse/pkg/errors"
)

func TestRouter_FuseServedFromUpstream(t *testing.T) {
	result := fusion.Result{
		Source:  fusion.SourceUpstream,
		Record:  fusion.Record{ID: "r1", Version: fusion.SchemaVersion},
		Message: "fusion assembled from upstream services",
	}
	svc := &stubFusion{
		fuseFn: func(ctx context.Context, term string) (fusion.Result, error) {
			require.Equal(t, "Luke", term)
			return result, nil
		},
	}

	recorder := performGet(t, "/api/v1/fusion?search=Luke", "", newRouterUnderTest(t, svc, nil, nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "upstream", recorder.Header().Get("X-Data-Source"))
	require.Equal(t, "public, max-age=1800", recorder.Header().Get("Cache-Control"))

	var got fusion.Result
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, result.Record.ID, got.Record.ID)
}

func TestRouter_FuseServedFromCache(t *testing.T) {
	svc := &stubFusion{
		fuseFn: func(ctx context.Context, term string) (fusion.Result, error) {
			return fusion.Result{Source: fusion.SourceCache, Record: fusion.Record{ID: "r1"}}, nil
		},
	}

	recorder := performGet(t, "/api/v1/fusion?search=Luke", "", newRouterUnderTest(t, svc, nil, nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "cache", recorder.Header().Get("X-Data-Source"))
}

func TestRouter_FuseOutcomeStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"missing parameter", apperrors.Wrap("missing_parameter", "search term is required", nil), http.StatusBadRequest, "missing_parameter"},
		{"not found", apperrors.Wrap("not_found", "no character matching", nil), http.StatusNotFound, "not_found"},
		{"upstream unavailable", apperrors.Wrap("upstream_unavailable", "every registry unreachable", nil), http.StatusBadGateway, "upstream_unavailable"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubFusion{
				fuseFn: func(ctx context.Context, term string) (fusion.Result, error) {
					return fusion.Result{}, tc.err
				},
			}

			recorder := performGet(t, "/api/v1/fusion?search=x", "", newRouterUnderTest(t, svc, nil, nil))
			require.Equal(t, tc.status, recorder.Code)

			errBody := decodeErrorBody(t, recorder.Body.Bytes())
			require.Equal(t, tc.code, errBody["code"])
		})
	}
}

func TestRouter_FuseInternalErrorIsGeneric(t *testing.T) {
	svc := &stubFusion{
		fuseFn: func(ctx context.Context, term string) (fusion.Result, error) {
			return fusion.Result{}, apperrors.Wrap("internal_error", "character search failed", errors.New("pq: relation does not exist"))
		},
	}

	recorder := performGet(t, "/api/v1/fusion?search=Luke", "", newRouterUnderTest(t, svc, nil, nil))
	require.Equal(t, http.StatusInternalServerError, recorder.Code)
	require.NotContains(t, recorder.Body.String(), "pq: relation")
	require.NotContains(t, recorder.Body.String(), "character search failed")

	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.NotEmpty(t, body["timestamp"])
	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "internal_error", errBody["code"])
	require.Contains(t, errBody["message"], "retry")
}

func TestRouter_FusionHealth(t *testing.T) {
	svc := &stubFusion{
		healthFn: func(ctx context.Context) []fusion.EndpointHealth {
			return []fusion.EndpointHealth{{Endpoint: "https://swapi.tech/api", Status: "healthy", LatencyMs: 42}}
		},
	}

	recorder := performGet(t, "/api/v1/fusion/health", "", newRouterUnderTest(t, svc, nil, nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "healthy")
}

func TestRouter_HistoryRequiresToken(t *testing.T) {
	recorder := performGet(t, "/api/v1/history", "", newRouterUnderTest(t, &stubFusion{}, nil, nil))
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestRouter_HistoryWithValidToken(t *testing.T) {
	svc := &stubFusion{
		historyFn: func(ctx context.Context, limit int, pageToken string) (fusion.HistoryPage, error) {
			require.Equal(t, 5, limit)
			require.Equal(t, "abc", pageToken)
			return fusion.HistoryPage{Items: []fusion.Record{{ID: "r1"}}, NextPageToken: "next"}, nil
		},
	}

	recorder := performGet(t, "/api/v1/history?limit=5&pageToken=abc", "Bearer good-token", newRouterUnderTest(t, svc, nil, nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var page fusion.HistoryPage
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	require.Equal(t, "next", page.NextPageToken)
}

func TestRouter_HistoryInvalidPageToken(t *testing.T) {
	svc := &stubFusion{
		historyFn: func(ctx context.Context, limit int, pageToken string) (fusion.HistoryPage, error) {
			return fusion.HistoryPage{}, apperrors.Wrap("invalid_page_token", "page token is not valid", nil)
		},
	}

	recorder := performGet(t, "/api/v1/history?pageToken=garbage", "Bearer good-token", newRouterUnderTest(t, svc, nil, nil))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_page_token", errBody["code"])
}

func TestRouter_HistoryRejectsBadLimit(t *testing.T) {
	recorder := performGet(t, "/api/v1/history?limit=ten", "Bearer good-token", newRouterUnderTest(t, &stubFusion{}, nil, nil))
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_LoginSuccess(t *testing.T) {
	authSvc := &stubAuth{
		loginFn: func(ctx context.Context, req auth.LoginRequest) (auth.LoginResponse, error) {
			require.Equal(t, "admin", req.Username)
			return auth.LoginResponse{Token: "signed-token", Username: "admin"}, nil
		},
	}

	recorder := performPost(t, "/api/v1/login", `{"username":"admin","password":"secret"}`, "", newRouterUnderTest(t, &stubFusion{}, nil, authSvc))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "signed-token")
}

func TestRouter_LoginRejectsBadCredentials(t *testing.T) {
	authSvc := &stubAuth{
		loginFn: func(ctx context.Context, req auth.LoginRequest) (auth.LoginResponse, error) {
			return auth.LoginResponse{}, apperrors.Wrap("invalid_credentials", "invalid username or password", nil)
		},
	}

	recorder := performPost(t, "/api/v1/login", `{"username":"admin","password":"wrong"}`, "", newRouterUnderTest(t, &stubFusion{}, nil, authSvc))
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_credentials", errBody["code"])
}

func TestRouter_StoreRecord(t *testing.T) {
	recordsSvc := &stubRecords{
		storeFn: func(ctx context.Context, payload map[string]any) (records.StoredRecord, error) {
			require.Equal(t, "hello", payload["note"])
			return records.StoredRecord{ID: "c1", PK: "CUSTOM#c1", RecordType: records.RecordType}, nil
		},
	}

	recorder := performPost(t, "/api/v1/records", `{"note":"hello"}`, "Bearer good-token", newRouterUnderTest(t, &stubFusion{}, recordsSvc, nil))
	require.Equal(t, http.StatusCreated, recorder.Code)
	require.Contains(t, recorder.Body.String(), "CUSTOM#c1")
}

func TestRouter_StoreRecordRequiresToken(t *testing.T) {
	recorder := performPost(t, "/api/v1/records", `{"note":"hello"}`, "", newRouterUnderTest(t, &stubFusion{}, nil, nil))
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestRouter_RejectsInvalidBearerToken(t *testing.T) {
	recorder := performGet(t, "/api/v1/history", "Bearer bad-token", newRouterUnderTest(t, &stubFusion{}, nil, nil))
	require.Equal(t, http.StatusForbidden, recorder.Code)
}

func performGet(t *testing.T, path, authorization string, server *http.Server) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func performPost(t *testing.T, path, body, authorization string, server *http.Server) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, fusionSvc fusion.Service, recordsSvc records.Service, authSvc auth.Service) *http.Server {
	t.Helper()
	if recordsSvc == nil {
		recordsSvc = &stubRecords{}
	}
	if authSvc == nil {
		authSvc = &stubAuth{}
	}
	handler := NewHandler(fusionSvc, recordsSvc, authSvc, fusion.Config{CacheTTL: 30 * time.Minute}, newTestLogger())
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
	return NewRouter(cfg, handler, authSvc)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeErrorBody(t *testing.T, body []byte) map[string]string {
	t.Helper()
	var decoded struct {
		Error map[string]string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))
	return decoded.Error
}

type stubFusion struct {
	fuseFn    func(ctx context.Context, term string) (fusion.Result, error)
	historyFn func(ctx context.Context, limit int, pageToken string) (fusion.HistoryPage, error)
	healthFn  func(ctx context.Context) []fusion.EndpointHealth
}

func (s *stubFusion) Fuse(ctx context.Context, term string) (fusion.Result, error) {
	if s.fuseFn != nil {
		return s.fuseFn(ctx, term)
	}
	return fusion.Result{}, nil
}

func (s *stubFusion) History(ctx context.Context, limit int, pageToken string) (fusion.HistoryPage, error) {
	if s.historyFn != nil {
		return s.historyFn(ctx, limit, pageToken)
	}
	return fusion.HistoryPage{}, nil
}

func (s *stubFusion) Health(ctx context.Context) []fusion.EndpointHealth {
	if s.healthFn != nil {
		return s.healthFn(ctx)
	}
	return nil
}

type stubRecords struct {
	storeFn func(ctx context.Context, payload map[string]any) (records.StoredRecord, error)
}

func (s *stubRecords) Store(ctx context.Context, payload map[string]any) (records.StoredRecord, error) {
	if s.storeFn != nil {
		return s.storeFn(ctx, payload)
	}
	return records.StoredRecord{}, nil
}

type stubAuth struct {
	loginFn    func(ctx context.Context, req auth.LoginRequest) (auth.LoginResponse, error)
	validateFn func(ctx context.Context, token string) (auth.Claims, error)
}

func (s *stubAuth) Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResponse, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, req)
	}
	return auth.LoginResponse{}, nil
}

func (s *stubAuth) ValidateToken(ctx context.Context, token string) (auth.Claims, error) {
	if s.validateFn != nil {
		return s.validateFn(ctx, token)
	}
	if token == "good-token" {
		return auth.Claims{Username: "admin", ExpiresAt: time.Now().Add(time.Hour)}, nil
	}
	return auth.Claims{}, apperrors.Wrap("invalid_token", "token validation failed", nil)
}
