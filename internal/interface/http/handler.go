package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/starfuse/starfuse/internal/domain/auth"
	"github.com/starfuse/starfuse/internal/domain/fusion"
	"github.com/starfuse/starfuse/internal/domain/records"
	apperrors "github.com/starfuse/starfuse/pkg/errors"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	fusionSvc  fusion.Service
	recordsSvc records.Service
	authSvc    auth.Service
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(fusionSvc fusion.Service, recordsSvc records.Service, authSvc auth.Service, fusionCfg fusion.Config, logger *slog.Logger) *Handler {
	return &Handler{
		fusionSvc:  fusionSvc,
		recordsSvc: recordsSvc,
		authSvc:    authSvc,
		cacheTTL:   fusionCfg.CacheTTL,
		logger:     logger.With("component", "http.handler"),
	}
}

// Fuse runs the character fusion pipeline for the requested search term.
func (h *Handler) Fuse(c *gin.Context) {
	result, err := h.fusionSvc.Fuse(c.Request.Context(), c.Query("search"))
	if err != nil {
		status := http.StatusInternalServerError
		code := "internal_error"
		switch {
		case apperrors.IsCode(err, "missing_parameter"):
			status = http.StatusBadRequest
			code = "missing_parameter"
		case apperrors.IsCode(err, "not_found"):
			status = http.StatusNotFound
			code = "not_found"
		case apperrors.IsCode(err, "upstream_unavailable"):
			status = http.StatusBadGateway
			code = "upstream_unavailable"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}

	c.Header("X-Data-Source", result.Source)
	c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.cacheTTL.Seconds())))
	c.JSON(http.StatusOK, result)
}

// FusionHealth probes every configured registry endpoint once.
func (h *Handler) FusionHealth(c *gin.Context) {
	report := h.fusionSvc.Health(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"endpoints": report,
		"checkedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

// History returns a reverse-chronological page of past fusion records.
func (h *Handler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be an integer", err))
			return
		}
		limit = parsed
	}

	page, err := h.fusionSvc.History(c.Request.Context(), limit, c.Query("pageToken"))
	if err != nil {
		status := http.StatusInternalServerError
		code := "history_error"
		if apperrors.IsCode(err, "invalid_page_token") {
			status = http.StatusBadRequest
			code = "invalid_page_token"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, page)
}

// Login exchanges configured credentials for a signed token.
func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		code := "login_failed"
		switch {
		case apperrors.IsCode(err, "invalid_input"):
			status = http.StatusBadRequest
			code = "invalid_request"
		case apperrors.IsCode(err, "invalid_credentials"):
			status = http.StatusUnauthorized
			code = "invalid_credentials"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StoreRecord persists a caller-supplied document.
func (h *Handler) StoreRecord(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	stored, err := h.recordsSvc.Store(c.Request.Context(), payload)
	if err != nil {
		status := http.StatusInternalServerError
		code := "store_failed"
		if apperrors.IsCode(err, "invalid_input") {
			status = http.StatusBadRequest
			code = "invalid_request"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}
	if claims, ok := getClaims(c); ok {
		h.logger.Info("record stored", "id", stored.ID, "username", claims.Username)
	}
	c.JSON(http.StatusCreated, stored)
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
