package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"kasirstok/backend/internal/apperr"
	"kasirstok/backend/internal/display"
	"kasirstok/backend/internal/logger"
	"kasirstok/backend/internal/metrics"
	"kasirstok/backend/internal/service"
	"kasirstok/backend/internal/store"
)

const maxBodySize = "1M"

type Options struct {
	AllowedOrigin string
	Metrics       *metrics.Metrics
	Formatter     *display.Formatter
}

type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	metrics       *metrics.Metrics
	format        *display.Formatter
	loginLimiter  *attemptLimiter
}

func New(svc *service.Service, auth *AuthManager, opts Options) *API {
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	if opts.Formatter == nil {
		opts.Formatter = display.New("id-ID")
	}
	return &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: opts.AllowedOrigin,
		metrics:       opts.Metrics,
		format:        opts.Formatter,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
	}
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	l.entries[key] = append(kept, now)
	return true
}

func (a *API) Handler() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = a.handleError

	e.Use(requestContext)
	e.Use(a.observe)
	e.Use(middleware.Recover())
	e.Use(a.securityHeaders)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{a.allowedOrigin},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
	}))
	e.Use(middleware.BodyLimit(maxBodySize))

	e.GET("/healthz", a.handleHealth)
	e.GET("/metrics", echo.WrapHandler(a.metrics.Handler()))
	e.POST("/api/v1/auth/login", a.handleLogin)

	api := e.Group("/api/v1", a.requireAuth)
	api.GET("/auth/me", a.handleMe)
	api.GET("/users/cashiers", a.handleListCashiers)
	api.POST("/users/cashiers", a.handleCreateCashier)

	api.GET("/products", a.handleListProducts)
	api.POST("/products", a.handleCreateProduct)
	api.GET("/products/:id", a.handleGetProduct)
	api.PATCH("/products/:id", a.handleUpdateProduct)
	api.DELETE("/products/:id", a.handleDeleteProduct)
	api.GET("/inventory/summary", a.handleInventorySummary)

	api.GET("/categories", a.handleListCategories)
	api.POST("/categories", a.handleCreateCategory)
	api.PUT("/categories/:id", a.handleUpdateCategory)
	api.DELETE("/categories/:id", a.handleDeleteCategory)

	api.GET("/suppliers", a.handleListSuppliers)
	api.POST("/suppliers", a.handleCreateSupplier)
	api.DELETE("/suppliers/:id", a.handleDeleteSupplier)
	api.GET("/suppliers/:id/accounts", a.handleListSupplierAccounts)
	api.POST("/suppliers/:id/accounts", a.handleCreateSupplierAccount)
	api.DELETE("/supplier-accounts/:id", a.handleDeleteSupplierAccount)

	api.POST("/sales/draft", a.handleDraftSale)
	api.GET("/sales", a.handleListSales)
	api.POST("/sales", a.handleCreateSale)
	api.GET("/sales/:id", a.handleGetSale)
	api.PATCH("/sales/:id/status", a.handleSaleStatus)
	api.DELETE("/sales/:id", a.handleDeleteSale)

	api.GET("/purchases", a.handleListPurchases)
	api.POST("/purchases", a.handleCreatePurchase)
	api.GET("/purchases/:id", a.handleGetPurchase)
	api.PATCH("/purchases/:id/status", a.handlePurchaseStatus)
	api.DELETE("/purchases/:id", a.handleDeletePurchase)

	api.GET("/reports/sales-chart", a.handleSalesChart)

	return e
}

func (a *API) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

type errorBody struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OrphanHeader *bool  `json:"orphan_header,omitempty"`
}

// handleError writes the {error:{code,message}} envelope. Engine errors are
// mapped by kind; 5xx bodies never carry the underlying store error.
func (a *API) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		writeError(c, he.Code, errorBody{Code: codeForStatus(he.Code), Message: fmt.Sprint(he.Message)})
		return
	}

	kind := apperr.KindOf(err)
	body := errorBody{Code: string(kind), Message: err.Error()}
	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
		body.Message = "resource not found"
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindPersistence:
		status = http.StatusBadGateway
		body.Message = "record store unavailable"
	case apperr.KindConsistency:
		var ce *apperr.ConsistencyError
		errors.As(err, &ce)
		orphan := ce.OrphanHeader
		body.OrphanHeader = &orphan
		body.Message = "transaction was not saved"
		if errors.Is(err, store.ErrInsufficientStock) {
			body.Message = "transaction was not saved: insufficient stock"
		}
		if orphan {
			body.Message = "transaction was not saved and its header needs operator attention"
		}
	default:
		body.Message = "internal server error"
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request().Context()).Error("request failed",
			zap.String("kind", string(kind)),
			zap.Int("status", status),
			zap.Error(err))
	}
	writeError(c, status, body)
}

func writeError(c echo.Context, status int, body errorBody) {
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, map[string]any{"error": body})
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusRequestEntityTooLarge:
		return "body_too_large"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusBadRequest:
		return "bad_request"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

// decodeJSON rejects unknown fields.
func decodeJSON(c echo.Context, dest any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body: "+err.Error())
	}
	return nil
}
