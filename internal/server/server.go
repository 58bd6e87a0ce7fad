package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"promptrelay/internal/apperr"
	"promptrelay/internal/chat"
	"promptrelay/internal/config"
	"promptrelay/internal/translator"
)

const (
	shutdownGracePeriod = 10 * time.Second
	readTimeout         = 30 * time.Second
	writeTimeout        = 45 * time.Second
	idleTimeout         = 120 * time.Second

	headerAPIKey = "x-api-key"

	methodUsage = "Use POST with JSON body { 'prompts': { 'system': '...', 'user': '...' } }"
)

// RuntimeResolver produces the configuration snapshot for one request.
type RuntimeResolver interface {
	Resolve() config.Runtime
}

type Server struct {
	cfg      config.Config
	resolver RuntimeResolver
	chat     *chat.Service
	app      *echo.Echo
	address  string
}

// New constructs an HTTP server wired with routing and middleware.
func New(cfg config.Config, resolver RuntimeResolver, svc *chat.Service) (*Server, error) {
	if resolver == nil {
		return nil, errors.New("runtime resolver must not be nil")
	}
	if svc == nil {
		return nil, errors.New("chat service must not be nil")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = jsonErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(corsHeaders)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency:   true,
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				"id", v.RequestID,
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"error", v.Error,
			)
			return nil
		},
	}))
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'; form-action 'none'",
	}))

	srv := &Server{
		cfg:      cfg,
		resolver: resolver,
		chat:     svc,
		app:      e,
		address:  fmt.Sprintf(":%d", cfg.Server.Port),
	}

	srv.registerRoutes()

	return srv, nil
}

// ServeHTTP lets the server be mounted in another mux or driven by httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	printStartupBanner(s.cfg.Server.Port)
	slog.Info("starting server", "addr", s.address)

	httpServer := &http.Server{
		Addr:         s.address,
		Handler:      s.app,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.app.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := s.app.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		slog.Info("server shutdown complete")
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.app.GET("/health", s.handleHealth)
	for _, ep := range chat.Endpoints() {
		s.app.Any("/api/"+ep.Name, s.handlePrompts(ep))
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handlePrompts runs the request checks in a fixed order: preflight, method,
// gate, body, decode, then the upstream call.
func (s *Server) handlePrompts(ep chat.Endpoint) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()

		if req.Method == http.MethodOptions {
			return c.NoContent(http.StatusNoContent)
		}
		if req.Method != http.MethodPost {
			c.Response().Header().Set(echo.HeaderAllow, http.MethodPost)
			return requestError{
				Status: http.StatusMethodNotAllowed,
				Tag:    "Method not allowed",
				Detail: methodUsage,
			}
		}

		rt := s.resolver.Resolve()
		if !gateAllows(rt.GateKey, req.Header.Get(headerAPIKey)) {
			return apperr.Unauthorized()
		}

		body, err := s.readBody(c)
		if err != nil {
			return err
		}
		if len(body) == 0 {
			return requestError{Status: http.StatusBadRequest, Tag: "Empty body"}
		}

		prompts, err := translator.DecodePrompts(body)
		if err != nil {
			return requestError{
				Status: http.StatusBadRequest,
				Tag:    "Invalid JSON",
				Detail: err.Error(),
			}
		}

		answer, err := s.chat.CreateAnswer(req.Context(), rt, ep, prompts)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, translator.NewAnswerResponse(ep, answer))
	}
}

// gateAllows reports whether the presented key matches the configured secret.
// An empty secret disables the gate.
func gateAllows(secret, presented string) bool {
	if secret == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(presented)) == 1
}

func (s *Server) readBody(c echo.Context) ([]byte, error) {
	req := c.Request()
	defer req.Body.Close()

	if limit := s.cfg.Server.MaxBodyBytes; limit > 0 {
		req.Body = http.MaxBytesReader(c.Response(), req.Body, limit)
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, requestError{
				Status: http.StatusRequestEntityTooLarge,
				Tag:    "Payload too large",
				Detail: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			}
		}
		return nil, requestError{
			Status: http.StatusBadRequest,
			Tag:    "Invalid body",
			Detail: err.Error(),
		}
	}
	return body, nil
}

// corsHeaders adds the CORS headers to every response, errors and preflights included.
func corsHeaders(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Response().Header()
		h.Set(echo.HeaderAccessControlAllowOrigin, "*")
		h.Set(echo.HeaderAccessControlAllowMethods, "POST,OPTIONS")
		h.Set(echo.HeaderAccessControlAllowHeaders, "Content-Type,x-api-key")
		h.Set(echo.HeaderAccessControlMaxAge, "86400")
		return next(c)
	}
}

// requestError is a transport-level rejection raised before the chat service runs.
type requestError struct {
	Status int
	Tag    string
	Detail string
}

func (e requestError) Error() string {
	if e.Detail == "" {
		return e.Tag
	}
	return e.Tag + ": " + e.Detail
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func jsonErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var reqErr requestError
	if errors.As(err, &reqErr) {
		writeJSON(c, reqErr.Status, errorBody{Error: reqErr.Tag, Detail: reqErr.Detail})
		return
	}

	if _, ok := apperr.As(err); ok {
		status, body := apperr.Response(err)
		if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
			slog.Error("request failed", "uri", c.Request().RequestURI, "error", err)
		}
		writeJSON(c, status, body)
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		writeJSON(c, he.Code, errorBody{Error: msg})
		return
	}

	slog.Error("unhandled error", "uri", c.Request().RequestURI, "error", err)
	status, body := apperr.Response(err)
	writeJSON(c, status, body)
}

func writeJSON(c echo.Context, status int, payload any) {
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, payload)
}

func printStartupBanner(port int) {
	host := "127.0.0.1"
	fmt.Println()
	fmt.Println("promptrelay ready")
	fmt.Printf("Listening on http://%s:%d\n", host, port)
	fmt.Println("Endpoints:")
	fmt.Println("  GET  /health")
	for _, ep := range chat.Endpoints() {
		fmt.Printf("  POST /api/%s\n", ep.Name)
	}
	fmt.Printf("Example:\n  curl http://%s:%d/api/openai -H 'Content-Type: application/json' -H 'x-api-key: $X_API_KEY' -d '{\"prompts\":{\"system\":\"You are terse.\",\"user\":\"hello\"}}'\n\n", host, port)
}
