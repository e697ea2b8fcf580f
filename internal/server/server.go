package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/example/go-ipatok/internal/config"
	"github.com/example/go-ipatok/internal/inventory"
	"github.com/example/go-ipatok/internal/tokenizer"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request identifier in both directions.
const RequestIDHeader = "X-Request-ID"

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Segmenter splits a transcription into tokens with provenance.
type Segmenter interface {
	Segment(text, language string) []tokenizer.Token
}

// Catalog describes the loaded inventories.
type Catalog interface {
	Lookup(id string) *inventory.Inventory
	Has(id string) bool
	Languages() []string
	Aliases(id string) []string
	Digest() string
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes int
	logger       *slog.Logger
}

func defaultOptions() options {
	return options{
		maxTextBytes: 4096,
		logger:       slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed text length in bytes for POST /tokenize.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// bodyOverhead covers the JSON envelope and the language and strict fields.
const bodyOverhead = 1024

// maxBodyBytes bounds a /tokenize request body. A \uXXXX escape spells one
// text byte in at most six body bytes.
func maxBodyBytes(maxTextBytes int) int64 {
	return int64(maxTextBytes)*6 + bodyOverhead
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

type handler struct {
	seg     Segmenter
	catalog Catalog
	opts    options
	log     *slog.Logger
}

// NewHandler returns an http.Handler that serves /health, /languages,
// /languages/{id}, and POST /tokenize. Every response carries an
// X-Request-ID header.
func NewHandler(seg Segmenter, catalog Catalog, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		seg:     seg,
		catalog: catalog,
		opts:    opts,
		log:     opts.logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/languages", h.handleLanguages)
	mux.HandleFunc("GET /languages/{id}", h.handleLanguage)
	mux.HandleFunc("/tokenize", h.handleTokenize)
	return withRequestID(mux)
}

type requestIDKey struct{}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// RequestID returns the identifier assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":           "ok",
		"version":          buildVersion(),
		"inventory_digest": h.catalog.Digest(),
	})
}

func (h *handler) handleLanguages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	langs := h.catalog.Languages()
	if langs == nil {
		langs = []string{}
	}
	writeJSON(w, http.StatusOK, langs)
}

type languageResponse struct {
	ID         string   `json:"id"`
	Aliases    []string `json:"aliases"`
	Segments   []string `json:"segments"`
	Boundaries []string `json:"boundaries"`
}

func (h *handler) handleLanguage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.catalog.Has(id) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown language %q", id))
		return
	}

	inv := h.catalog.Lookup(id)
	writeJSON(w, http.StatusOK, languageResponse{
		ID:         inv.ID(),
		Aliases:    nonNil(h.catalog.Aliases(inv.ID())),
		Segments:   nonNil(inv.Segments()),
		Boundaries: nonNil(inv.Boundaries()),
	})
}

type tokenizeRequest struct {
	Text     *string `json:"text"`
	Language string `json:"language"`
	Strict   bool   `json:"strict"`
}

type tokenizeResponse struct {
	Tokens   []string `json:"tokens"`
	Language string   `json:"language"`
	Unknown  []string `json:"unknown"`
}

func (h *handler) handleTokenize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes(h.opts.maxTextBytes))

	var req tokenizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if req.Text == nil {
		writeError(w, http.StatusBadRequest, "text field is required")
		return
	}
	input := *req.Text

	if len(input) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return
	}

	start := time.Now()
	segs := h.seg.Segment(input, req.Language)

	resp := tokenizeResponse{
		Tokens:   make([]string, 0, len(segs)),
		Language: h.catalog.Lookup(req.Language).ID(),
		Unknown:  []string{},
	}
	for _, tok := range segs {
		if tok.Source == tokenizer.SourceUnknown {
			resp.Unknown = append(resp.Unknown, tok.Text)
		}
		if !tok.Boundary {
			resp.Tokens = append(resp.Tokens, tok.Text)
		}
	}
	durationMS := time.Since(start).Milliseconds()

	attrs := []any{
		slog.String("request_id", RequestID(r.Context())),
		slog.String("language", resp.Language),
		slog.Int("text_len", len(input)),
		slog.Int("tokens", len(resp.Tokens)),
		slog.Int("unknown", len(resp.Unknown)),
		slog.Int64("duration_ms", durationMS),
	}

	if req.Strict && len(resp.Unknown) > 0 {
		h.log.WarnContext(r.Context(), "tokenize rejected", attrs...)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   fmt.Sprintf("unknown symbol %q", resp.Unknown[0]),
			"unknown": resp.Unknown,
		})
		return
	}

	h.log.InfoContext(r.Context(), "tokenize complete", attrs...)
	writeJSON(w, http.StatusOK, resp)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server: wires handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

// ErrNoSegmenter is returned by Start when the server has nothing to serve.
var ErrNoSegmenter = errors.New("server: segmenter is required")

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	seg             *tokenizer.Segmenter
	log             *slog.Logger
	shutdownTimeout time.Duration
}

func New(cfg config.Config, seg *tokenizer.Segmenter) *Server {
	timeout := 30 * time.Second
	if cfg.Server.ShutdownTimeout > 0 {
		timeout = time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	}
	return &Server{
		cfg:             cfg,
		seg:             seg,
		log:             slog.Default(),
		shutdownTimeout: timeout,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// WithLogger overrides the logger used for lifecycle and request logging.
func (s *Server) WithLogger(l *slog.Logger) *Server {
	s.log = l
	return s
}

func (s *Server) Start(ctx context.Context) error {
	if s.seg == nil {
		return ErrNoSegmenter
	}

	h := NewHandler(s.seg, s.seg.Index(),
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithLogger(s.log),
	)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.log.Info("server listening",
		slog.String("addr", s.cfg.Server.ListenAddr),
		slog.String("inventory_digest", s.seg.Index().Digest()),
	)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

// ProbeHTTP checks that a server answers GET /health on addr and returns the
// inventory digest it reports.
func ProbeHTTP(addr string) (string, error) {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected health status: %s", resp.Status)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode health response: %w", err)
	}
	return body["inventory_digest"], nil
}
