// Package server exposes the converter over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bjaus/xmlconv"
	"github.com/bjaus/xmlconv/internal/config"
	"github.com/bjaus/xmlconv/internal/ctxlog"
)

// noDataMessage is the body message for documents without a record list.
const noDataMessage = "No valid data to convert."

// Server serves conversion requests.
type Server struct {
	cfg    config.Server
	opts   []xmlconv.Option
	logger *slog.Logger
}

// New creates a server. opts are applied to every conversion.
func New(cfg config.Server, logger *slog.Logger, opts ...xmlconv.Option) *Server {
	return &Server{cfg: cfg, opts: opts, logger: logger}
}

// Handler returns the routed handler with request ID, logging and panic
// recovery applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("POST /v1/convert/xml_to_json", s.convert(xmlconv.JSON, fixedInput(xmlconv.XMLInput)))
	mux.Handle("POST /v1/convert/xml_to_yaml", s.convert(xmlconv.YAML, fixedInput(xmlconv.XMLInput)))
	mux.Handle("POST /v1/convert/xml_to_csv", s.convert(xmlconv.CSV, fixedInput(xmlconv.XMLInput)))
	mux.HandleFunc("POST /v1/convert/{format}", s.handleConvert)
	return s.withRequestID(s.withLogging(s.withRecover(mux)))
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully within the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Server shutting down", "timeout", s.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctxlog.FromContext(r.Context()).Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	f, err := xmlconv.ParseFormat(r.PathValue("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.convert(f, requestInput).ServeHTTP(w, r)
}

// inputFunc picks the source format for a request.
type inputFunc func(*http.Request) (xmlconv.Input, error)

func fixedInput(in xmlconv.Input) inputFunc {
	return func(*http.Request) (xmlconv.Input, error) { return in, nil }
}

// requestInput reads the input format from the "input" query parameter,
// falling back to the Content-Type header and then to XML.
func requestInput(r *http.Request) (xmlconv.Input, error) {
	if q := r.URL.Query().Get("input"); q != "" {
		return xmlconv.ParseInput(q)
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return xmlconv.XMLInput, nil
	}
	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		return xmlconv.JSONInput, nil
	case strings.Contains(mediaType, "yaml"):
		return xmlconv.YAMLInput, nil
	default:
		return xmlconv.XMLInput, nil
	}
}

func (s *Server) convert(f xmlconv.Format, input inputFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		in, err := input(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		opts := append(append([]xmlconv.Option(nil), s.opts...), xmlconv.WithInput(in))
		// Render into a buffer so a failure never leaves a partial body.
		var buf bytes.Buffer
		if err := xmlconv.Convert(&buf, f, bytes.NewReader(body), opts...); err != nil {
			s.writeError(w, r, err)
			return
		}

		ctxlog.FromContext(r.Context()).Debug("Conversion complete.",
			"format", f.String(), "input", in.String(), "in_bytes", len(body), "out_bytes", buf.Len())
		w.Header().Set("Content-Type", contentType(f))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	})
}

func contentType(f xmlconv.Format) string {
	switch f {
	case xmlconv.JSON:
		return "application/json"
	case xmlconv.YAML:
		return "application/yaml"
	case xmlconv.CSV:
		return "application/csv"
	case xmlconv.TSV:
		return "text/tab-separated-values; charset=utf-8"
	case xmlconv.Markdown:
		return "text/markdown; charset=utf-8"
	case xmlconv.HTML:
		return "text/html; charset=utf-8"
	case xmlconv.JSONL:
		return "application/x-ndjson"
	case xmlconv.Parquet:
		return "application/vnd.apache.parquet"
	default:
		return "text/plain; charset=utf-8"
	}
}

type errorBody struct {
	Message string `json:"message"`
}

// writeError maps err to a status code and a JSON error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := ctxlog.FromContext(r.Context())
	var (
		status  int
		message string
		tooBig  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooBig):
		status, message = http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooBig.Limit)
		logger.Info("Request body too large.", "limit", tooBig.Limit)
	case errors.Is(err, xmlconv.ErrNoData):
		status, message = http.StatusBadRequest, noDataMessage
		logger.Info("No data to convert.")
	case errors.Is(err, xmlconv.ErrParse),
		errors.Is(err, xmlconv.ErrUnsupportedFormat),
		errors.Is(err, xmlconv.ErrUnsupportedInput),
		errors.Is(err, xmlconv.ErrInvalidTemplate):
		status, message = http.StatusBadRequest, err.Error()
		logger.Info("Rejected conversion request.", "error", err)
	default:
		status, message = http.StatusInternalServerError, "Internal Server Error: "+err.Error()
		logger.Error("Conversion failed.", "error", err)
	}
	writeJSON(w, status, errorBody{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// --- Middleware ---

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(code int) {
	if rec.status == 0 {
		rec.status = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(p []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(p)
	rec.bytes += n
	return n, err
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter { return rec.ResponseWriter }

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if r.URL.Path == "/health" {
			level = slog.LevelDebug
		}
		ctxlog.FromContext(r.Context()).Log(r.Context(), level, "Request handled.",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			ctxlog.FromContext(r.Context()).Error("Recovered from panic.", "panic", v)
			writeJSON(w, http.StatusInternalServerError, errorBody{
				Message: fmt.Sprintf("Internal Server Error: %v", v),
			})
		}()
		next.ServeHTTP(w, r)
	})
}
