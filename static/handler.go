// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package static

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/z5labs/tinyserve/internal/otelslog"
	"github.com/z5labs/tinyserve/internal/slogfield"
	"github.com/z5labs/tinyserve/internal/try"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultReadTimeout  = 5 * time.Second
	DefaultWriteTimeout = 10 * time.Second

	instrumentationName = "github.com/z5labs/tinyserve/static"
	errorPageSubtype    = "html"
)

var (
	badRequestBody    = []byte("<h1>400 Bad Request</h1>")
	internalErrorBody = []byte("<h1>500 Internal Server Error</h1>")
)

// Option configures a [Handler].
type Option func(*Handler)

// ReadTimeout bounds how long reading the request line may take.
func ReadTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.readTimeout = d
	}
}

// WriteTimeout bounds how long writing the response may take.
func WriteTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.writeTimeout = d
	}
}

// LogHandler sets the handler for error and access logs.
func LogHandler(lh slog.Handler) Option {
	return func(h *Handler) {
		h.log = otelslog.New(lh)
	}
}

// Handler serves exactly one request per connection.
type Handler struct {
	log          *slog.Logger
	resolver     Resolver
	readTimeout  time.Duration
	writeTimeout time.Duration

	tracer    trace.Tracer
	responses metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewHandler returns a [Handler] serving files found by resolver.
func NewHandler(resolver Resolver, opts ...Option) (*Handler, error) {
	h := &Handler{
		log:          slog.New(otelslog.NoopHandler{}),
		resolver:     resolver,
		readTimeout:  DefaultReadTimeout,
		writeTimeout: DefaultWriteTimeout,
		tracer:       otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(h)
	}

	meter := otel.Meter(instrumentationName)
	var err error
	h.responses, err = meter.Int64Counter(
		"tinyserve.static.responses",
		metric.WithDescription("Number of responses written, by status code."),
	)
	if err != nil {
		return nil, err
	}
	h.duration, err = meter.Float64Histogram(
		"tinyserve.static.request.duration",
		metric.WithDescription("Time spent serving a connection."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// ServeConn reads one request from conn, writes the response and closes
// conn. Malformed requests are answered with 400 and a missing not found
// page with 500. The returned error is only non-nil when the connection
// itself failed.
func (h *Handler) ServeConn(ctx context.Context, conn net.Conn) (err error) {
	spanCtx, span := h.tracer.Start(ctx, "Handler.ServeConn", trace.WithAttributes(
		attribute.String("net.peer.addr", remoteAddr(conn)),
	))
	defer span.End()
	defer try.Close(&err, conn)

	start := time.Now()
	status, err := h.serve(spanCtx, conn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.Int("response.status_code", status.Code()))
	attrs := metric.WithAttributes(attribute.Int("status_code", status.Code()))
	h.responses.Add(spanCtx, 1, attrs)
	h.duration.Record(spanCtx, time.Since(start).Seconds(), attrs)
	return nil
}

func (h *Handler) serve(ctx context.Context, conn net.Conn) (Status, error) {
	now := time.Now()
	err := conn.SetReadDeadline(now.Add(h.readTimeout))
	if err != nil {
		return 0, err
	}
	err = conn.SetWriteDeadline(now.Add(h.writeTimeout))
	if err != nil {
		return 0, err
	}

	req, err := h.readRequest(ctx, conn)
	if errors.Is(err, ErrMalformedRequest) {
		h.log.ErrorContext(ctx, "received malformed request", slogfield.Error(err))
		return h.write(ctx, conn, StatusBadRequest, errorPageSubtype, badRequestBody)
	}
	if err != nil {
		h.log.ErrorContext(ctx, "failed to read request", slogfield.Error(err))
		return 0, err
	}

	h.log.DebugContext(
		ctx,
		"received request",
		slogfield.String("method", req.Method),
		slogfield.String("path", req.Path),
		slogfield.String("http_version", req.HTTPVersion),
		slogfield.Time("received_at", req.ReceivedAt),
	)

	status, body, err := h.resolve(ctx, req.Path)
	if err != nil {
		h.log.ErrorContext(ctx, "failed to resolve request path", slogfield.String("path", req.Path), slogfield.Error(err))
		return h.write(ctx, conn, StatusInternalServerError, errorPageSubtype, internalErrorBody)
	}
	return h.write(ctx, conn, status, ContentSubtype(req.Path, status == StatusOK), body)
}

func (h *Handler) readRequest(ctx context.Context, conn net.Conn) (Request, error) {
	_, span := h.tracer.Start(ctx, "Handler.readRequest")
	defer span.End()

	req, err := ReadRequest(conn)
	if err != nil {
		span.RecordError(err)
		return Request{}, err
	}
	span.SetAttributes(
		attribute.String("request.method", req.Method),
		attribute.String("request.path", req.Path),
	)
	return req, nil
}

func (h *Handler) resolve(ctx context.Context, path string) (_ Status, _ []byte, err error) {
	_, span := h.tracer.Start(ctx, "Handler.resolve")
	defer span.End()

	resolved, err := h.resolver.Resolve(path)
	if err != nil {
		span.RecordError(err)
		return 0, nil, err
	}
	defer try.Close(&err, resolved.File)

	body, err := io.ReadAll(resolved.File)
	if err != nil {
		span.RecordError(err)
		return 0, nil, err
	}

	status := StatusOK
	if !resolved.Found {
		status = StatusNotFound
	}
	span.SetAttributes(attribute.Bool("file.found", resolved.Found))
	return status, body, nil
}

func (h *Handler) write(ctx context.Context, w io.Writer, status Status, subtype string, body []byte) (Status, error) {
	_, span := h.tracer.Start(ctx, "Handler.write")
	defer span.End()

	_, err := w.Write(BuildResponse(status, subtype, body))
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return status, nil
}

func remoteAddr(conn net.Conn) string {
	addr := conn.RemoteAddr()
	if addr == nil {
		return ""
	}
	return addr.String()
}
