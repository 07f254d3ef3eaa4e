package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/callchain/pkg/buildinfo"
	cerrors "github.com/matzehuels/callchain/pkg/errors"
	pkgio "github.com/matzehuels/callchain/pkg/io"
	"github.com/matzehuels/callchain/pkg/observability"
	"github.com/matzehuels/callchain/pkg/pipeline"
	"github.com/matzehuels/callchain/pkg/profile"
)

// maxRequestBody caps request bodies at 64 MiB.
const maxRequestBody = 64 << 20

// server holds the HTTP handlers of the serve command.
type server struct {
	runner   *pipeline.Runner
	logger   *log.Logger
	pageSize uint64
	metrics  http.Handler
}

func newServer(runner *pipeline.Runner, logger *log.Logger, pageSize uint64, metrics http.Handler) *server {
	return &server{runner: runner, logger: logger, pageSize: pageSize, metrics: metrics}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/order", s.handleOrder)
		r.Post("/graph", s.handleGraph)
	})
	return r
}

// instrument reports every request to the HTTP hooks and the debug log.
func (s *server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start))
	})
}

// =============================================================================
// Request and Response Types
// =============================================================================

// orderRequest is the body of POST /v1/order and POST /v1/graph.
type orderRequest struct {
	Objects   json.RawMessage `json:"objects"` // object description, as in the objects file
	Profile   string          `json:"profile"` // "caller callee count" lines
	PageSize  uint64          `json:"page_size,omitempty"`
	ImageBase uint64          `json:"image_base,omitempty"`
	Format    string          `json:"format,omitempty"`
	Place     bool            `json:"place,omitempty"`
	Detailed  bool            `json:"detailed,omitempty"`
	MinWeight uint64          `json:"min_weight,omitempty"`
	Refresh   bool            `json:"refresh,omitempty"`
}

// orderResponse is the JSON reply of POST /v1/order.
type orderResponse struct {
	pkgio.OrderDocument
	Cached    bool            `json:"cached"`
	Placement []placedSection `json:"placement,omitempty"`
}

type placedSection struct {
	Name    string `json:"name"`
	Segment string `json:"segment"`
	Addr    uint64 `json:"addr"`
	Size    uint64 `json:"size"`
	Rank    int    `json:"rank,omitempty"`
}

type errorResponse struct {
	Error string       `json:"error"`
	Code  cerrors.Code `json:"code,omitempty"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *server) handleOrder(w http.ResponseWriter, r *http.Request) {
	req, in, opts, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if req.Format == "" {
		req.Format = pkgio.OrderJSON
	}
	if !pkgio.ValidOrderFormats[req.Format] {
		s.writeError(w, cerrors.New(cerrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: symbols, sections, json)", req.Format))
		return
	}

	res, hit, err := s.runner.ClusterWithCacheInfo(r.Context(), in, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	setCacheHeader(w, hit)

	if req.Format != pkgio.OrderJSON {
		var buf bytes.Buffer
		if err := pkgio.WriteOrder(&buf, req.Format, res, in.Table, opts.PageSize); err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write(buf.Bytes())
		return
	}

	resp := orderResponse{
		OrderDocument: pkgio.NewOrderDocument(res, in.Table, opts.PageSize),
		Cached:        hit,
	}
	resp.RunID = uuid.NewString()

	if req.Place {
		placement, err := s.runner.Place(r.Context(), in, res, opts)
		if err != nil {
			s.writeError(w, err)
			return
		}
		for _, p := range placement.Sections {
			resp.Placement = append(resp.Placement, placedSection{
				Name:    p.Section.Name,
				Segment: p.Segment,
				Addr:    p.Addr,
				Size:    p.Section.Size,
				Rank:    p.Rank,
			})
		}
	}

	s.logger.Info("ordered sections",
		"run", resp.RunID[:8],
		"ranked", len(res.Order),
		"clusters", len(res.Clusters),
		"cached", hit)
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleGraph(w http.ResponseWriter, r *http.Request) {
	req, in, opts, err := s.decode(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts.Format = req.Format
	opts.Detailed = req.Detailed
	opts.MinWeight = req.MinWeight
	if err := opts.ValidateForRender(); err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.runner.Cluster(r.Context(), in, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, hit, err := s.runner.RenderWithCacheInfo(r.Context(), in, res, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	setCacheHeader(w, hit)
	w.Header().Set("Content-Type", contentType(opts.Format))
	w.Write(data)
}

// decode reads an orderRequest and loads its inputs. The returned options
// carry the validated page size.
func (s *server) decode(w http.ResponseWriter, r *http.Request) (orderRequest, *pipeline.Inputs, pipeline.Options, error) {
	var req orderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, nil, pipeline.Options{}, cerrors.Wrap(cerrors.ErrCodeInvalidInput, err, "decode request")
	}
	if len(req.Objects) == 0 {
		return req, nil, pipeline.Options{}, cerrors.New(cerrors.ErrCodeInvalidInput, "objects is required")
	}

	tab, err := pkgio.ReadObjects(bytes.NewReader(req.Objects), pkgio.FormatJSON)
	if err != nil {
		return req, nil, pipeline.Options{}, err
	}
	p, err := profile.Parse(strings.NewReader(req.Profile))
	if err != nil {
		return req, nil, pipeline.Options{}, err
	}
	in, err := pipeline.NewInputs(tab, p)
	if err != nil {
		return req, nil, pipeline.Options{}, err
	}

	opts := pipeline.Options{
		PageSize:  req.PageSize,
		ImageBase: req.ImageBase,
		Refresh:   req.Refresh,
		Logger:    s.logger,
	}
	if opts.PageSize == 0 {
		opts.PageSize = s.pageSize
	}
	if err := opts.ValidateForCluster(); err != nil {
		return req, nil, pipeline.Options{}, err
	}
	return req, in, opts, nil
}

// =============================================================================
// Response Helpers
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	status := cerrors.HTTPStatus(err)
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		status = http.StatusRequestEntityTooLarge
	}

	resp := errorResponse{Error: err.Error(), Code: cerrors.GetCode(err)}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
		resp = errorResponse{Error: "internal error", Code: cerrors.ErrCodeInternal}
	}
	writeJSON(w, status, resp)
}

func setCacheHeader(w http.ResponseWriter, hit bool) {
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatPNG:
		return "image/png"
	default:
		return "text/vnd.graphviz; charset=utf-8"
	}
}
