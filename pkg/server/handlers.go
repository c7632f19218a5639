package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/docmap/pkg/buildinfo"
	"github.com/matzehuels/docmap/pkg/canvas"
	"github.com/matzehuels/docmap/pkg/errors"
	"github.com/matzehuels/docmap/pkg/geom"
	"github.com/matzehuels/docmap/pkg/handles"
	"github.com/matzehuels/docmap/pkg/model"
	"github.com/matzehuels/docmap/pkg/pipeline"
	"github.com/matzehuels/docmap/pkg/sink"
)

// WarningsHeader carries the number of export warnings.
const WarningsHeader = "X-Docmap-Warnings"

// CanvasRequest is a snapshot posted by the browser canvas. UI-only fields
// are accepted and dropped.
type CanvasRequest struct {
	Nodes []model.UINode `json:"nodes" validate:"max=5000"`
	Edges []model.UIEdge `json:"edges" validate:"max=20000"`
}

func (c CanvasRequest) snapshot() model.Snapshot {
	return model.Snapshot{Nodes: model.StripNodes(c.Nodes), Edges: model.StripEdges(c.Edges)}
}

// ExportRequest is the body of POST /api/export.
type ExportRequest struct {
	CanvasRequest
	Title      string  `json:"title" validate:"max=200"`
	Format     string  `json:"format"`
	Filename   string  `json:"filename"`
	Padding    float64 `json:"padding" validate:"min=0,max=1000"`
	Background string  `json:"background" validate:"max=64"`
	Scale      float64 `json:"scale" validate:"min=0,max=8"`
	Pinned     bool    `json:"pinned"`
}

// RenderResponse is the body returned by POST /api/render.
type RenderResponse struct {
	Nodes   []canvas.RenderableNode `json:"nodes"`
	Edges   []canvas.RenderableEdge `json:"edges"`
	Skipped []canvas.Skip           `json:"skipped,omitempty"`
}

// ErrorResponse is the body of every error.
type ErrorResponse struct {
	Error     errors.Code `json:"error"`
	Message   string      `json:"message"`
	Notice    bool        `json:"notice,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Get()})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req CanvasRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	snap := req.snapshot()
	res, err := s.runner.Edges(r.Context(), snap, s.options())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	nodes := canvas.RenderableNodes(snap.Nodes, canvas.WithRegistry(s.registry))
	if nodes == nil {
		nodes = []canvas.RenderableNode{}
	}
	s.respondJSON(w, http.StatusOK, RenderResponse{Nodes: nodes, Edges: res.Edges, Skipped: res.Skipped})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	opts := s.options()
	opts.Title = req.Title
	opts.Padding = req.Padding
	opts.Background = req.Background
	opts.Scale = req.Scale
	opts.Pinned = req.Pinned
	s.export(w, r, req.snapshot(), opts, req.Format, req.Filename)
}

func (s *Server) handleMapEdges(w http.ResponseWriter, r *http.Request) {
	snap, _, err := s.loadSnapshot(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	res, err := s.runner.Edges(r.Context(), snap, s.options())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleMapExport(w http.ResponseWriter, r *http.Request) {
	snap, title, err := s.loadSnapshot(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	q := r.URL.Query()
	opts := s.options()
	opts.Title = title
	if t := q.Get("title"); t != "" {
		opts.Title = t
	}
	opts.Background = q.Get("background")
	opts.Pinned = q.Get("pinned") == "true"
	opts.Refresh = q.Get("refresh") == "true"
	if opts.Padding, err = queryFloat(q.Get("padding"), "padding"); err == nil {
		opts.Scale, err = queryFloat(q.Get("scale"), "scale")
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.export(w, r, snap, opts, q.Get("format"), q.Get("filename"))
}

// queryFloat parses an optional non-negative query parameter.
func queryFloat(v, name string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be a non-negative number", name)
	}
	return f, nil
}

// export renders a single format and writes it as an attachment.
func (s *Server) export(w http.ResponseWriter, r *http.Request, snap model.Snapshot, opts pipeline.Options, format, filename string) {
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := errors.ValidateFormat(format); err != nil {
		s.respondError(w, r, err)
		return
	}
	format = strings.ToLower(format)
	opts.Formats = []string{format}

	res, err := s.runner.Export(r.Context(), snap, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if filename == "" {
		filename = res.Filenames[format]
	} else if err := errors.ValidateFilename(filename); err != nil {
		s.respondError(w, r, err)
		return
	}

	data := res.Artifacts[format]
	h := w.Header()
	h.Set("Content-Type", sink.ContentType(filename))
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set(WarningsHeader, strconv.Itoa(len(res.Warnings)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// loadSnapshot reads the map named in the path, or one of its views when
// ?view= is set. A multi-view map needs a view.
func (s *Server) loadSnapshot(r *http.Request) (model.Snapshot, string, error) {
	if s.store == nil {
		return model.Snapshot{}, "", errors.New(errors.ErrCodeUnsupported, "no map store is configured")
	}
	ctx := r.Context()
	id := chi.URLParam(r, "mapID")
	if slug := r.URL.Query().Get("view"); slug != "" {
		v, err := s.store.View(ctx, id, slug)
		if err != nil {
			return model.Snapshot{}, "", err
		}
		return v.Snapshot(), v.Title, nil
	}
	m, err := s.store.Map(ctx, id)
	if err != nil {
		return model.Snapshot{}, "", err
	}
	if m.ViewType == model.ViewMulti && len(m.Views) > 0 {
		return model.Snapshot{}, "", errors.New(errors.ErrCodeInvalidInput,
			"map %s has %d views; choose one with ?view=", id, len(m.Views))
	}
	return m.Snapshot(), m.Title, nil
}

func (s *Server) handleHandles(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, handles.For(model.NodeType(chi.URLParam(r, "type"))))
}

func (s *Server) handleSize(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, geom.SizeFor(model.NodeType(chi.URLParam(r, "type"))))
}

// handleStyleSheet serves the node classes. Node boxes are not in it: they
// arrive per node as RenderableNode.Style.
func (s *Server) handleStyleSheet(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, geom.StyleSheet())
}

func (s *Server) options() pipeline.Options {
	return pipeline.Options{Registry: s.registry, ThemeHash: s.themeHash, Logger: s.logger}
}

// decode reads a JSON body into v and validates it.
func (s *Server) decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "request body is not valid JSON: %v", err)
	}
	if err := s.validate.Struct(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request: %v", err)
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if code == "" {
		// Only coded errors carry a message fit for clients.
		code, msg = errors.ErrCodeInternal, "internal error"
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err, "request_id", RequestID(r.Context()))
	}
	s.respondJSON(w, status, ErrorResponse{
		Error:     code,
		Message:   msg,
		Notice:    errors.IsNotice(err),
		RequestID: RequestID(r.Context()),
	})
}

func notFound(path string) error {
	return errors.New(errors.ErrCodeNotFound, "no route for %s", path)
}
