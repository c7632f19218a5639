package server

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/docmap/pkg/handles"
	"github.com/matzehuels/docmap/pkg/metrics"
	"github.com/matzehuels/docmap/pkg/model"
	"github.com/matzehuels/docmap/pkg/observability"
	"github.com/matzehuels/docmap/pkg/pipeline"
	"github.com/matzehuels/docmap/pkg/store"
)

func sampleMap() *model.Map {
	return &model.Map{
		ID:    "payments",
		Title: "Payments",
		Nodes: []model.Node{
			{ID: "p", Type: model.NodeProduct, Data: model.NodeData{Label: "Payments"}},
			{ID: "c", Type: model.NodeComponent, Position: model.Position{X: 0, Y: 300}, Data: model.NodeData{Label: "Ledger"}},
		},
		Edges: []model.Edge{{ID: "pc", Source: "p", Target: "c"}},
	}
}

func multiViewMap() *model.Map {
	m := sampleMap()
	m.ID = "suite"
	m.ViewType = model.ViewMulti
	m.Views = []model.ProductView{
		{ID: "v1", Slug: "core", Title: "Core", OrderIndex: 0, Nodes: m.Nodes, Edges: m.Edges},
	}
	return m
}

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	for _, m := range []*model.Map{sampleMap(), multiViewMap()} {
		_, err := store.SaveMapFile(dir, m)
		require.NoError(t, err)
	}
	src, err := store.NewFileSource(dir)
	require.NoError(t, err)

	opts = append([]Option{WithStore(src)}, opts...)
	ts := httptest.NewServer(New(pipeline.NewRunner(nil, nil, nil), opts...).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "version")
}

func TestRequestIDPropagated(t *testing.T) {
	ts := newTestServer(t)
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123<script>")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123script", resp.Header.Get(RequestIDHeader))
}

func TestRender(t *testing.T) {
	ts := newTestServer(t)
	m := sampleMap()
	body := map[string]any{
		"nodes": []map[string]any{
			{"id": "p", "type": "product", "position": map[string]float64{"x": 0, "y": 0}, "data": map[string]any{"label": "Payments"}, "selected": true},
			{"id": "c", "type": "component", "position": map[string]float64{"x": 0, "y": 300}, "data": map[string]any{"label": "Ledger"}, "dragging": true},
		},
		"edges": []map[string]any{
			{"id": "pc", "source": "p", "target": "c", "animated": true},
			{"id": "dangling", "source": "p", "target": "zzz"},
		},
	}
	resp := postJSON(t, ts.URL+"/api/render", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out RenderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Len(t, out.Nodes, len(m.Nodes))
	require.Len(t, out.Edges, 1)
	assert.Equal(t, "pc", out.Edges[0].ID)
	require.Len(t, out.Skipped, 1)
	assert.Equal(t, "dangling", out.Skipped[0].EdgeID)
}

func TestRenderBadBody(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/render", "application/json", strings.NewReader("{nope"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", string(decodeError(t, resp).Error))
}

func TestRenderBodyTooLarge(t *testing.T) {
	ts := newTestServer(t, WithMaxBodyBytes(16))
	resp := postJSON(t, ts.URL+"/api/render", map[string]any{"nodes": []any{}, "edges": []any{}, "pad": strings.Repeat("x", 64)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportSVG(t *testing.T) {
	ts := newTestServer(t)
	m := sampleMap()
	resp := postJSON(t, ts.URL+"/api/export", map[string]any{
		"title": "Payments & Co",
		"nodes": m.Nodes,
		"edges": m.Edges,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="payments-co.svg"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "0", resp.Header.Get(WarningsHeader))

	dec := xml.NewDecoder(resp.Body)
	for {
		if _, err := dec.Token(); err != nil {
			assert.Equal(t, "EOF", err.Error(), "export must be well-formed XML")
			break
		}
	}
}

func TestExportErrors(t *testing.T) {
	ts := newTestServer(t)
	m := sampleMap()
	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   string
		notice bool
	}{
		{"empty canvas", map[string]any{"nodes": []any{}}, http.StatusUnprocessableEntity, "NOTHING_TO_EXPORT", true},
		{"bad format", map[string]any{"nodes": m.Nodes, "format": "gif"}, http.StatusBadRequest, "INVALID_FORMAT", false},
		{"bad filename", map[string]any{"nodes": m.Nodes, "filename": "../x.svg"}, http.StatusBadRequest, "INVALID_FILENAME", false},
		{"negative padding", map[string]any{"nodes": m.Nodes, "padding": -1}, http.StatusBadRequest, "INVALID_INPUT", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/export", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			e := decodeError(t, resp)
			assert.Equal(t, tt.code, string(e.Error))
			assert.Equal(t, tt.notice, e.Notice)
			assert.NotEmpty(t, e.Message)
			assert.NotEmpty(t, e.RequestID)
		})
	}
}

func TestMapRoutes(t *testing.T) {
	ts := newTestServer(t)

	resp := get(t, ts.URL+"/api/maps/payments/edges")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res struct {
		Edges []struct {
			ID string `json:"id"`
		} `json:"edges"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.Len(t, res.Edges, 1)

	resp = get(t, ts.URL+"/api/maps/payments/export?format=json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="payments.json"`, resp.Header.Get("Content-Disposition"))

	resp = get(t, ts.URL+"/api/maps/suite/export?view=core")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="core.svg"`, resp.Header.Get("Content-Disposition"))

	tests := []struct {
		url    string
		status int
		code   string
	}{
		{"/api/maps/missing/edges", http.StatusNotFound, "MAP_NOT_FOUND"},
		{"/api/maps/suite/edges?view=nope", http.StatusNotFound, "VIEW_NOT_FOUND"},
		{"/api/maps/suite/export", http.StatusBadRequest, "INVALID_INPUT"},
		{"/api/maps/payments/export?padding=abc", http.StatusBadRequest, "INVALID_INPUT"},
		{"/api/maps/payments/export?format=bmp", http.StatusBadRequest, "INVALID_FORMAT"},
		{"/api/nope", http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		resp := get(t, ts.URL+tt.url)
		assert.Equal(t, tt.status, resp.StatusCode, tt.url)
		assert.Equal(t, tt.code, string(decodeError(t, resp).Error), tt.url)
	}
}

func TestMapRoutesWithoutStore(t *testing.T) {
	ts := httptest.NewServer(New(pipeline.NewRunner(nil, nil, nil)).Handler())
	defer ts.Close()
	resp := get(t, ts.URL+"/api/maps/payments/edges")
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestNodeTypeRoutes(t *testing.T) {
	ts := newTestServer(t)

	resp := get(t, ts.URL+"/api/node-types/product/handles")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hs []handles.Handle
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&hs))
	assert.Equal(t, handles.For(model.NodeProduct), hs)

	resp = get(t, ts.URL+"/api/node-types/widget/handles")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	hs = nil
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&hs))
	assert.Empty(t, hs)

	resp = get(t, ts.URL+"/api/node-types/group/size")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rule map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rule))
	assert.Equal(t, "group", rule["type"])

	resp = get(t, ts.URL+"/api/node-types.css")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/css; charset=utf-8", resp.Header.Get("Content-Type"))
	css, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(css), ".docmap-node--product{")
	assert.NotContains(t, string(css), "width:")
}

func TestMetricsRoute(t *testing.T) {
	reg := metrics.NewRegistry()
	reg.Install()
	t.Cleanup(observability.Reset)

	ts := newTestServer(t, WithMetrics(reg.Handler()))
	get(t, ts.URL+"/api/node-types/product/size")

	resp := get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	assert.Contains(t, buf.String(), `route="/api/node-types/{type}/size"`)
}

func TestRecoverer(t *testing.T) {
	s := New(pipeline.NewRunner(nil, nil, nil))
	h := requestID(s.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}
