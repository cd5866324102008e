package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/bitspec/pkg/layout"
	"github.com/ssargent/bitspec/pkg/metrics"
	"github.com/ssargent/bitspec/pkg/schemafile"
	"github.com/ssargent/bitspec/pkg/storage"
)

const sensorSchema = `
name: sensor
fields:
  - name: id
    type: uint
    bits: 4
  - name: count
    type: uint
    bits: 3
  - name: samples
    type: list
    length: count
    of:
      type: int
      bits: 10
`

type testEnv struct {
	server *Server
	store  *storage.Store
	reg    *prometheus.Registry
}

func setupTestServer(t *testing.T, config ServerConfig) *testEnv {
	t.Helper()

	l, err := schemafile.Parse([]byte(sensorSchema))
	require.NoError(t, err)
	cache := layout.NewCache()
	require.NoError(t, cache.Put(l))

	st, err := storage.Open("db", storage.Options{FS: vfs.NewMem()})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	reg := prometheus.NewRegistry()
	server := NewServer(config, Deps{
		Layouts:  cache,
		Store:    st,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
	})
	return &testEnv{server: server, store: st, reg: reg}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, req)

	var resp APIResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func dataMap(t *testing.T, resp APIResponse) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return m
}

func TestServer_Health(t *testing.T) {
	env := setupTestServer(t, ServerConfig{})
	w, resp := env.do(t, http.MethodGet, "/api/v1/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "healthy", dataMap(t, resp)["status"])
	assert.Equal(t, 1.0, dataMap(t, resp)["layouts"])
}

func TestServer_Layouts(t *testing.T) {
	env := setupTestServer(t, ServerConfig{})

	w, resp := env.do(t, http.MethodGet, "/api/v1/layouts", "")
	require.Equal(t, http.StatusOK, w.Code)
	list, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, list, 1)

	w, resp = env.do(t, http.MethodGet, "/api/v1/layouts/sensor", "")
	require.Equal(t, http.StatusOK, w.Code)
	info := dataMap(t, resp)
	assert.Equal(t, "sensor", info["name"])
	assert.Len(t, info["fingerprint"], 64)
	fields := info["fields"].([]any)
	require.Len(t, fields, 3)
	assert.Equal(t, "list[@count,slice](int16(10))", fields[2].(map[string]any)["codec"])

	w, resp = env.do(t, http.MethodGet, "/api/v1/layouts/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
}

func TestServer_Defaults(t *testing.T) {
	env := setupTestServer(t, ServerConfig{})
	w, resp := env.do(t, http.MethodGet, "/api/v1/layouts/sensor/defaults", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"id": 0.0, "count": 0.0, "samples": []any{}}, dataMap(t, resp))
}

func TestServer_EncodeDecode(t *testing.T) {
	env := setupTestServer(t, ServerConfig{})

	w, resp := env.do(t, http.MethodPost, "/api/v1/layouts/sensor/encode",
		`{"id": 5, "count": 2, "samples": [-1, 3]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	enc := dataMap(t, resp)
	assert.Equal(t, 27.0, enc["bits"])
	assert.Equal(t, 5.0, enc["padding"])

	body, err := json.Marshal(map[string]any{"hex": enc["hex"], "padding": enc["padding"]})
	require.NoError(t, err)
	w, resp = env.do(t, http.MethodPost, "/api/v1/layouts/sensor/decode", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, map[string]any{"id": 5.0, "count": 2.0, "samples": []any{-1.0, 3.0}}, dataMap(t, resp))
}

func TestServer_EncodeOctetStream(t *testing.T) {
	env := setupTestServer(t, ServerConfig{})

	w, _ := env.do(t, http.MethodPost, "/api/v1/layouts/sensor/encode",
		`{"id": 15, "count": 0, "samples": []}`, "Accept", contentTypeOctetStream)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []byte{0xF0}, w.Body.Bytes())
	assert.Equal(t, "1", w.Header().Get("X-Bitspec-Padding"))

	w, resp := env.do(t, http.MethodPost, "/api/v1/layouts/sensor/decode?padding=1",
		string([]byte{0xF0}), "Content-Type", contentTypeOctetStream)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 15.0, dataMap(t, resp)["id"])
}

func TestServer_CodecErrors(t *testing.T) {
	env := setupTestServer(t, ServerConfig{})

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"overflow", "encode", `{"id": 16, "count": 0, "samples": []}`, http.StatusUnprocessableEntity},
		{"missing field", "encode", `{"id": 1}`, http.StatusUnprocessableEntity},
		{"not json", "encode", `{`, http.StatusBadRequest},
		{"trailing data", "decode", `{"hex": "00ff", "padding": 0}`, http.StatusUnprocessableEntity},
		{"out of data", "decode", `{"hex": "", "padding": 0}`, http.StatusUnprocessableEntity},
		{"bad hex", "decode", `{"hex": "zz"}`, http.StatusBadRequest},
		{"bad padding", "decode", `{"hex": "00", "padding": 9}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := env.do(t, http.MethodPost, "/api/v1/layouts/sensor/"+tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestServer_BodyLimit(t *testing.T) {
	env := setupTestServer(t, ServerConfig{MaxBodyBytes: 16})
	w, _ := env.do(t, http.MethodPost, "/api/v1/layouts/sensor/encode",
		`{"id": 5, "count": 2, "samples": [-1, 3]}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestServer_Dump(t *testing.T) {
	env := setupTestServer(t, ServerConfig{})

	w, resp := env.do(t, http.MethodPost, "/api/v1/layouts/sensor/dump", `{"hex": "a0", "padding": 1}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fields := dataMap(t, resp)["fields"].([]any)
	require.Len(t, fields, 3)
	first := fields[0].(map[string]any)
	assert.Equal(t, "id", first["name"])
	assert.Equal(t, []any{"1010"}, first["groups"])
	assert.Equal(t, 10.0, first["value"])

	// Count claims one sample that is not there.
	w, resp = env.do(t, http.MethodPost, "/api/v1/layouts/sensor/dump", `{"hex": "a2", "padding": 0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	partial := dataMap(t, resp)
	assert.NotEmpty(t, partial["error"])
	assert.Len(t, partial["fields"], 2)
}

func TestServer_Records(t *testing.T) {
	env := setupTestServer(t, ServerConfig{})
	base := "/api/v1/layouts/sensor/records"

	w, resp := env.do(t, http.MethodPost, base, `{"id": 1, "count": 1, "samples": [7]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := dataMap(t, resp)["id"].(string)
	require.NotEmpty(t, id)

	w, resp = env.do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{id}, resp.Data)

	w, resp = env.do(t, http.MethodGet, base+"/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	got := dataMap(t, resp)
	assert.Equal(t, map[string]any{"id": 1.0, "count": 1.0, "samples": []any{7.0}}, got["record"])

	w, _ = env.do(t, http.MethodDelete, base+"/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodGet, base+"/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.do(t, http.MethodGet, base+"/not-a-ksuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, base, `{"id": 99, "count": 0, "samples": []}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestServer_NoStore(t *testing.T) {
	server := NewServer(ServerConfig{}, Deps{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/layouts/x/records", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServer_Metrics(t *testing.T) {
	env := setupTestServer(t, ServerConfig{})
	env.do(t, http.MethodPost, "/api/v1/layouts/sensor/encode", `{"id": 5, "count": 0, "samples": []}`)

	w, _ := env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	text := w.Body.String()
	assert.Contains(t, text, `bitspec_codec_operations_total{layout="sensor",operation="encode",status="success"} 1`)
	assert.Contains(t, text, `bitspec_http_requests_total{method="POST",route="/api/v1/layouts/{name}/encode",status_code="200"} 1`)
}

func TestServer_APIKey(t *testing.T) {
	env := setupTestServer(t, ServerConfig{APIKey: "secret"})

	w, resp := env.do(t, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Missing X-API-Key header", resp.Error)

	w, resp = env.do(t, http.MethodGet, "/api/v1/health", "", "X-API-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid API key", resp.Error)

	w, _ = env.do(t, http.MethodGet, "/api/v1/health", "", "X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, w.Code)

	// Metrics stay open for scraping.
	w, _ = env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_Addr(t *testing.T) {
	s := NewServer(ServerConfig{Bind: "127.0.0.1", Port: 9200}, Deps{})
	assert.Equal(t, "127.0.0.1:9200", s.Addr())
}

func TestSendError(t *testing.T) {
	w := httptest.NewRecorder()
	sendError(w, "boom", http.StatusTeapot)

	assert.Equal(t, http.StatusTeapot, w.Code)
	var resp APIResponse
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "boom", resp.Error)
}

func TestDefaultServerStarter_StopsOnCancel(t *testing.T) {
	starter := NewServerFactory().CreateServerStarter()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := starter.StartServer(ctx, ServerConfig{Bind: "127.0.0.1", Port: 0}, Deps{})
	assert.NoError(t, err)
}
