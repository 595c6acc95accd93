package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Someblueman/codeanalysis/internal/config"
	"github.com/Someblueman/codeanalysis/internal/tool"
)

func pipeClient(t *testing.T, framing string) *Client {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	serverSide, clientSide := net.Pipe()
	srv := NewServer(tool.NewService(nil, nil), Options{Timeout: 5 * time.Second, Framing: framing})
	go srv.ServeConn(ctx, serverSide)

	client := NewClient(ctx, clientSide, framing)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGetSpecOverRPC(t *testing.T) {
	for _, framing := range []string{config.FramingVSCode, config.FramingLine} {
		t.Run(framing, func(t *testing.T) {
			client := pipeClient(t, framing)
			spec, err := client.GetSpec(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tool.Name, spec.Name)
			assert.Contains(t, string(spec.ParametersSchema), `"required":["code"]`)
		})
	}
}

func TestExecuteOverRPC(t *testing.T) {
	client := pipeClient(t, config.FramingVSCode)
	resp, err := client.Execute(context.Background(), []byte(`{"action":"complexity","code":"def f(x):\n    if x:\n        return 1\n"}`), tool.ContentTypeJSON)
	require.NoError(t, err)
	require.True(t, resp.Success, resp.Error)
	assert.JSONEq(t, `{"f":{"complexity":2,"rating":"low","line":1}}`, string(resp.Output))

	resp, err = client.Execute(context.Background(), []byte(`{"action":"nope","code":"x = 1"}`), "")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Unknown action: nope", resp.Error)
	assert.Equal(t, tool.ContentTypeJSON, resp.ContentType)
}

func TestRPCErrors(t *testing.T) {
	client := pipeClient(t, config.FramingLine)

	err := client.Call(context.Background(), "ToolService.Missing", nil, nil)
	var rpcErr *jsonrpc2.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, int64(jsonrpc2.CodeMethodNotFound), rpcErr.Code)

	err = client.Call(context.Background(), MethodExecute, nil, nil)
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, int64(jsonrpc2.CodeInvalidParams), rpcErr.Code)

	err = client.Call(context.Background(), MethodExecute, []int{1}, nil)
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, int64(jsonrpc2.CodeInvalidParams), rpcErr.Code)
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(tool.NewService(nil, nil), Options{})
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	client, err := Dial(context.Background(), ln.Addr().String(), config.FramingVSCode)
	require.NoError(t, err)
	_, err = client.GetSpec(context.Background())
	require.NoError(t, err)
	_ = client.Close()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestHTTPAPI(t *testing.T) {
	api := NewAPIServer(tool.NewService(nil, nil), 5*time.Second, nil)
	ts := httptest.NewServer(api.Handler())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(ts.URL + "/api/spec")
	require.NoError(t, err)
	var spec map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&spec))
	res.Body.Close()
	assert.Equal(t, tool.Name, spec["name"])
	assert.NotEmpty(t, spec["parameters_json"])

	res, err = http.Post(ts.URL+"/api/execute", tool.ContentTypeJSON, strings.NewReader(`{"action":"analyze","code":"import os\n"}`))
	require.NoError(t, err)
	var view executeView
	require.NoError(t, json.NewDecoder(res.Body).Decode(&view))
	res.Body.Close()
	require.True(t, view.Success, view.Error)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
	assert.Contains(t, string(view.Output), `"module":"os"`)

	res, err = http.Post(ts.URL+"/api/execute", "text/plain", strings.NewReader(`{"code":"x"}`))
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(res.Body).Decode(&view))
	res.Body.Close()
	assert.False(t, view.Success)
	assert.Contains(t, view.Error, "unsupported content type")

	res, err = http.Post(ts.URL+"/api/execute", tool.ContentTypeJSON, strings.NewReader(`not json`))
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(res.Body).Decode(&view))
	res.Body.Close()
	assert.False(t, view.Success)
	assert.Contains(t, view.Error, "Invalid JSON input")
}

func TestHTTPExecuteBodyReadErrors(t *testing.T) {
	api := NewAPIServer(tool.NewService(nil, nil), 5*time.Second, nil)

	oversized := strings.NewReader(strings.Repeat("x", maxBodyBytes+1))
	req := httptest.NewRequest(http.MethodPost, "/api/execute", oversized)
	req.Header.Set("Content-Type", tool.ContentTypeJSON)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/execute", iotest.ErrReader(errors.New("connection reset")))
	req.Header.Set("Content-Type", tool.ContentTypeJSON)
	rec = httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var view executeView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.False(t, view.Success)
	assert.Contains(t, view.Error, "connection reset")
}
