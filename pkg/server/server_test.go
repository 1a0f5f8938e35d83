package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdeck/agentdeck/pkg/config"
	"github.com/agentdeck/agentdeck/pkg/registry"
)

// fakeAgent serves an agent card plus a minimal REST surface and records
// the authorization it saw.
type fakeAgent struct {
	server   *httptest.Server
	lastAuth string
}

func newFakeAgent(t *testing.T) *fakeAgent {
	t.Helper()
	agent := &fakeAgent{}
	mux := http.NewServeMux()
	mux.HandleFunc("/card.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"name":"demo","url":"%s/","preferredTransport":"HTTP+JSON","version":"0.9.0"}`, agent.server.URL)
	})
	mux.HandleFunc("/v1/tasks", func(w http.ResponseWriter, r *http.Request) {
		agent.lastAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `[
			{"kind":"task","id":"T1","status":{"state":"working"}},
			{"kind":"task","id":"T2","status":{"state":"completed"}},
			{"kind":"task","id":"T3","status":{"state":"failed"}}
		]`)
	})
	mux.HandleFunc("/v1/message:stream", func(w http.ResponseWriter, r *http.Request) {
		agent.lastAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"kind\":\"status-update\",\"taskId\":\"T9\",\"status\":{\"state\":\"completed\"},\"final\":true}\n\n")
	})
	agent.server = httptest.NewServer(mux)
	t.Cleanup(agent.server.Close)
	return agent
}

func newTestServer(t *testing.T) (*Server, *fakeAgent) {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return New(*cfg, registry.New()), newFakeAgent(t)
}

func configureProxy(t *testing.T, srv *Server, agent *fakeAgent, bearer string) {
	t.Helper()
	body := fmt.Sprintf(`{"cardUrl":%q,"authBearer":%q}`, agent.server.URL+"/card.json", bearer)
	req := httptest.NewRequest(http.MethodPost, "/api/proxy/config", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestServer_Healthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_ProxyConfigRegistersAgent(t *testing.T) {
	srv, agent := newTestServer(t)
	configureProxy(t, srv, agent, "Bearer top-secret-1234")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/agents", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `"name":"demo"`)
	assert.Contains(t, body, `"active":true`)
	assert.Contains(t, body, `"authLabel":"bearer ****1234"`)
	// The raw credential never appears in API responses.
	assert.NotContains(t, body, "top-secret")
}

func TestServer_ProxyConfigRejectsMissingCardURL(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/proxy/config", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ProxyAttachesAuthorization(t *testing.T) {
	srv, agent := newTestServer(t)
	configureProxy(t, srv, agent, "Bearer top-secret")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	// A caller-supplied header must not override the stored credential.
	req.Header.Set("Authorization", "Bearer spoofed")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bearer top-secret", agent.lastAuth)
	assert.Contains(t, rec.Body.String(), `"id":"T1"`)
}

func TestServer_ProxyStreamsEvents(t *testing.T) {
	srv, agent := newTestServer(t)
	configureProxy(t, srv, agent, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/message:stream", strings.NewReader(`{"message":{"kind":"message","role":"user","messageId":"m1","parts":[{"kind":"text","text":"hi"}]}}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"final":true`)
}

func TestServer_ProxyWithoutActiveAgent(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestServer_Summary(t *testing.T) {
	srv, agent := newTestServer(t)
	configureProxy(t, srv, agent, "")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `"total":3`)
	assert.Contains(t, body, `"active":1`)
	assert.Contains(t, body, `"terminal":2`)
}

func TestServer_ActivateAndRemoveAgent(t *testing.T) {
	srv, agent := newTestServer(t)
	configureProxy(t, srv, agent, "")

	records := srv.registry.List()
	require.Len(t, records, 1)
	id := records[0].ID

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/agents/"+id+"/activate", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/agents/"+id, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/agents/"+id+"/activate", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "agentdeck_http_requests_total")
}
