package introspect_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dantte-lp/v2gsim/internal/introspect"
	"github.com/dantte-lp/v2gsim/internal/registry"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleHealthz(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	srv := httptest.NewServer(introspect.New(reg, discardLogger()).Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestHandleListSessionsEmpty(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	srv := httptest.NewServer(introspect.New(reg, discardLogger()).Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/v1/sessions")
	if err != nil {
		t.Fatalf("GET /v1/sessions: %v", err)
	}
	defer resp.Body.Close()

	var got []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len(got) = %d, want 0", len(got))
	}
}

func TestHandleListAndGetSession(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	reg.SessionStarted("10.0.0.1:1234")
	reg.SetProtocol("10.0.0.1:1234", "ISO_15118_2")
	reg.StateTransition("10.0.0.1:1234", "SupportedAppProtocol", "SessionSetup")

	srv := httptest.NewServer(introspect.New(reg, discardLogger()).Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/v1/sessions")
	if err != nil {
		t.Fatalf("GET /v1/sessions: %v", err)
	}
	defer resp.Body.Close()

	var listed []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("len(listed) = %d, want 1", len(listed))
	}
	if listed[0]["peer"] != "10.0.0.1:1234" {
		t.Errorf("peer = %v, want 10.0.0.1:1234", listed[0]["peer"])
	}

	resp2, err := http.Get(srv.URL + "/v1/sessions/10.0.0.1:1234")
	if err != nil {
		t.Fatalf("GET /v1/sessions/10.0.0.1:1234: %v", err)
	}
	defer resp2.Body.Close()

	if resp2.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp2.StatusCode, http.StatusOK)
	}

	var single map[string]any
	if err := json.NewDecoder(resp2.Body).Decode(&single); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if single["protocol"] != "ISO_15118_2" {
		t.Errorf("protocol = %v, want ISO_15118_2", single["protocol"])
	}
	if single["state"] != "SessionSetup" {
		t.Errorf("state = %v, want SessionSetup", single["state"])
	}
}

func TestHandleGetSessionNotFound(t *testing.T) {
	t.Parallel()

	reg := registry.New()
	srv := httptest.NewServer(introspect.New(reg, discardLogger()).Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/v1/sessions/nobody:0")
	if err != nil {
		t.Fatalf("GET /v1/sessions/nobody:0: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}
