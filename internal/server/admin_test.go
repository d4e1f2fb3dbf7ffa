package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danmuck/minitelctl/internal/testutil/testlog"
)

func TestAdminRouterEndpoints(t *testing.T) {
	testlog.Start(t)
	s := New(DefaultConfig())
	router := s.AdminRouter("joshua-test", nil)

	for _, path := range []string{"/health", "/ready", "/status", "/metrics"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, w.Code)
		}
	}
}

func TestAdminStatusShape(t *testing.T) {
	testlog.Start(t)
	s := New(DefaultConfig())
	router := s.AdminRouter("joshua-test", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("status body: %v", err)
	}
	if body["node"] != "joshua-test" {
		t.Fatalf("node: %v", body["node"])
	}
	if _, ok := body["active_connections"]; !ok {
		t.Fatal("status missing active_connections")
	}
	if _, ok := body["secret"]; ok {
		t.Fatal("status must not expose the secret")
	}
}
