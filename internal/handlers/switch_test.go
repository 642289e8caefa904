package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"smart_switch/internal/models"
	"smart_switch/internal/service"
	"smart_switch/internal/supervisor"
)

func TestSwitchHandlers_CommandToggleReset_GetStatus(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	mon := &mockMonitoring{status: models.SwitchStatus{
		Mode: models.ModeDimming, Level: 60, SyncState: "LOCKED", DimmingAvailable: true,
	}}
	sw := &mockSwitch{toggleLevel: 100}
	s := &service.Service{
		Authorization: auth,
		Monitoring:    mon,
		Switch:        sw,
	}
	r := newTestRouter(s)

	// GET status requires auth → 401 without header
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/switch/status", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}

	// With auth → 200 and status body
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/switch/status", nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var st models.SwitchStatus
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if st.Mode != models.ModeDimming || st.Level != 60 {
		t.Fatalf("unexpected status: %+v", st)
	}

	// POST /command → 200, passes the level and includes switch status
	body := bytes.NewBufferString(`{"level":60}`)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/switch/command", body)
	req.Header.Set("Content-Type", "application/json")
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("command status=%d, body=%s", w.Code, w.Body.String())
	}
	if sw.setLevelCalls != 1 || sw.lastSetLevel != 60 {
		t.Fatalf("SetLevel calls=%d last=%d", sw.setLevelCalls, sw.lastSetLevel)
	}
	var cmdResp struct {
		Status string              `json:"status"`
		Level  int                 `json:"level"`
		Switch models.SwitchStatus `json:"switch"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &cmdResp)
	if cmdResp.Status != statusCommanded || cmdResp.Level != 60 {
		t.Fatalf("bad command response: %+v", cmdResp)
	}
	if cmdResp.Switch.Mode != models.ModeDimming {
		t.Fatalf("switch status missing in response: %+v", cmdResp.Switch)
	}

	// POST /toggle → 200 and toggled level
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/switch/toggle", nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("toggle status=%d, body=%s", w.Code, w.Body.String())
	}
	if sw.toggleCalls != 1 {
		t.Fatalf("Toggle calls=%d", sw.toggleCalls)
	}
	var togResp struct {
		Status string `json:"status"`
		Level  int    `json:"level"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &togResp)
	if togResp.Status != statusToggled || togResp.Level != 100 {
		t.Fatalf("bad toggle response: %+v", togResp)
	}

	// POST /reset → 200
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/switch/reset", nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("reset status=%d, body=%s", w.Code, w.Body.String())
	}
	if sw.resetCalls != 1 {
		t.Fatalf("Reset calls=%d", sw.resetCalls)
	}
}

func TestSetCommand_InvalidBodyAndOutOfRange(t *testing.T) {
	auth := &mockAuth{parseID: 1}
	sw := &mockSwitch{}
	s := &service.Service{
		Authorization: auth,
		Monitoring:    &mockMonitoring{},
		Switch:        sw,
	}
	r := newTestRouter(s)

	// Missing level field → 400, service never called
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/switch/command", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing level, got %d", w.Code)
	}
	if sw.setLevelCalls != 0 {
		t.Fatalf("SetLevel called despite invalid body")
	}

	// Out-of-range rejection surfaces as 400, not 500
	sw.setLevelErr = supervisor.ErrLevelOutOfRange
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/switch/command", bytes.NewBufferString(`{"level":400}`))
	req.Header.Set("Content-Type", "application/json")
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range level, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestHealthIsPublic(t *testing.T) {
	s := &service.Service{Authorization: &mockAuth{}}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != statusOK {
		t.Fatalf("health body=%s", w.Body.String())
	}
}
