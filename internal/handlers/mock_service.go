package handlers

import (
	"context"
	"net/http"
	"time"

	"smart_switch/internal/models"
	"smart_switch/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockSwitch struct {
	setLevelErr error
	toggleLevel int
	toggleErr   error
	resetErr    error

	setLevelCalls int
	lastSetLevel  int
	toggleCalls   int
	resetCalls    int
}

func (m *mockSwitch) SetLevel(ctx context.Context, level int) error {
	m.setLevelCalls++
	m.lastSetLevel = level
	return m.setLevelErr
}
func (m *mockSwitch) Toggle(ctx context.Context) (int, error) {
	m.toggleCalls++
	return m.toggleLevel, m.toggleErr
}
func (m *mockSwitch) Reset(ctx context.Context) error {
	m.resetCalls++
	return m.resetErr
}

type mockMonitoring struct {
	status models.SwitchStatus
	err    error
}

func (m *mockMonitoring) GetStatus(ctx context.Context) (models.SwitchStatus, error) {
	return m.status, m.err
}

type mockEventLog struct {
	resp     []models.SwitchEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.SwitchEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
