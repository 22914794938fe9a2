package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/steepline/steepline/internal/auth"
	"github.com/steepline/steepline/internal/ids"
	"github.com/steepline/steepline/internal/metrics"
	"github.com/steepline/steepline/internal/runs"
	"github.com/steepline/steepline/internal/spots"
	"github.com/steepline/steepline/internal/stats"
	"github.com/steepline/steepline/internal/users"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnvironment struct {
	handler http.Handler
	db      *gorm.DB
}

func newTestEnvironment(t *testing.T, name string) *testEnvironment {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&users.User{}, &spots.Spot{}, &runs.Run{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	tokenManager, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte("test-signing-secret"),
		Issuer:        "steepline-auth",
		Audience:      "steepline-api",
		TokenTTL:      time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to construct token issuer: %v", err)
	}

	idProvider := ids.NewUUIDProvider()

	usersService, err := users.NewService(users.ServiceConfig{Database: db, Clock: time.Now, IDs: idProvider})
	if err != nil {
		t.Fatalf("failed to construct users service: %v", err)
	}
	spotsService, err := spots.NewService(spots.ServiceConfig{Database: db, Clock: time.Now, IDs: idProvider})
	if err != nil {
		t.Fatalf("failed to construct spots service: %v", err)
	}
	runsService, err := runs.NewService(runs.ServiceConfig{Database: db, Clock: time.Now, IDs: idProvider})
	if err != nil {
		t.Fatalf("failed to construct runs service: %v", err)
	}
	statsService, err := stats.NewService(stats.ServiceConfig{Database: db, Clock: time.Now})
	if err != nil {
		t.Fatalf("failed to construct stats service: %v", err)
	}

	handler, err := NewHTTPHandler(Dependencies{
		TokenManager: tokenManager,
		UsersService: usersService,
		SpotsService: spotsService,
		RunsService:  runsService,
		StatsService: statsService,
		Metrics:      metrics.New("steepline_test"),
	})
	if err != nil {
		t.Fatalf("failed to construct handler: %v", err)
	}

	return &testEnvironment{handler: handler, db: db}
}

func (env *testEnvironment) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)
	return recorder
}

func (env *testEnvironment) login(t *testing.T, providerID, name string) (string, string) {
	t.Helper()

	recorder := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"provider":   "google",
		"providerId": providerID,
		"email":      providerID + "@example.com",
		"name":       name,
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("login failed with status %d: %s", recorder.Code, recorder.Body.String())
	}

	var response struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if response.Token == "" || response.UserID == "" {
		t.Fatalf("incomplete login response: %s", recorder.Body.String())
	}
	return response.Token, response.UserID
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode error payload: %v", err)
	}
	return payload.Error
}
