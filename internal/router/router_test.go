package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	appointmentHandler "github.com/cuidapet/clinic-api/internal/handler/appointment"
	authHandler "github.com/cuidapet/clinic-api/internal/handler/auth"
	catalogHandler "github.com/cuidapet/clinic-api/internal/handler/catalog"
	fileHandler "github.com/cuidapet/clinic-api/internal/handler/file"
	"github.com/cuidapet/clinic-api/internal/handler/health"
	navigationHandler "github.com/cuidapet/clinic-api/internal/handler/navigation"
	petHandler "github.com/cuidapet/clinic-api/internal/handler/pet"
	userHandler "github.com/cuidapet/clinic-api/internal/handler/user"
	"github.com/cuidapet/clinic-api/internal/middleware"
	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/internal/repository/memory"
	appointmentService "github.com/cuidapet/clinic-api/internal/service/appointment"
	authService "github.com/cuidapet/clinic-api/internal/service/auth"
	catalogService "github.com/cuidapet/clinic-api/internal/service/catalog"
	petService "github.com/cuidapet/clinic-api/internal/service/pet"
	"github.com/cuidapet/clinic-api/internal/service/photo"
	userService "github.com/cuidapet/clinic-api/internal/service/user"
	"github.com/cuidapet/clinic-api/pkg/auth"
	"github.com/cuidapet/clinic-api/pkg/messaging"
	"github.com/cuidapet/clinic-api/pkg/metrics"
	"github.com/cuidapet/clinic-api/pkg/security"
	"github.com/cuidapet/clinic-api/pkg/storage"
)

func init() {
	if err := middleware.RegisterValidators(); err != nil {
		panic(err)
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	store  *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newLimitedTestServer(t, nil)
}

func newLimitedTestServer(t *testing.T, authLimiter gin.HandlerFunc) *testServer {
	t.Helper()

	store := memory.NewStore()
	files, err := storage.NewLocalStore(storage.Config{
		Root:    t.TempDir(),
		BaseURL: "http://localhost/api/v1/files",
		Secret:  "file-secret",
	})
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	m := metrics.New("test", registry)
	photos := photo.New(files, time.Minute)

	authSvc := authService.NewService(store.Users(), memory.NewSessionStore(time.Minute),
		auth.NewJWTService("test-secret", "cuidapet-test", time.Hour), security.NewBcryptHasher(4), m)
	authMw := middleware.NewAuthMiddleware(authSvc)
	appointmentSvc := appointmentService.NewService(store.Appointments(), store.Pets(), store.Services(),
		store.Users(), messaging.NoopBroker{}, m, appointmentService.Hours{Open: "09:00", Close: "12:00"})

	r := NewRouter(RouterConfig{MetricsPrefix: "test", Mode: gin.TestMode}, registry,
		health.NewHandler(registry, nil),
		authHandler.NewHandler(authSvc, authMw, authLimiter),
		navigationHandler.NewHandler(authMw),
		userHandler.NewHandler(userService.NewService(store.Users(), photos, m), authMw, 1<<20),
		petHandler.NewHandler(petService.NewService(store.Pets(), store.Users(), photos), authMw, 1<<20),
		appointmentHandler.NewHandler(appointmentSvc, authMw),
		catalogHandler.NewHandler(catalogService.NewService(store.Services(), time.Minute), authMw),
		fileHandler.NewHandler(files),
	)
	r.Setup()

	return &testServer{t: t, engine: r.Engine(), store: store}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()

	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

// register signs a user up, optionally promotes them and returns a token.
func (s *testServer) register(email string, role model.Role) (string, uuid.UUID) {
	s.t.Helper()

	code, env := s.do(http.MethodPost, "/api/v1/auth/signup", "", gin.H{
		"email": email, "password": "secret1", "name": "Test",
	})
	require.Equal(s.t, http.StatusCreated, code)
	var user model.User
	require.NoError(s.t, json.Unmarshal(env.Data, &user))

	if role != model.RoleClient {
		require.NoError(s.t, s.store.Users().UpdateRole(context.Background(), user.ID, role))
	}

	code, env = s.do(http.MethodPost, "/api/v1/auth/signin", "", gin.H{
		"email": email, "password": "secret1",
	})
	require.Equal(s.t, http.StatusOK, code)
	var tokens model.TokenResponse
	require.NoError(s.t, json.Unmarshal(env.Data, &tokens))
	return tokens.AccessToken, user.ID
}

func TestBookingFlow(t *testing.T) {
	s := newTestServer(t)
	client, clientID := s.register("ana@example.com", model.RoleClient)
	admin, _ := s.register("admin@example.com", model.RoleAdmin)
	vet, _ := s.register("vet@example.com", model.RoleEmployee)

	code, _ := s.do(http.MethodPost, "/api/v1/services", client, gin.H{"name": "Consulta"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(http.MethodPost, "/api/v1/services", admin, gin.H{"name": "Consulta"})
	require.Equal(t, http.StatusCreated, code)
	var service model.Service
	require.NoError(t, json.Unmarshal(env.Data, &service))
	assert.Equal(t, model.DefaultServiceDuration, service.Duration)

	code, env = s.do(http.MethodPost, "/api/v1/pets", client, gin.H{"name": "Toby", "species": "dog"})
	require.Equal(t, http.StatusCreated, code)
	var pet model.Pet
	require.NoError(t, json.Unmarshal(env.Data, &pet))
	assert.Equal(t, clientID, pet.OwnerID)

	booking := gin.H{
		"pet_id":     pet.ID,
		"service_id": service.ID,
		"date":       "2030-05-10",
		"start_time": "10:00",
	}
	code, env = s.do(http.MethodPost, "/api/v1/appointments", client, booking)
	require.Equal(t, http.StatusCreated, code, string(env.Data))
	var booked model.AppointmentDetail
	require.NoError(t, json.Unmarshal(env.Data, &booked))
	assert.Equal(t, "10:30", booked.EndTime)
	assert.Equal(t, model.AppointmentStatusPending, booked.Status)
	assert.Equal(t, "Toby", booked.PetName)

	booking["start_time"] = "10:15"
	code, env = s.do(http.MethodPost, "/api/v1/appointments", client, booking)
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Message, "already booked")

	path := "/api/v1/appointments/availability?date=2030-05-10&service_id=" + service.ID.String()
	code, env = s.do(http.MethodGet, path, client, nil)
	require.Equal(t, http.StatusOK, code)
	var free []model.Slot
	require.NoError(t, json.Unmarshal(env.Data, &free))
	for _, slot := range free {
		assert.NotEqual(t, "10:00", slot.Start)
	}
	assert.NotEmpty(t, free)

	cycle := "/api/v1/appointments/" + booked.ID.String() + "/cycle"
	code, _ = s.do(http.MethodPost, cycle, client, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(http.MethodPost, cycle, vet, nil)
	require.Equal(t, http.StatusOK, code)
	var cycled model.AppointmentDetail
	require.NoError(t, json.Unmarshal(env.Data, &cycled))
	assert.Equal(t, model.AppointmentStatusCompleted, cycled.Status)

	code, env = s.do(http.MethodGet, "/api/v1/appointments?status=completed", client, nil)
	require.Equal(t, http.StatusOK, code)
	var listed []model.AppointmentDetail
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, booked.ID, listed[0].ID)
}

func TestForeignResourcesAreHidden(t *testing.T) {
	s := newTestServer(t)
	owner, _ := s.register("ana@example.com", model.RoleClient)
	other, _ := s.register("bia@example.com", model.RoleClient)

	code, env := s.do(http.MethodPost, "/api/v1/pets", owner, gin.H{"name": "Toby", "species": "dog"})
	require.Equal(t, http.StatusCreated, code)
	var pet model.Pet
	require.NoError(t, json.Unmarshal(env.Data, &pet))

	code, _ = s.do(http.MethodGet, "/api/v1/pets/"+pet.ID.String(), other, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(http.MethodGet, "/api/v1/pets", other, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t)
	client, _ := s.register("ana@example.com", model.RoleClient)

	code, env := s.do(http.MethodPost, "/api/v1/appointments", client, gin.H{
		"pet_id":     uuid.New(),
		"service_id": uuid.New(),
		"date":       "2030-05-10",
		"start_time": "25:00",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Message, "start_time")

	code, _ = s.do(http.MethodGet, "/api/v1/appointments?status=unknown", client, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodGet, "/api/v1/pets/not-a-uuid", client, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAuthAndNavigation(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodGet, "/api/v1/navigation", "", nil)
	require.Equal(t, http.StatusOK, code)
	var nav model.Navigation
	require.NoError(t, json.Unmarshal(env.Data, &nav))
	assert.Equal(t, model.RoleNone, nav.Role)

	code, _ = s.do(http.MethodGet, "/api/v1/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	token, _ := s.register("ana@example.com", model.RoleClient)

	code, env = s.do(http.MethodGet, "/api/v1/navigation", token, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &nav))
	assert.Equal(t, model.RoleClient, nav.Role)

	code, _ = s.do(http.MethodGet, "/api/v1/users", token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodPost, "/api/v1/auth/signout", token, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodGet, "/api/v1/auth/session", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, http.StatusNotFound, env.Error.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(http.MethodGet, "/api/v1/health/live", "", nil)
	assert.Equal(t, http.StatusOK, code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/metrics", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_requests_total")
}

func TestRoleChangesApplyToIssuedTokens(t *testing.T) {
	s := newTestServer(t)
	admin, _ := s.register("admin@example.com", model.RoleAdmin)
	demoted, demotedID := s.register("old-admin@example.com", model.RoleAdmin)
	vet, vetID := s.register("vet@example.com", model.RoleEmployee)

	code, _ := s.do(http.MethodGet, "/api/v1/users", demoted, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodPut, "/api/v1/users/"+demotedID.String()+"/role", admin, gin.H{"role": "client"})
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodGet, "/api/v1/users", demoted, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(http.MethodGet, "/api/v1/navigation", demoted, nil)
	require.Equal(t, http.StatusOK, code)
	var nav model.Navigation
	require.NoError(t, json.Unmarshal(env.Data, &nav))
	assert.Equal(t, model.RoleClient, nav.Role)

	code, _ = s.do(http.MethodPost, "/api/v1/users/delete", admin, gin.H{"user_ids": []uuid.UUID{vetID}})
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodGet, "/api/v1/pets", vet, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRateLimitCoversOnlyAuthRoutes(t *testing.T) {
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{Rate: rate.Every(time.Hour), Burst: 1})
	s := newLimitedTestServer(t, limiter.RateLimit())

	creds := map[string]string{"email": "nobody@example.com", "password": "wrong-password"}
	code, _ := s.do(http.MethodPost, "/api/v1/auth/signin", "", creds)
	assert.NotEqual(t, http.StatusTooManyRequests, code)
	code, _ = s.do(http.MethodPost, "/api/v1/auth/signin", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, code)

	for i := 0; i < 3; i++ {
		code, _ = s.do(http.MethodGet, "/api/v1/health/live", "", nil)
		assert.Equal(t, http.StatusOK, code)
	}
}
