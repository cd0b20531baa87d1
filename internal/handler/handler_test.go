package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"nextrep/internal/cache"
	"nextrep/internal/config"
	"nextrep/internal/domain"
	"nextrep/internal/service"
	"nextrep/internal/storage"
	"nextrep/pkg/logger"
)

// stubAPI serves canned exercises and counts remote calls
type stubAPI struct {
	mu       sync.Mutex
	searches map[string]int
	perList  int
	fail     error
}

func (s *stubAPI) SearchByBodyPart(ctx context.Context, bodyPart string) ([]domain.Exercise, error) {
	s.mu.Lock()
	s.searches[bodyPart]++
	n, fail := s.perList, s.fail
	s.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	if n == 0 {
		n = 1
	}
	out := make([]domain.Exercise, n)
	for i := range out {
		out[i] = domain.Exercise{ID: "000" + strconv.Itoa(i+1), Name: bodyPart + " press", BodyPart: bodyPart, Image: "a.png"}
	}
	return out, nil
}

func (s *stubAPI) setPerList(n int) {
	s.mu.Lock()
	s.perList = n
	s.mu.Unlock()
}

func (s *stubAPI) Details(ctx context.Context, id string) (domain.ExerciseDetail, error) {
	if id == "9999" {
		return domain.ExerciseDetail{}, domain.ErrExerciseNotFound
	}
	return domain.ExerciseDetail{ID: id, Name: "Squat"}, nil
}

func (s *stubAPI) calls(bodyPart string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searches[bodyPart]
}

type RouterTestSuite struct {
	suite.Suite
	api      *stubAPI
	caches   service.Caches
	registry *cache.Registry
	config   *config.Config
	router   *gin.Engine
}

func (s *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	mem := storage.NewMemoryStore()
	lists := cache.New[[]domain.Exercise](mem, cache.Namespace{KeyPrefix: "exercises_", DefaultTTL: time.Hour})
	details := cache.New[domain.ExerciseDetail](mem, cache.Namespace{KeyPrefix: "exercise_details_", DefaultTTL: 2 * time.Hour})
	general := cache.New[[]domain.Category](mem, cache.Namespace{KeyPrefix: "general_", DefaultTTL: 30 * time.Minute})

	s.registry = cache.NewRegistry()
	s.Require().NoError(s.registry.Register("exercises", lists))
	s.Require().NoError(s.registry.Register("exercise_details", details))
	s.Require().NoError(s.registry.Register("general", general))
	s.Require().NoError(s.registry.Derive("exercises", "general", service.CategoriesKey))

	s.caches = service.Caches{
		Exercises: cache.NewFetcher(lists),
		Details:   cache.NewFetcher(details),
		General:   cache.NewFetcher(general),
	}
	s.api = &stubAPI{searches: make(map[string]int)}
	s.config = &config.Config{
		Environment:        "test",
		StorageBackend:     "memory",
		RateLimitPerMinute: 1000,
		AdminAPIKey:        "secret",
		ExerciseAPITimeout: time.Second,
	}

	svc := service.NewExerciseService(s.api, s.caches, logger.NewNop())
	s.router = SetupRouter(svc, s.registry, s.config, logger.NewNop())
}

func (s *RouterTestSuite) do(method, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterTestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (s *RouterTestSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)

	body := s.decode(w)
	s.Equal("healthy", body["status"])
	s.Equal("memory", body["storage"])
	s.Equal("nosniff", w.Header().Get("X-Content-Type-Options"))
}

func (s *RouterTestSuite) TestListExercises_ServedFromCacheOnSecondCall() {
	for i := 0; i < 2; i++ {
		w := s.do(http.MethodGet, "/api/v1/exercises?bodyPart=chest", "", nil)
		s.Require().Equal(http.StatusOK, w.Code)
		body := s.decode(w)
		s.Equal(float64(1), body["count"])
	}
	s.Equal(1, s.api.calls("Chest"))
}

func (s *RouterTestSuite) TestListExercises_MissingBodyPart() {
	w := s.do(http.MethodGet, "/api/v1/exercises", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("client_error", s.decode(w)["error"])
}

func (s *RouterTestSuite) TestListExercises_UpstreamError() {
	s.api.fail = &domain.UpstreamError{StatusCode: http.StatusInternalServerError}

	w := s.do(http.MethodGet, "/api/v1/exercises?bodyPart=legs", "", nil)
	s.Equal(http.StatusBadGateway, w.Code)
	s.Equal("HTTP error! status: 500", s.decode(w)["message"])
}

func (s *RouterTestSuite) TestGetExercise() {
	w := s.do(http.MethodGet, "/api/v1/exercises/0042", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("Squat", s.decode(w)["name"])

	w = s.do(http.MethodGet, "/api/v1/exercises/9999", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterTestSuite) TestListCategories() {
	w := s.do(http.MethodGet, "/api/v1/categories", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	categories, ok := s.decode(w)["categories"].([]interface{})
	s.Require().True(ok)
	s.Len(categories, 6)
}

func (s *RouterTestSuite) TestPreload_Accepted() {
	w := s.do(http.MethodPost, "/api/v1/exercises/preload", `{"body_parts":["legs","back"]}`, nil)
	s.Equal(http.StatusAccepted, w.Code)

	store := s.caches.Exercises.Store()
	s.Eventually(func() bool {
		return store.IsValid(context.Background(), "legs") && store.IsValid(context.Background(), "back")
	}, 2*time.Second, 10*time.Millisecond)

	w = s.do(http.MethodPost, "/api/v1/exercises/preload", `{not json`, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterTestSuite) TestCacheAdmin_RequiresAPIKey() {
	w := s.do(http.MethodGet, "/api/v1/cache", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/v1/cache", "", map[string]string{"X-API-Key": "wrong"})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/v1/cache", "", map[string]string{"X-API-Key": "secret"})
	s.Require().Equal(http.StatusOK, w.Code)
	namespaces, ok := s.decode(w)["namespaces"].([]interface{})
	s.Require().True(ok)
	s.Len(namespaces, 3)
}

func (s *RouterTestSuite) TestCacheAdmin_KeyInfoRemoveAndClear() {
	auth := map[string]string{"X-API-Key": "secret"}
	ctx := context.Background()
	lists := s.caches.Exercises.Store()
	lists.Set(ctx, "chest", []domain.Exercise{{ID: "1"}})
	lists.Set(ctx, "legs", []domain.Exercise{{ID: "2"}})

	w := s.do(http.MethodGet, "/api/v1/cache/exercises/keys/chest", "", auth)
	s.Require().Equal(http.StatusOK, w.Code)
	info := s.decode(w)
	s.Equal(true, info["exists"])
	s.Equal(true, info["valid"])

	w = s.do(http.MethodDelete, "/api/v1/cache/exercises/keys/chest", "", auth)
	s.Equal(http.StatusOK, w.Code)
	s.False(lists.Info(ctx, "chest").Exists)
	s.True(lists.Info(ctx, "legs").Exists)

	w = s.do(http.MethodDelete, "/api/v1/cache/exercises", "", auth)
	s.Equal(http.StatusOK, w.Code)
	s.False(lists.Info(ctx, "legs").Exists)

	w = s.do(http.MethodGet, "/api/v1/cache/exercises/stats", "", auth)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(s.decode(w), "hit_ratio")
}

func (s *RouterTestSuite) TestCacheAdmin_KeyInfoReportsMilliseconds() {
	s.caches.Exercises.Store().Set(context.Background(), "back", []domain.Exercise{{ID: "1"}})

	w := s.do(http.MethodGet, "/api/v1/cache/exercises/keys/back", "", map[string]string{"X-API-Key": "secret"})
	s.Require().Equal(http.StatusOK, w.Code)

	remaining, ok := s.decode(w)["remaining_ttl_ms"].(float64)
	s.Require().True(ok)
	s.LessOrEqual(remaining, float64(time.Hour.Milliseconds()))
	s.Greater(remaining, float64((time.Hour - time.Minute).Milliseconds()))
}

func (s *RouterTestSuite) categoryCounts() []float64 {
	w := s.do(http.MethodGet, "/api/v1/categories", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	categories, ok := s.decode(w)["categories"].([]interface{})
	s.Require().True(ok)
	counts := make([]float64, 0, len(categories))
	for _, c := range categories {
		counts = append(counts, c.(map[string]interface{})["exercise_count"].(float64))
	}
	return counts
}

func (s *RouterTestSuite) TestCacheAdmin_ClearingListsRefreshesCategories() {
	s.Equal([]float64{1, 1, 1, 1, 1, 1}, s.categoryCounts())

	w := s.do(http.MethodDelete, "/api/v1/cache/exercises", "", map[string]string{"X-API-Key": "secret"})
	s.Require().Equal(http.StatusOK, w.Code)
	s.api.setPerList(2)

	w = s.do(http.MethodGet, "/api/v1/exercises?bodyPart=chest", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(2), s.decode(w)["count"])
	s.Equal([]float64{2, 2, 2, 2, 2, 2}, s.categoryCounts())
}

func (s *RouterTestSuite) TestInvalidateBodyPart() {
	auth := map[string]string{"X-API-Key": "secret"}
	s.Equal([]float64{1, 1, 1, 1, 1, 1}, s.categoryCounts())
	s.api.setPerList(3)

	w := s.do(http.MethodDelete, "/api/v1/exercises/cache?bodyPart=legs", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/exercises/cache?bodyPart=legs", "", auth)
	s.Require().Equal(http.StatusOK, w.Code)
	s.False(s.caches.Exercises.Store().IsValid(context.Background(), "legs"))
	s.True(s.caches.Exercises.Store().IsValid(context.Background(), "chest"))
	s.Equal([]float64{3, 1, 1, 1, 1, 1}, s.categoryCounts())

	w = s.do(http.MethodDelete, "/api/v1/exercises/cache", "", auth)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterTestSuite) TestInvalidateExercise() {
	auth := map[string]string{"X-API-Key": "secret"}
	details := s.caches.Details.Store()
	details.Set(context.Background(), "0042", domain.ExerciseDetail{ID: "0042"})

	w := s.do(http.MethodDelete, "/api/v1/exercises/0042/cache", "", auth)
	s.Require().Equal(http.StatusOK, w.Code)
	s.False(details.Info(context.Background(), "0042").Exists)

	w = s.do(http.MethodDelete, "/api/v1/exercises/bad%3Bid/cache", "", auth)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterTestSuite) TestPreload_EmptyBodyWarmsEveryCategory() {
	w := s.do(http.MethodPost, "/api/v1/exercises/preload", "", nil)
	s.Require().Equal(http.StatusAccepted, w.Code)

	store := s.caches.Exercises.Store()
	s.Eventually(func() bool {
		for _, key := range []string{"legs", "arms", "chest", "abdominal", "back", "shoulders"} {
			if !store.IsValid(context.Background(), key) {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *RouterTestSuite) TestCacheAdmin_UnknownNamespace() {
	w := s.do(http.MethodGet, "/api/v1/cache/workouts/stats", "", map[string]string{"X-API-Key": "secret"})
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("namespace_not_found", s.decode(w)["error"])
}

func (s *RouterTestSuite) TestNoRoute() {
	w := s.do(http.MethodGet, "/nope", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(2, logger.NewNop()))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Contains(t, last.Body.String(), "rate_limit_exceeded")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "limits are per client ip")
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Environment: "production", AllowedOrigins: []string{"https://app.nextrep.io"}}
	router := gin.New()
	router.Use(CORSMiddleware(cfg))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve := func(method, origin string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, "/", nil)
		req.Header.Set("Origin", origin)
		router.ServeHTTP(w, req)
		return w
	}

	w := serve(http.MethodGet, "https://app.nextrep.io")
	assert.Equal(t, "https://app.nextrep.io", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(http.MethodGet, "https://evil.example")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(http.MethodOptions, "https://app.nextrep.io")
	require.Equal(t, http.StatusNoContent, w.Code)
}
