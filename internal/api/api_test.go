package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memoryRevoker keeps revoked token ids in a map
type memoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (r *memoryRevoker) Revoke(_ context.Context, id string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[id] = true
	return nil
}

func (r *memoryRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revoked[id], nil
}

type testApp struct {
	t      *testing.T
	db     *gorm.DB
	auth   *service.AuthService
	engine *gin.Engine
}

func newTestApp(t *testing.T) *testApp {
	db := testhelpers.SetupSQLiteDB(t)
	log := logger.Nop()
	images := service.NewDatabaseImageStore(db, "/media", log)
	auth := service.NewAuthService(db, "test-secret", time.Hour, &memoryRevoker{revoked: map[string]bool{}}, log)

	svcs := api.Services{
		Auth:          auth,
		Users:         service.NewUserService(db, log),
		Subscriptions: service.NewSubscriptionService(db, log),
		Catalog:       service.NewCatalogService(db, log),
		Recipes:       service.NewRecipeService(db, images, log),
		Favorites:     service.NewFavoriteService(db, log),
		Cart:          service.NewCartService(db, log),
		Media:         images,
	}
	engine := router.New(log, router.Options{Metrics: middleware.NewMetrics()}, svcs)

	return &testApp{t: t, db: db, auth: auth, engine: engine}
}

func (a *testApp) token(user *models.User) string {
	token, err := a.auth.GenerateToken(user)
	require.NoError(a.t, err)
	return token
}

// do sends a JSON request. body may be nil, a []byte or any value that is
// encoded as JSON.
func (a *testApp) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.send(req, token)
}

func (a *testApp) send(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	w = app.do(http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `foodgram_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestTrailingSlashIsOptional(t *testing.T) {
	app := newTestApp(t)
	testhelpers.CreateTag(t, app.db, "breakfast")

	for _, path := range []string{"/api/tags", "/api/tags/"} {
		w := app.do(http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, w.Code, path)
		tags := decode[[]models.Tag](t, w)
		require.Len(t, tags, 1)
		assert.Equal(t, "breakfast", tags[0].Slug)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	app := newTestApp(t)
	tag := testhelpers.CreateTag(t, app.db, "lunch")
	testhelpers.CreateIngredient(t, app.db, "onion", "g")
	testhelpers.CreateIngredient(t, app.db, "green onion", "g")
	testhelpers.CreateIngredient(t, app.db, "carrot", "g")

	w := app.do(http.MethodGet, "/api/ingredients/?name=ON", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	ingredients := decode[[]models.Ingredient](t, w)
	require.Len(t, ingredients, 2)
	assert.Equal(t, "onion", ingredients[0].Name)
	assert.Equal(t, "green onion", ingredients[1].Name)

	w = app.do(http.MethodGet, "/api/tags/"+itoa(tag.ID)+"/", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodGet, "/api/tags/999/", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(http.MethodGet, "/api/ingredients/abc/", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/api/nowhere/", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(http.MethodDelete, "/api/tags/", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
