package routes_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"eventhub/models"
	"eventhub/routes"
	"eventhub/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.HashCost = bcrypt.MinCost
}

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// newServer 掛上 /api；deps 沒填的部分用記憶體 store 與固定時間補上
func newServer(t *testing.T, d routes.Deps) *gin.Engine {
	t.Helper()
	if d.Store == nil {
		d.Store = models.NewMemStorageWithClock(clock)
	}
	if d.Now == nil {
		d.Now = clock
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s := gin.New()
	routes.RegisterRoutes(ctx, s, d)
	return s
}

func req(s *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	s.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

var errBoom = errors.New("boom: connection refused")

// failingStore 每個操作都回錯誤
type failingStore struct{ models.Storage }

func (failingStore) GetAllEvents(context.Context) ([]models.Event, error) { return nil, errBoom }
func (failingStore) CreateEvent(context.Context, models.InsertEvent) (models.Event, error) {
	return models.Event{}, errBoom
}
func (failingStore) GetEvent(context.Context, int64) (models.Event, bool, error) {
	return models.Event{}, false, errBoom
}
