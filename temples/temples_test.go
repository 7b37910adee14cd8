package temples

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"yatra/crowd"
	"yatra/db"
	"yatra/models"
	"yatra/rdx"

	"github.com/alicebob/miniredis/v2"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func listTemples(t *testing.T, h *Handler) (int, []models.Temple) {
	t.Helper()
	router := httprouter.New()
	router.GET("/api/temples", h.ListTemples)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/temples", nil))

	var out []models.Temple
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func TestListTemplesEmpty(t *testing.T) {
	h := NewHandler(db.NewMemoryStore().Temples(), nil, nil, zap.NewNop(), time.Second)

	router := httprouter.New()
	router.GET("/api/temples", h.ListTemples)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/temples", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListTemplesFromStore(t *testing.T) {
	store := db.NewMemoryStore()
	require.NoError(t, store.Temples().Create(context.Background(), &models.Temple{Name: "Somnath", Location: "Gujarat"}))

	code, out := listTemples(t, NewHandler(store.Temples(), nil, nil, zap.NewNop(), time.Second))
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, out, 1)
	assert.Equal(t, "Somnath", out[0].Name)
	assert.Equal(t, models.CrowdLow, out[0].CurrentCrowdLevel)
	assert.Equal(t, 15, out[0].EstimatedWaitTime)
}

func TestListTemplesUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := rdx.NewTempleCache(rdx.NewClient(mr.Addr(), ""), time.Minute)
	store := db.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Temples().Create(ctx, &models.Temple{Name: "Somnath", Location: "Gujarat"}))

	h := NewHandler(store.Temples(), cache, nil, zap.NewNop(), time.Second)
	_, first := listTemples(t, h)
	require.Len(t, first, 1)
	assert.True(t, mr.Exists("temples:all"))

	// served from the cache until invalidated
	require.NoError(t, store.Temples().Create(ctx, &models.Temple{Name: "Dwarka", Location: "Gujarat"}))
	_, second := listTemples(t, h)
	assert.Len(t, second, 1)

	require.NoError(t, cache.Invalidate(ctx))
	_, third := listTemples(t, h)
	assert.Len(t, third, 2)
}

func TestListTemplesCacheDownFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := rdx.NewTempleCache(rdx.NewClient(mr.Addr(), ""), time.Minute)
	mr.Close()

	store := db.NewMemoryStore()
	require.NoError(t, store.Temples().Create(context.Background(), &models.Temple{Name: "Somnath", Location: "Gujarat"}))

	code, out := listTemples(t, NewHandler(store.Temples(), cache, nil, zap.NewNop(), 5*time.Second))
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, out, 1)
}

type failingTemples struct{ db.TempleRepository }

func (failingTemples) FindAll(context.Context) ([]models.Temple, error) {
	return nil, errors.New("server selection timeout")
}

func TestListTemplesStoreFailure(t *testing.T) {
	code, _ := listTemples(t, NewHandler(failingTemples{}, nil, nil, zap.NewNop(), time.Second))
	assert.Equal(t, http.StatusInternalServerError, code)
}

// afterReadTemples runs hook once, right after the listing has been read.
type afterReadTemples struct {
	db.TempleRepository
	hook func()
}

func (r *afterReadTemples) FindAll(ctx context.Context) ([]models.Temple, error) {
	temples, err := r.TempleRepository.FindAll(ctx)
	if r.hook != nil {
		hook := r.hook
		r.hook = nil
		hook()
	}
	return temples, err
}

func TestListTemplesDoesNotCacheListingOlderThanIngest(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := rdx.NewTempleCache(rdx.NewClient(mr.Addr(), ""), time.Minute)
	store := db.NewMemoryStore()
	temple := models.Temple{Name: "Somnath", Location: "Gujarat"}
	require.NoError(t, store.Temples().Create(context.Background(), &temple))

	ingest := crowd.NewHandler(store.CrowdSamples(), store.Temples(), cache, nil, zap.NewNop(), time.Second)
	repo := &afterReadTemples{TempleRepository: store.Temples()}
	repo.hook = func() {
		router := httprouter.New()
		router.POST("/api/data/crowd", ingest.Ingest)
		body := `{"templeId":"` + temple.ID.Hex() + `","crowdCount":5000,"crowdLevel":"High","source":"cam"}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/data/crowd", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	h := NewHandler(repo, cache, nil, zap.NewNop(), time.Second)

	// this listing was read before the ingest and may show the old level
	_, stale := listTemples(t, h)
	require.Len(t, stale, 1)
	assert.Equal(t, models.CrowdLow, stale[0].CurrentCrowdLevel)
	assert.False(t, mr.Exists("temples:all"))

	_, fresh := listTemples(t, h)
	require.Len(t, fresh, 1)
	assert.Equal(t, models.CrowdHigh, fresh[0].CurrentCrowdLevel)
}
