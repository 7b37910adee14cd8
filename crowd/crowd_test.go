package crowd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"yatra/db"
	"yatra/models"
	"yatra/rdx"

	"github.com/alicebob/miniredis/v2"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func ingest(h *Handler, body string) *httptest.ResponseRecorder {
	router := httprouter.New()
	router.POST("/api/data/crowd", h.Ingest)
	req := httptest.NewRequest(http.MethodPost, "/api/data/crowd", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func seedTemple(t *testing.T, store *db.MemoryStore) models.Temple {
	t.Helper()
	temple := models.Temple{Name: "Tirupati", Location: "Andhra Pradesh"}
	require.NoError(t, store.Temples().Create(context.Background(), &temple))
	return temple
}

func TestIngestUpdatesTemple(t *testing.T) {
	store := db.NewMemoryStore()
	temple := seedTemple(t, store)
	h := NewHandler(store.CrowdSamples(), store.Temples(), nil, nil, zap.NewNop(), time.Second)

	rec := ingest(h, `{"templeId":"`+temple.ID.Hex()+`","crowdCount":5200,"crowdLevel":"Very High","source":"CCTV-North"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"msg":"Crowd data ingested successfully"}`, rec.Body.String())
	assert.Equal(t, 1, store.CrowdSampleCount())

	got, err := store.Temples().FindByID(context.Background(), temple.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CrowdVeryHigh, got.CurrentCrowdLevel)
}

func TestIngestWithoutLevelLeavesTemple(t *testing.T) {
	store := db.NewMemoryStore()
	temple := seedTemple(t, store)
	h := NewHandler(store.CrowdSamples(), store.Temples(), nil, nil, zap.NewNop(), time.Second)

	rec := ingest(h, `{"templeId":"`+temple.ID.Hex()+`","crowdCount":-3,"source":"drone"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, store.CrowdSampleCount())

	got, err := store.Temples().FindByID(context.Background(), temple.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CrowdLow, got.CurrentCrowdLevel)
}

func TestIngestAcceptsFractionalCount(t *testing.T) {
	store := db.NewMemoryStore()
	temple := seedTemple(t, store)
	h := NewHandler(store.CrowdSamples(), store.Temples(), nil, nil, zap.NewNop(), time.Second)

	rec := ingest(h, `{"templeId":"`+temple.ID.Hex()+`","crowdCount":12.5,"source":"estimator"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	samples := store.CrowdSampleList()
	require.Len(t, samples, 1)
	assert.Equal(t, 12.5, samples[0].CrowdCount)
	assert.Equal(t, "estimator", samples[0].Source)
}

func TestIngestUnknownTempleStillStoresSample(t *testing.T) {
	store := db.NewMemoryStore()
	h := NewHandler(store.CrowdSamples(), store.Temples(), nil, nil, zap.NewNop(), time.Second)

	rec := ingest(h, `{"templeId":"`+primitive.NewObjectID().Hex()+`","crowdCount":10,"crowdLevel":"High","source":"counter"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, store.CrowdSampleCount())
}

func TestIngestRejectsInvalidInput(t *testing.T) {
	store := db.NewMemoryStore()
	temple := seedTemple(t, store)
	h := NewHandler(store.CrowdSamples(), store.Temples(), nil, nil, zap.NewNop(), time.Second)
	id := temple.ID.Hex()

	cases := map[string]string{
		"bad json":      `[`,
		"missing count": `{"templeId":"` + id + `","source":"cam"}`,
		"missing src":   `{"templeId":"` + id + `","crowdCount":1}`,
		"bad temple":    `{"templeId":"123","crowdCount":1,"source":"cam"}`,
		"bad level":     `{"templeId":"` + id + `","crowdCount":1,"crowdLevel":"Extreme","source":"cam"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, ingest(h, body).Code)
		})
	}
	assert.Zero(t, store.CrowdSampleCount())

	got, err := store.Temples().FindByID(context.Background(), temple.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CrowdLow, got.CurrentCrowdLevel)
}

func TestIngestInvalidatesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := rdx.NewTempleCache(rdx.NewClient(mr.Addr(), ""), time.Minute)
	store := db.NewMemoryStore()
	temple := seedTemple(t, store)
	ctx := context.Background()
	stored, err := cache.SetIfUnchanged(ctx, 0, []models.Temple{temple})
	require.NoError(t, err)
	require.True(t, stored)

	h := NewHandler(store.CrowdSamples(), store.Temples(), cache, nil, zap.NewNop(), time.Second)
	rec := ingest(h, `{"templeId":"`+temple.ID.Hex()+`","crowdCount":900,"crowdLevel":"Medium","source":"cam"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, mr.Exists("temples:all"))
}

type brokenTemples struct{ db.TempleRepository }

func (brokenTemples) UpdateCrowdLevel(context.Context, primitive.ObjectID, models.CrowdLevel) (*models.Temple, error) {
	return nil, errors.New("connection reset")
}

func TestIngestStatusWriteFailureKeepsSample(t *testing.T) {
	store := db.NewMemoryStore()
	h := NewHandler(store.CrowdSamples(), brokenTemples{}, nil, nil, zap.NewNop(), time.Second)

	rec := ingest(h, `{"templeId":"`+primitive.NewObjectID().Hex()+`","crowdCount":1,"crowdLevel":"Low","source":"cam"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"msg":"Server error"}`, rec.Body.String())
	assert.Equal(t, 1, store.CrowdSampleCount())
}
