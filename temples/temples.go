package temples

import (
	"context"
	"net/http"
	"time"

	"yatra/db"
	"yatra/metrics"
	"yatra/models"
	"yatra/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Cache is the optional read-through cache in front of the temple listing.
type Cache interface {
	Get(ctx context.Context) ([]models.Temple, bool, error)
	Generation(ctx context.Context) (int64, error)
	SetIfUnchanged(ctx context.Context, gen int64, temples []models.Temple) (bool, error)
}

type Handler struct {
	temples db.TempleRepository
	cache   Cache
	metrics *metrics.Metrics
	logger  *zap.Logger
	timeout time.Duration
}

// NewHandler builds the temple handler. cache may be nil.
func NewHandler(temples db.TempleRepository, cache Cache, m *metrics.Metrics, logger *zap.Logger, timeout time.Duration) *Handler {
	return &Handler{
		temples: temples,
		cache:   cache,
		metrics: m,
		logger:  logger.Named("temples"),
		timeout: timeout,
	}
}

// ListTemples returns every temple with its current crowd status.
func (h *Handler) ListTemples(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		gen    int64
		genErr error
	)
	if h.cache != nil {
		cached, ok, err := h.cache.Get(ctx)
		if err != nil {
			h.logger.Warn("temple cache read failed", zap.Error(err))
		}
		h.metrics.CacheLookup(ok)
		if ok {
			utils.RespondWithJSON(w, http.StatusOK, cached)
			return
		}
		// taken before the store read so a concurrent invalidation wins
		gen, genErr = h.cache.Generation(ctx)
	}

	temples, err := h.temples.FindAll(ctx)
	if err != nil {
		utils.RespondServerError(w, r, h.logger, err)
		return
	}

	if h.cache != nil && genErr == nil {
		if _, err := h.cache.SetIfUnchanged(ctx, gen, temples); err != nil {
			h.logger.Warn("temple cache write failed", zap.Error(err))
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, temples)
}
