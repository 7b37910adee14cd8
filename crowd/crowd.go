package crowd

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"yatra/db"
	"yatra/metrics"
	"yatra/models"
	"yatra/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const msgIngested = "Crowd data ingested successfully"

// Invalidator drops cached temple listings after a status change.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Handler struct {
	samples db.CrowdSampleRepository
	temples db.TempleRepository
	cache   Invalidator
	metrics *metrics.Metrics
	logger  *zap.Logger
	timeout time.Duration
}

// NewHandler builds the ingestion handler. cache may be nil.
func NewHandler(samples db.CrowdSampleRepository, temples db.TempleRepository, cache Invalidator, m *metrics.Metrics, logger *zap.Logger, timeout time.Duration) *Handler {
	return &Handler{
		samples: samples,
		temples: temples,
		cache:   cache,
		metrics: m,
		logger:  logger.Named("crowd"),
		timeout: timeout,
	}
}

type ingestInput struct {
	TempleID   string   `json:"templeId"`
	CrowdCount *float64 `json:"crowdCount"`
	CrowdLevel string   `json:"crowdLevel"`
	Source     string   `json:"source"`
}

func (in ingestInput) sample() (*models.CrowdSample, models.CrowdLevel, error) {
	templeID, err := db.ParseID("templeId", in.TempleID)
	if err != nil {
		return nil, "", err
	}
	if in.CrowdCount == nil {
		return nil, "", &models.ValidationError{Field: "crowdCount", Msg: "is required"}
	}
	level := models.CrowdLevel(strings.TrimSpace(in.CrowdLevel))
	if level != "" && !level.Valid() {
		return nil, "", &models.ValidationError{Field: "crowdLevel", Msg: "must be one of Low, Medium, High, Very High"}
	}
	s := &models.CrowdSample{
		Temple:     templeID,
		CrowdCount: *in.CrowdCount,
		Source:     strings.TrimSpace(in.Source),
	}
	if err := s.Validate(); err != nil {
		return nil, "", err
	}
	return s, level, nil
}

// Ingest records a sensor reading and, when a level is given, moves the
// temple to that level. The two writes are independent: a failed status
// update leaves the stored sample in place.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input ingestInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		utils.RespondError(w, r, h.logger, err)
		return
	}
	sample, level, err := input.sample()
	if err != nil {
		utils.RespondError(w, r, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.samples.Create(ctx, sample); err != nil {
		utils.RespondError(w, r, h.logger, err)
		return
	}

	if level != "" {
		_, err := h.temples.UpdateCrowdLevel(ctx, sample.Temple, level)
		switch {
		case errors.Is(err, db.ErrNotFound):
			h.logger.Warn("crowd sample for unknown temple", zap.String("templeId", sample.Temple.Hex()))
		case err != nil:
			utils.RespondServerError(w, r, h.logger, err)
			return
		default:
			h.invalidate(ctx)
		}
	}

	h.metrics.CrowdSampleIngested(string(level))
	h.logger.Debug("crowd sample ingested",
		zap.String("templeId", sample.Temple.Hex()),
		zap.Float64("crowdCount", sample.CrowdCount),
		zap.String("crowdLevel", string(level)),
		zap.String("source", sample.Source),
	)
	utils.RespondWithMsg(w, http.StatusOK, msgIngested)
}

func (h *Handler) invalidate(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx); err != nil {
		h.logger.Warn("temple cache invalidation failed", zap.Error(err))
	}
}
