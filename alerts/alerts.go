package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"yatra/db"
	"yatra/metrics"
	"yatra/models"
	"yatra/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const msgAlertRaised = "Alert raised successfully. Help is on the way."

// Coordinate accepts either a JSON string or a JSON number and keeps the
// text as sent. Devices disagree on which one they emit.
type Coordinate string

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Coordinate(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("coordinate must be a string or number: %w", err)
	}
	*c = Coordinate(n.String())
	return nil
}

type Handler struct {
	alerts  db.AlertRepository
	metrics *metrics.Metrics
	logger  *zap.Logger
	timeout time.Duration
}

func NewHandler(alerts db.AlertRepository, m *metrics.Metrics, logger *zap.Logger, timeout time.Duration) *Handler {
	return &Handler{
		alerts:  alerts,
		metrics: m,
		logger:  logger.Named("alerts"),
		timeout: timeout,
	}
}

type panicInput struct {
	Latitude  Coordinate       `json:"latitude"`
	Longitude Coordinate       `json:"longitude"`
	AlertType models.AlertType `json:"alertType"`
}

// RaisePanic stores an emergency alert for the caller. Nobody is notified;
// staff pick alerts up from the collection.
func (h *Handler) RaisePanic(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input panicInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		utils.RespondError(w, r, h.logger, err)
		return
	}

	alert := &models.Alert{
		Location: models.GeoPoint{
			Latitude:  string(input.Latitude),
			Longitude: string(input.Longitude),
		},
		AlertType: input.AlertType,
	}
	if id, err := primitive.ObjectIDFromHex(utils.GetUserIDFromRequest(r)); err == nil {
		alert.User = &id
	}
	alert.ApplyDefaults()
	if err := alert.Validate(); err != nil {
		utils.RespondError(w, r, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.alerts.Create(ctx, alert); err != nil {
		utils.RespondError(w, r, h.logger, err)
		return
	}

	h.metrics.AlertRaised(string(alert.AlertType))
	h.logger.Warn("emergency alert raised",
		zap.String("alertId", alert.ID.Hex()),
		zap.String("alertType", string(alert.AlertType)),
		zap.String("latitude", alert.Location.Latitude),
		zap.String("longitude", alert.Location.Longitude),
	)
	utils.RespondWithMsg(w, http.StatusCreated, msgAlertRaised)
}
