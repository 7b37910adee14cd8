package booking

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
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	msgBookingExists   = "Booking already exists"
	msgBookingNotFound = "Booking not found"
	msgInvalidToken    = "Token is not valid"
)

type Handler struct {
	bookings db.BookingRepository
	temples  db.TempleRepository
	metrics  *metrics.Metrics
	logger   *zap.Logger
	timeout  time.Duration
	now      func() time.Time
}

func NewHandler(bookings db.BookingRepository, temples db.TempleRepository, m *metrics.Metrics, logger *zap.Logger, timeout time.Duration) *Handler {
	return &Handler{
		bookings: bookings,
		temples:  temples,
		metrics:  m,
		logger:   logger.Named("booking"),
		timeout:  timeout,
		now:      time.Now,
	}
}

type createBookingInput struct {
	TempleID string `json:"templeId"`
	SlotTime string `json:"slotTime"`
}

var slotLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseSlotTime accepts RFC 3339 and the shorter ISO forms browsers send.
// Values without a zone are taken as UTC.
func parseSlotTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, &models.ValidationError{Field: "slotTime", Msg: "is required"}
	}
	for _, layout := range slotLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &models.ValidationError{Field: "slotTime", Msg: "is not a valid date"}
}

// callerID reads the authenticated user. The gate guarantees presence, but
// the id still has to be a valid ObjectID.
func callerID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(utils.GetUserIDFromRequest(r))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// CreateBooking reserves a slot for the caller. There is no capacity or
// overlap check; two requests for the same slot both succeed.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := callerID(r)
	if !ok {
		utils.RespondWithMsg(w, http.StatusUnauthorized, msgInvalidToken)
		return
	}

	var input createBookingInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		utils.RespondError(w, r, h.logger, err)
		return
	}
	templeID, err := db.ParseID("templeId", input.TempleID)
	if err != nil {
		utils.RespondError(w, r, h.logger, err)
		return
	}
	slot, err := parseSlotTime(input.SlotTime)
	if err != nil {
		utils.RespondError(w, r, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	booking := models.NewBooking(userID, templeID, slot, h.now())
	if err := h.bookings.Create(ctx, booking); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			utils.RespondWithMsg(w, http.StatusBadRequest, msgBookingExists)
			return
		}
		utils.RespondError(w, r, h.logger, err)
		return
	}

	h.metrics.BookingCreated()
	h.logger.Info("booking created",
		zap.String("bookingId", booking.ID.Hex()),
		zap.String("userId", userID.Hex()),
		zap.String("templeId", templeID.Hex()),
		zap.Time("slotTime", slot),
	)
	utils.RespondWithJSON(w, http.StatusCreated, booking)
}

// ListBookings returns the caller's bookings with temple name and location.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := callerID(r)
	if !ok {
		utils.RespondWithMsg(w, http.StatusUnauthorized, msgInvalidToken)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	bookings, err := h.bookings.FindByUser(ctx, userID)
	if err != nil {
		utils.RespondServerError(w, r, h.logger, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, bookings)
}

// ownedBooking loads the booking named in the path and checks the caller
// owns it. Bookings belonging to someone else are reported as missing.
func (h *Handler) ownedBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) (*models.Booking, bool) {
	userID, ok := callerID(r)
	if !ok {
		utils.RespondWithMsg(w, http.StatusUnauthorized, msgInvalidToken)
		return nil, false
	}
	bookingID, err := db.ParseID("id", ps.ByName("id"))
	if err != nil {
		utils.RespondError(w, r, h.logger, err)
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	booking, err := h.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			utils.RespondWithMsg(w, http.StatusNotFound, msgBookingNotFound)
			return nil, false
		}
		utils.RespondServerError(w, r, h.logger, err)
		return nil, false
	}
	if booking.User != userID {
		utils.RespondWithMsg(w, http.StatusNotFound, msgBookingNotFound)
		return nil, false
	}
	return booking, true
}
