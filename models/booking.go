package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	BookingBooked    BookingStatus = "Booked"
	BookingCompleted BookingStatus = "Completed"
	BookingCancelled BookingStatus = "Cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingBooked, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// Booking is a darshan slot reserved by a user. User and Temple are references
// only; neither is checked for existence.
type Booking struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	User      primitive.ObjectID `json:"user" bson:"user"`
	Temple    primitive.ObjectID `json:"temple" bson:"temple"`
	SlotTime  time.Time          `json:"slotTime" bson:"slotTime"`
	Status    BookingStatus      `json:"status" bson:"status"`
	QRCode    string             `json:"qrCode" bson:"qrCode"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// BookingWithTemple is a booking whose temple reference has been joined.
// Temple is nil when the referenced temple no longer exists.
type BookingWithTemple struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	User      primitive.ObjectID `json:"user" bson:"user"`
	Temple    *TempleSummary     `json:"temple" bson:"temple,omitempty"`
	SlotTime  time.Time          `json:"slotTime" bson:"slotTime"`
	Status    BookingStatus      `json:"status" bson:"status"`
	QRCode    string             `json:"qrCode" bson:"qrCode"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// QRCodeFor derives the booking code from the wall clock and the owner id.
// Unique per process as long as one user does not book twice in a millisecond.
func QRCodeFor(userID primitive.ObjectID, at time.Time) string {
	return fmt.Sprintf("QR-%d-%s", at.UnixMilli(), userID.Hex())
}

// NewBooking builds a Booked booking for userID at the given slot.
func NewBooking(userID, templeID primitive.ObjectID, slot, now time.Time) *Booking {
	return &Booking{
		User:     userID,
		Temple:   templeID,
		SlotTime: slot,
		Status:   BookingBooked,
		QRCode:   QRCodeFor(userID, now),
	}
}

func (b *Booking) ApplyDefaults() {
	if b.Status == "" {
		b.Status = BookingBooked
	}
}

func (b *Booking) Validate() error {
	if b.User.IsZero() {
		return invalid("user", "is required")
	}
	if b.Temple.IsZero() {
		return invalid("templeId", "is required")
	}
	if b.SlotTime.IsZero() {
		return invalid("slotTime", "is required")
	}
	if !b.Status.Valid() {
		return invalid("status", "must be one of Booked, Completed, Cancelled")
	}
	return required("qrCode", b.QRCode)
}
