package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AlertType string

const (
	AlertMedical  AlertType = "Medical"
	AlertSecurity AlertType = "Security"
	AlertLost     AlertType = "Lost"
)

func (a AlertType) Valid() bool {
	switch a {
	case AlertMedical, AlertSecurity, AlertLost:
		return true
	}
	return false
}

type AlertStatus string

const (
	AlertNew          AlertStatus = "New"
	AlertAcknowledged AlertStatus = "Acknowledged"
	AlertResolved     AlertStatus = "Resolved"
)

func (s AlertStatus) Valid() bool {
	switch s {
	case AlertNew, AlertAcknowledged, AlertResolved:
		return true
	}
	return false
}

// GeoPoint keeps coordinates as the text the device sent.
type GeoPoint struct {
	Latitude  string `json:"latitude" bson:"latitude"`
	Longitude string `json:"longitude" bson:"longitude"`
}

type Alert struct {
	ID        primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	User      *primitive.ObjectID `json:"user,omitempty" bson:"user,omitempty"`
	Location  GeoPoint            `json:"location" bson:"location"`
	AlertType AlertType           `json:"alertType" bson:"alertType"`
	Status    AlertStatus         `json:"status" bson:"status"`
	CreatedAt time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt" bson:"updatedAt"`
}

func (a *Alert) ApplyDefaults() {
	if a.AlertType == "" {
		a.AlertType = AlertMedical
	}
	if a.Status == "" {
		a.Status = AlertNew
	}
}

func (a *Alert) Validate() error {
	if err := required("latitude", a.Location.Latitude); err != nil {
		return err
	}
	if err := required("longitude", a.Location.Longitude); err != nil {
		return err
	}
	if !a.AlertType.Valid() {
		return invalid("alertType", "must be one of Medical, Security, Lost")
	}
	if !a.Status.Valid() {
		return invalid("status", "must be one of New, Acknowledged, Resolved")
	}
	return nil
}
