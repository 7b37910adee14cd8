package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CrowdLevel string

const (
	CrowdLow      CrowdLevel = "Low"
	CrowdMedium   CrowdLevel = "Medium"
	CrowdHigh     CrowdLevel = "High"
	CrowdVeryHigh CrowdLevel = "Very High"
)

func (c CrowdLevel) Valid() bool {
	switch c {
	case CrowdLow, CrowdMedium, CrowdHigh, CrowdVeryHigh:
		return true
	}
	return false
}

// DefaultWaitMinutes is used when a temple is created without an estimate.
const DefaultWaitMinutes = 15

type Temple struct {
	ID                primitive.ObjectID `json:"_id" bson:"_id,omitempty" yaml:"-"`
	Name              string             `json:"name" bson:"name" yaml:"name"`
	Location          string             `json:"location" bson:"location" yaml:"location"`
	CurrentCrowdLevel CrowdLevel         `json:"currentCrowdLevel" bson:"currentCrowdLevel" yaml:"currentCrowdLevel"`
	EstimatedWaitTime int                `json:"estimatedWaitTime" bson:"estimatedWaitTime" yaml:"estimatedWaitTime"`
	CreatedAt         time.Time          `json:"createdAt" bson:"createdAt" yaml:"-"`
	UpdatedAt         time.Time          `json:"updatedAt" bson:"updatedAt" yaml:"-"`
}

// TempleSummary is the slice of a temple inlined into booking listings.
type TempleSummary struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id"`
	Name     string             `json:"name" bson:"name"`
	Location string             `json:"location" bson:"location"`
}

func (t *Temple) ApplyDefaults() {
	if t.CurrentCrowdLevel == "" {
		t.CurrentCrowdLevel = CrowdLow
	}
	if t.EstimatedWaitTime == 0 {
		t.EstimatedWaitTime = DefaultWaitMinutes
	}
}

func (t *Temple) Validate() error {
	if err := required("name", t.Name); err != nil {
		return err
	}
	if err := required("location", t.Location); err != nil {
		return err
	}
	if !t.CurrentCrowdLevel.Valid() {
		return invalid("currentCrowdLevel", "must be one of Low, Medium, High, Very High")
	}
	if t.EstimatedWaitTime < 0 {
		return invalid("estimatedWaitTime", "must not be negative")
	}
	return nil
}
