package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CrowdSample is one reading pushed by a camera, drone or counter.
// Samples are write-only.
type CrowdSample struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Temple     primitive.ObjectID `json:"temple" bson:"temple"`
	CrowdCount float64            `json:"crowdCount" bson:"crowdCount"`
	Source     string             `json:"source" bson:"source"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updatedAt"`
}

func (c *CrowdSample) Validate() error {
	if c.Temple.IsZero() {
		return invalid("templeId", "is required")
	}
	return required("source", c.Source)
}
