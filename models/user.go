package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RolePilgrim Role = "pilgrim"
	RoleAdmin   Role = "admin"
	RoleStaff   Role = "staff"
)

func (r Role) Valid() bool {
	switch r {
	case RolePilgrim, RoleAdmin, RoleStaff:
		return true
	}
	return false
}

type AccessibilityNeeds struct {
	IsDifferentlyAbled bool `json:"isDifferentlyAbled" bson:"isDifferentlyAbled"`
	IsSeniorCitizen    bool `json:"isSeniorCitizen" bson:"isSeniorCitizen"`
}

// User is a registered account. Password holds the bcrypt hash only.
type User struct {
	ID                 primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name               string             `json:"name" bson:"name"`
	Email              string             `json:"email" bson:"email"`
	Password           string             `json:"-" bson:"password"`
	Role               Role               `json:"role" bson:"role"`
	AccessibilityNeeds AccessibilityNeeds `json:"accessibilityNeeds" bson:"accessibilityNeeds"`
	CreatedAt          time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// NormalizeEmail is applied to every email before it is stored or looked up.
// Only surrounding space is removed; case is kept, so existing accounts keep
// matching exactly as they were stored.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

func (u *User) ApplyDefaults() {
	if u.Role == "" {
		u.Role = RolePilgrim
	}
}

func (u *User) Validate() error {
	if err := required("name", strings.TrimSpace(u.Name)); err != nil {
		return err
	}
	if err := required("email", u.Email); err != nil {
		return err
	}
	if !strings.Contains(u.Email, "@") {
		return invalid("email", "is not a valid address")
	}
	if err := required("password", u.Password); err != nil {
		return err
	}
	if !u.Role.Valid() {
		return invalid("role", "must be one of pilgrim, admin, staff")
	}
	return nil
}
