package models

import (
	"fmt"
	"strings"
)

// Gender enumerates the values accepted by the User API.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Genders lists the selectable genders in display order.
var Genders = []Gender{GenderMale, GenderFemale}

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Label returns the display form of g.
func (g Gender) Label() string {
	switch g {
	case GenderMale:
		return "Male"
	case GenderFemale:
		return "Female"
	default:
		return string(g)
	}
}

// UserRecord is a user as returned by the User API. ID and the timestamps are
// owned by the API and are only ever round-tripped.
type UserRecord struct {
	ID        *int64     `json:"id,omitempty"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Birthdate Date       `json:"birthdate"`
	Gender    Gender     `json:"gender"`
	CreatedAt *Timestamp `json:"created_at,omitempty"`
	UpdatedAt *Timestamp `json:"updated_at,omitempty"`
}

// IDValue returns the record id or zero for unsaved records.
func (u UserRecord) IDValue() int64 {
	if u.ID == nil {
		return 0
	}
	return *u.ID
}

// FullName joins first and last name.
func (u UserRecord) FullName() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", u.FirstName, u.LastName))
}

// Payload returns the client-writable part of the record.
func (u UserRecord) Payload() UserPayload {
	return UserPayload{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Birthdate: u.Birthdate,
		Gender:    u.Gender,
	}
}

// UserPayload is the body sent on create and update.
type UserPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Birthdate Date   `json:"birthdate"`
	Gender    Gender `json:"gender"`
}

// ImportResult is the response of the bulk import trigger.
type ImportResult struct {
	Message string `json:"message"`
}
