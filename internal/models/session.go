package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// FlashLevel classifies a one-shot user message.
type FlashLevel string

const (
	FlashSuccess FlashLevel = "success"
	FlashWarning FlashLevel = "warning"
	FlashError   FlashLevel = "error"
)

// Flash is a message shown once on the next rendered page.
type Flash struct {
	Level   FlashLevel `json:"level"`
	Message string     `json:"message"`
}

// Session is the server-side state bound to a browser cookie.
type Session struct {
	ID        string    `json:"id"`
	Flashes   []Flash   `json:"flashes"`
	CreatedAt time.Time `json:"created_at"`
}

// CSRFClaims bind a form token to one session and one action.
type CSRFClaims struct {
	SessionID string `json:"sid"`
	Intent    string `json:"intent"`
	jwt.RegisteredClaims
}
