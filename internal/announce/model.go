package announce

import (
	"errors"
	"strings"
)

// Type classifies announcement urgency. It selects the chime pattern,
// narration rate/pitch and popup dismissal rules on the client.
type Type string

const (
	// TypeInfo is a routine informational announcement.
	TypeInfo Type = "info"
	// TypeWarning is an elevated notice.
	TypeWarning Type = "warning"
	// TypeEmergency is the highest urgency; emergency popups cannot be
	// dismissed by clicking outside the overlay.
	TypeEmergency Type = "emergency"
)

// Display selects how a client renders an announcement.
type Display string

const (
	// DisplayBanner renders a dismissible strip.
	DisplayBanner Display = "banner"
	// DisplayPopup renders a modal overlay.
	DisplayPopup Display = "popup"
)

// ErrEmptyText indicates that an announcement draft has no text after trimming.
var ErrEmptyText = errors.New("announce: text required")

// Announcement is one admin-authored message with its delivery metadata.
// IDs are assigned by the store, strictly increasing and never reused.
// Created is a unix-millisecond timestamp and is informational only; the id
// is the ordering key.
type Announcement struct {
	ID       int64   `json:"id"`
	Text     string  `json:"text"`
	Title    string  `json:"title"`
	Type     Type    `json:"type"`
	Display  Display `json:"display"`
	Duration int     `json:"duration"`
	TTS      bool    `json:"tts"`
	Created  int64   `json:"created"`
}

// AllowsBackdropDismiss reports whether clicking outside a popup overlay may
// dismiss the announcement. Emergency popups require an explicit dismissal.
func (a Announcement) AllowsBackdropDismiss() bool {
	return !(a.Display == DisplayPopup && a.Type == TypeEmergency)
}

// Draft carries client-supplied fields for a new announcement.
type Draft struct {
	Text     string
	Title    string
	Type     Type
	Display  Display
	Duration int
	TTS      bool
}

// Normalize trims text fields, substitutes defaults for unknown enum values,
// clamps a negative duration to zero and rejects empty text.
func (d Draft) Normalize() (Draft, error) {
	normalized := d
	normalized.Text = strings.TrimSpace(d.Text)
	if normalized.Text == "" {
		return Draft{}, ErrEmptyText
	}
	normalized.Title = strings.TrimSpace(d.Title)
	normalized.Type = ParseType(string(d.Type))
	normalized.Display = ParseDisplay(string(d.Display))
	if normalized.Duration < 0 {
		normalized.Duration = 0
	}
	return normalized, nil
}

// ParseType maps raw input to a Type, defaulting to TypeInfo.
func ParseType(value string) Type {
	switch Type(strings.ToLower(strings.TrimSpace(value))) {
	case TypeWarning:
		return TypeWarning
	case TypeEmergency:
		return TypeEmergency
	default:
		return TypeInfo
	}
}

// ParseDisplay maps raw input to a Display, defaulting to DisplayBanner.
func ParseDisplay(value string) Display {
	if Display(strings.ToLower(strings.TrimSpace(value))) == DisplayPopup {
		return DisplayPopup
	}
	return DisplayBanner
}
