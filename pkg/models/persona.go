package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Persona is a user's structured self-description: brand voice, audience and
// goals. One row per user (upsert keyed by user_id); never hard-deleted.
// ScrapedProfile and ScrapedPosts hold the raw LinkedIn scrape output as
// opaque JSON.
type Persona struct {
	UserID           uuid.UUID       `json:"user_id"`
	Introduction     string          `json:"introduction"`
	Uniqueness       string          `json:"uniqueness"`
	Audience         string          `json:"audience"`
	ValueProposition string          `json:"value_proposition"`
	Style            string          `json:"style"`
	Goals            string          `json:"goals"`
	ScrapedProfile   json.RawMessage `json:"scraped_profile,omitempty"`
	ScrapedPosts     json.RawMessage `json:"scraped_posts,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// IsEmpty reports whether no descriptive field has been filled in yet.
func (p *Persona) IsEmpty() bool {
	return p.Introduction == "" && p.Uniqueness == "" && p.Audience == "" &&
		p.ValueProposition == "" && p.Style == "" && p.Goals == ""
}
