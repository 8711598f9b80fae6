package models

import (
	"time"

	"github.com/google/uuid"
)

// XMaxChars is the hard character limit for the X (Twitter) variant of a post.
// Every mutation path must leave XDescription at or under this limit.
const XMaxChars = 280

// TitleMaxChars is the generation-time cap for a draft title.
const TitleMaxChars = 55

// Content item statuses.
const (
	ContentStatusDraft     = "draft"
	ContentStatusPublished = "published"
)

// Content types.
const (
	ContentTypePost      = "post"
	ContentTypeInterview = "interview"
)

// Platform identifiers for platform-specific variants.
const (
	PlatformX        = "x"
	PlatformLinkedIn = "linkedin"
)

// ContentItem is a generated post draft with platform-specific variants.
// Created once per processed voice call; mutated by manual edit, selection
// regeneration or whole regeneration.
type ContentItem struct {
	ID                  uuid.UUID `json:"id"`
	UserID              uuid.UUID `json:"user_id"`
	Title               string    `json:"title"`
	Details             string    `json:"details"`
	XDescription        string    `json:"x_description"`
	LinkedInDescription string    `json:"linkedin_description"`
	ContentType         string    `json:"content_type"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"created_at"`
}

// TruncateX trims s to the X character limit. Used on the generate and
// manual-edit paths, where an over-limit variant is clipped rather than
// rejected.
func TruncateX(s string) string {
	runes := []rune(s)
	if len(runes) <= XMaxChars {
		return s
	}
	return string(runes[:XMaxChars])
}

// IsValidPlatform reports whether p names a supported variant platform.
func IsValidPlatform(p string) bool {
	return p == PlatformX || p == PlatformLinkedIn
}
