package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resonant-ai/resonant-engine/pkg/apperrors"
	"github.com/resonant-ai/resonant-engine/pkg/llm"
	"github.com/resonant-ai/resonant-engine/pkg/models"
	"github.com/resonant-ai/resonant-engine/pkg/prompts"
	"github.com/resonant-ai/resonant-engine/pkg/repositories"
	"github.com/resonant-ai/resonant-engine/pkg/retry"
)

// Draft is a freshly generated post before persistence.
type Draft struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	LinkedIn string `json:"linkedin"`
	Twitter  string `json:"twitter"`
}

// ContentService generates post drafts from transcripts and handles the two
// regeneration paths: whole-post and selection.
type ContentService interface {
	// GenerateDraft turns a transcript plus retrieved memory context into a
	// titled draft with both platform variants.
	GenerateDraft(ctx context.Context, transcript string, memories []*models.MemoryMatch) (*Draft, error)

	// CreateFromDraft persists a generated draft as a new content item.
	CreateFromDraft(ctx context.Context, userID uuid.UUID, draft *Draft, contentType string) (*models.ContentItem, error)

	// RegenerateWhole regenerates both platform variants of an existing post
	// under free-text instructions and persists them.
	RegenerateWhole(ctx context.Context, userID, id uuid.UUID, instructions string) (*models.ContentItem, error)

	// RegenerateSelection regenerates only the selected span and returns the
	// proposed replacement text. Nothing is persisted.
	RegenerateSelection(ctx context.Context, selected, full, instructions, platform string) (string, error)

	// ApplySelection splices a replacement into [start, end) of the stored
	// variant and persists the result. For platform "x" the spliced text must
	// stay within the character limit or the splice is rejected.
	ApplySelection(ctx context.Context, userID, id uuid.UUID, platform string, start, end int, replacement string) (*models.ContentItem, error)

	// UpdateVariant stores a manual edit of one platform variant. The X
	// variant is truncated to the limit.
	UpdateVariant(ctx context.Context, userID, id uuid.UUID, platform, text string) (*models.ContentItem, error)

	// MarkPublished flips the item's status after a successful publish.
	MarkPublished(ctx context.Context, userID, id uuid.UUID) error

	// List returns the user's content items, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]*models.ContentItem, error)

	// Get returns one content item owned by the user.
	Get(ctx context.Context, userID, id uuid.UUID) (*models.ContentItem, error)

	// Delete removes a content item owned by the user.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type contentService struct {
	contentRepo repositories.ContentRepository
	messager    llm.Messager
	logger      *zap.Logger
}

// NewContentService creates a new content service with dependencies.
func NewContentService(
	contentRepo repositories.ContentRepository,
	messager llm.Messager,
	logger *zap.Logger,
) ContentService {
	return &contentService{
		contentRepo: contentRepo,
		messager:    messager,
		logger:      logger,
	}
}

var _ ContentService = (*contentService)(nil)

// draftTool is the structured-output schema for draft generation.
var draftTool = llm.ToolSchema{
	Name:        "create_draft",
	Description: "Create a social media post draft from the conversation.",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":    map[string]any{"type": "string", "description": "Post title, at most 55 characters"},
			"content":  map[string]any{"type": "string", "description": "Long-form body of the post"},
			"linkedin": map[string]any{"type": "string", "description": "Complete LinkedIn post, never cut off mid-sentence"},
			"twitter":  map[string]any{"type": "string", "description": "Standalone X post, at most 280 characters"},
		},
		"required": []string{"title", "content", "linkedin", "twitter"},
	},
}

func (s *contentService) GenerateDraft(ctx context.Context, transcript string, memories []*models.MemoryMatch) (*Draft, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, apperrors.ErrEmptyTranscript
	}

	var prompt strings.Builder
	if len(memories) > 0 {
		prompt.WriteString("Background the speaker has shared before:\n")
		for _, m := range memories {
			prompt.WriteString("- ")
			prompt.WriteString(m.Summary)
			prompt.WriteString("\n")
		}
		prompt.WriteString("\n")
	}
	prompt.WriteString("Transcript:\n\n")
	prompt.WriteString(transcript)

	raw, err := retry.DoWithResult(ctx, retry.LLMConfig(), func() (json.RawMessage, error) {
		return s.messager.CreateToolMessage(ctx,
			prompts.ContentDraftSystem, prompt.String(), 4096, draftTool)
	})
	if err != nil {
		return nil, fmt.Errorf("generate draft: %w", err)
	}

	var draft Draft
	// A schema-parse failure is terminal for the request; only the
	// connection-level retry above applies.
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, fmt.Errorf("generate draft: parse tool output: %w", err)
	}
	if draft.Title == "" || draft.LinkedIn == "" || draft.Twitter == "" {
		return nil, fmt.Errorf("generate draft: incomplete draft in tool output")
	}

	draft.Title = clipRunes(draft.Title, models.TitleMaxChars)
	draft.Twitter = models.TruncateX(draft.Twitter)

	return &draft, nil
}

func (s *contentService) CreateFromDraft(ctx context.Context, userID uuid.UUID, draft *Draft, contentType string) (*models.ContentItem, error) {
	item := &models.ContentItem{
		ID:                  uuid.New(),
		UserID:              userID,
		Title:               draft.Title,
		Details:             draft.Content,
		XDescription:        models.TruncateX(draft.Twitter),
		LinkedInDescription: draft.LinkedIn,
		ContentType:         contentType,
		Status:              models.ContentStatusDraft,
	}
	if err := s.contentRepo.Insert(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *contentService) RegenerateWhole(ctx context.Context, userID, id uuid.UUID, instructions string) (*models.ContentItem, error) {
	if strings.TrimSpace(instructions) == "" {
		return nil, fmt.Errorf("instructions are required")
	}

	item, err := s.contentRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Rewrite both platform variants of this post.

Title: %s

Current X variant:
%s

Current LinkedIn variant:
%s

Instructions: %s

Respond with a JSON object with exactly two string fields:
"x_description" (at most 280 characters) and "linkedin_description".`,
		item.Title, item.XDescription, item.LinkedInDescription, instructions)

	response, err := retry.DoWithResult(ctx, retry.LLMConfig(), func() (string, error) {
		return s.messager.CreateMessage(ctx, prompts.RegenerationSystem, prompt, 4096)
	})
	if err != nil {
		return nil, fmt.Errorf("regenerate post: %w", err)
	}

	x, linkedin, err := parseRegeneration(response)
	if err != nil {
		return nil, fmt.Errorf("regenerate post: %w", err)
	}

	x = models.TruncateX(x)
	if err := s.contentRepo.UpdateVariants(ctx, userID, id, x, linkedin); err != nil {
		return nil, err
	}

	item.XDescription = x
	item.LinkedInDescription = linkedin
	return item, nil
}

func (s *contentService) RegenerateSelection(ctx context.Context, selected, full, instructions, platform string) (string, error) {
	if strings.TrimSpace(instructions) == "" {
		return "", fmt.Errorf("instructions are required")
	}
	if selected == "" {
		return "", fmt.Errorf("selected text is required")
	}
	if !models.IsValidPlatform(platform) {
		return "", fmt.Errorf("unknown platform %q", platform)
	}

	prompt := fmt.Sprintf(`This is a post for %s:

%s

Rewrite ONLY this selected part:
%s

Instructions: %s

Respond with the replacement text only. No quotes, no JSON, no commentary.`,
		platformName(platform), full, selected, instructions)

	response, err := retry.DoWithResult(ctx, retry.LLMConfig(), func() (string, error) {
		return s.messager.CreateMessage(ctx, prompts.RegenerationSystem, prompt, 1024)
	})
	if err != nil {
		return "", fmt.Errorf("regenerate selection: %w", err)
	}

	return CleanGeneratedText(response), nil
}

func (s *contentService) ApplySelection(ctx context.Context, userID, id uuid.UUID, platform string, start, end int, replacement string) (*models.ContentItem, error) {
	item, err := s.contentRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	var full string
	switch platform {
	case models.PlatformX:
		full = item.XDescription
	case models.PlatformLinkedIn:
		full = item.LinkedInDescription
	default:
		return nil, fmt.Errorf("unknown platform %q", platform)
	}

	spliced, err := Splice(full, start, end, replacement)
	if err != nil {
		return nil, err
	}

	if platform == models.PlatformX && len([]rune(spliced)) > models.XMaxChars {
		// The splice is rejected outright; truncating a user-approved
		// replacement would silently corrupt it.
		return nil, apperrors.ErrPlatformLimit
	}

	switch platform {
	case models.PlatformX:
		item.XDescription = spliced
	case models.PlatformLinkedIn:
		item.LinkedInDescription = spliced
	}

	if err := s.contentRepo.UpdateVariants(ctx, userID, id, item.XDescription, item.LinkedInDescription); err != nil {
		return nil, err
	}

	return item, nil
}

func (s *contentService) UpdateVariant(ctx context.Context, userID, id uuid.UUID, platform, text string) (*models.ContentItem, error) {
	item, err := s.contentRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	switch platform {
	case models.PlatformX:
		item.XDescription = models.TruncateX(text)
	case models.PlatformLinkedIn:
		item.LinkedInDescription = text
	default:
		return nil, fmt.Errorf("unknown platform %q", platform)
	}

	if err := s.contentRepo.UpdateVariants(ctx, userID, id, item.XDescription, item.LinkedInDescription); err != nil {
		return nil, err
	}

	return item, nil
}

func (s *contentService) MarkPublished(ctx context.Context, userID, id uuid.UUID) error {
	return s.contentRepo.UpdateStatus(ctx, userID, id, models.ContentStatusPublished)
}

func (s *contentService) List(ctx context.Context, userID uuid.UUID) ([]*models.ContentItem, error) {
	return s.contentRepo.GetByUser(ctx, userID)
}

func (s *contentService) Get(ctx context.Context, userID, id uuid.UUID) (*models.ContentItem, error) {
	return s.contentRepo.GetByID(ctx, userID, id)
}

func (s *contentService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.contentRepo.Delete(ctx, userID, id)
}

// Splice replaces full[start:end) with replacement, counting in runes so
// multi-byte text splices at the positions the client selected. Characters
// outside the range are untouched.
func Splice(full string, start, end int, replacement string) (string, error) {
	runes := []rune(full)
	if start < 0 || end < start || end > len(runes) {
		return "", fmt.Errorf("%w: [%d, %d) in text of length %d", apperrors.ErrInvalidRange, start, end, len(runes))
	}
	return string(runes[:start]) + replacement + string(runes[end:]), nil
}

// fieldPatterns extract regeneration fields when the model's response is not
// valid JSON. This is the second stage of the two-stage parse: strict JSON
// first, pattern extraction second.
var (
	xFieldPattern        = regexp.MustCompile(`"x_description"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	linkedinFieldPattern = regexp.MustCompile(`"linkedin_description"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// parseRegeneration parses a whole-post regeneration response. Strict JSON is
// tried first; on failure, the fields are pattern-extracted from the raw
// response to tolerate formatting drift.
func parseRegeneration(response string) (x, linkedin string, err error) {
	type regenResult struct {
		XDescription        string `json:"x_description"`
		LinkedInDescription string `json:"linkedin_description"`
	}

	if result, jsonErr := llm.ParseJSONResponse[regenResult](response); jsonErr == nil &&
		result.XDescription != "" && result.LinkedInDescription != "" {
		return result.XDescription, result.LinkedInDescription, nil
	}

	xMatch := xFieldPattern.FindStringSubmatch(response)
	liMatch := linkedinFieldPattern.FindStringSubmatch(response)
	if xMatch == nil || liMatch == nil {
		return "", "", fmt.Errorf("response matched neither JSON nor field patterns")
	}

	return unescapeJSONString(xMatch[1]), unescapeJSONString(liMatch[1]), nil
}

// unescapeJSONString decodes JSON escapes in a pattern-extracted field value.
func unescapeJSONString(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}

// CleanGeneratedText strips the incidental wrapping the model sometimes adds
// to a replacement snippet: code fences, a single-field JSON object, wrapping
// quotes, and escaped newlines. The rules run in a fixed order.
func CleanGeneratedText(s string) string {
	text := strings.TrimSpace(s)

	// Code fences.
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	// A JSON object with a single string value.
	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		var obj map[string]string
		if err := json.Unmarshal([]byte(text), &obj); err == nil && len(obj) == 1 {
			for _, v := range obj {
				text = v
			}
		}
	}

	// Wrapping quotes.
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		text = text[1 : len(text)-1]
	}

	// Escaped newlines left over from JSON-ish output.
	text = strings.ReplaceAll(text, `\n`, "\n")

	return strings.TrimSpace(text)
}

// clipRunes trims s to at most n runes.
func clipRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}

func platformName(platform string) string {
	if platform == models.PlatformX {
		return "X (Twitter)"
	}
	return "LinkedIn"
}
