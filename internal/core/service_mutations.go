package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/fieldprompts/internal/logging"
)

// UpdatePrompt replaces the prompt text of the row with id and bumps
// updated_at. The text is trimmed; when it equals the stored prompt nothing
// is written and false is returned. Returns ErrPromptNotFound for an
// unknown id.
func (s *Service) UpdatePrompt(ctx context.Context, id int64, text string) (bool, error) {
	current, err := s.store.PromptByID(ctx, id)
	if err != nil {
		return false, err
	}
	return s.updatePrompt(ctx, current, text)
}

// UpdatePromptByKey is UpdatePrompt addressed by natural key.
func (s *Service) UpdatePromptByKey(ctx context.Context, key Key, text string) (bool, error) {
	current, err := s.store.PromptByKey(ctx, key)
	if err != nil {
		return false, err
	}
	return s.updatePrompt(ctx, current, text)
}

func (s *Service) updatePrompt(ctx context.Context, current FieldPrompt, text string) (bool, error) {
	text = strings.TrimSpace(text)
	if text == strings.TrimSpace(current.Prompt) {
		return false, nil
	}

	if err := s.store.UpdatePrompt(ctx, current.ID, text, s.now()); err != nil {
		return false, fmt.Errorf("update prompt %d: %w", current.ID, err)
	}

	logging.FromContext(ctx).Info("prompt updated",
		"id", current.ID,
		"key", current.Key().String(),
	)
	return true, nil
}
