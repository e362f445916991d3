package core

import (
	"context"
	"fmt"
)

// Areas returns the distinct areas in alphabetical order.
func (s *Service) Areas(ctx context.Context) ([]string, error) {
	areas, err := s.store.Areas(ctx)
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	return areas, nil
}

// SubAreas returns the distinct sub areas of an area in alphabetical order.
func (s *Service) SubAreas(ctx context.Context, area string) ([]string, error) {
	subAreas, err := s.store.SubAreas(ctx, area)
	if err != nil {
		return nil, fmt.Errorf("list sub areas of %q: %w", area, err)
	}
	return subAreas, nil
}

// Prompts returns the prompts of an (area, sub area) pair ordered by field.
func (s *Service) Prompts(ctx context.Context, area, subArea string) ([]FieldPrompt, error) {
	prompts, err := s.store.Prompts(ctx, area, subArea)
	if err != nil {
		return nil, fmt.Errorf("list prompts of %q/%q: %w", area, subArea, err)
	}
	return prompts, nil
}

// Prompt returns a single prompt by id.
func (s *Service) Prompt(ctx context.Context, id int64) (FieldPrompt, error) {
	return s.store.PromptByID(ctx, id)
}
