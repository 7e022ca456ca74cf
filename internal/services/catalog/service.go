// Package catalog serves the quiz question catalog
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/comate/comate/internal/model"
	"github.com/comate/comate/internal/storage"
)

// Service provides read access to the question catalog and seeds it
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new catalog Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// List returns the catalog ordered by sort order
func (s *Service) List(ctx context.Context) ([]model.Question, error) {
	return s.storage.ListQuestions(ctx)
}

// SeedDefaults stores DefaultQuestions if the catalog is empty
func (s *Service) SeedDefaults(ctx context.Context) error {
	return s.seed(ctx, DefaultQuestions, "defaults")
}

// LoadFromFile replaces the catalog with a JSON array of questions:
// [{"short_id": "...", "text": "...", "options": ["..."]}]. Sort order
// follows the file order.
func (s *Service) LoadFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var entries []struct {
		ShortID string   `json:"short_id"`
		Text    string   `json:"text"`
		Options []string `json:"options"`
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	questions := make([]model.Question, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		id := strings.TrimSpace(e.ShortID)
		if id == "" {
			return fmt.Errorf("parse %s: %w", path, &model.ValidationError{Field: "short_id", Message: "is required"})
		}
		if seen[id] {
			return fmt.Errorf("parse %s: %w", path, &model.ValidationError{Field: "short_id", Message: "duplicate " + id})
		}
		seen[id] = true
		questions = append(questions, model.Question{ShortID: id, Text: e.Text, Options: e.Options})
	}

	if err := s.storage.SaveQuestions(ctx, withSortOrder(questions)); err != nil {
		return err
	}
	s.logger.Info("question catalog loaded", "path", path, "questions", len(questions))
	return nil
}

func (s *Service) seed(ctx context.Context, questions []model.Question, source string) error {
	existing, err := s.storage.ListQuestions(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	if err := s.storage.SaveQuestions(ctx, withSortOrder(questions)); err != nil {
		return err
	}
	s.logger.Info("question catalog seeded", "source", source, "questions", len(questions))
	return nil
}

func withSortOrder(questions []model.Question) []model.Question {
	ordered := make([]model.Question, len(questions))
	for i, q := range questions {
		q.SortOrder = i
		ordered[i] = q
	}
	return ordered
}
