// Package catalog loads and validates question catalogs.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"chemquest/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// DefaultID is the id of the embedded catalog.
const DefaultID = "chemquest"

// Default returns the embedded catalog. It panics if the embedded data is invalid,
// which is covered by the package tests.
func Default() domain.Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Parse decodes a YAML catalog and validates it.
func Parse(data []byte) (domain.Catalog, error) {
	var c domain.Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return domain.Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	if err := Validate(c.Questions); err != nil {
		return domain.Catalog{}, err
	}
	return c, nil
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (domain.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Catalog{}, err
	}
	c, err := Parse(data)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate checks catalog authoring invariants. Option texts are compared after trimming
// surrounding whitespace so that visually identical options are caught too.
func Validate(questions []domain.Question) error {
	seen := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		if strings.TrimSpace(q.ID) == "" {
			return fmt.Errorf("%w: empty id", domain.ErrInvalidQuestion)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateQuestionID, q.ID)
		}
		seen[q.ID] = struct{}{}

		if err := ValidateOptions(q); err != nil {
			return err
		}
		if !q.Difficulty.Valid() {
			return fmt.Errorf("%w: %s: difficulty %q", domain.ErrInvalidQuestion, q.ID, q.Difficulty)
		}
		if q.TimeLimitSeconds <= 0 {
			return fmt.Errorf("%w: %s: time limit %d", domain.ErrInvalidQuestion, q.ID, q.TimeLimitSeconds)
		}
	}
	return nil
}

// ValidateOptions checks the option list and correct index of a single question.
func ValidateOptions(q domain.Question) error {
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: %s", domain.ErrTooFewOptions, q.ID)
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("%w: %s: %d", domain.ErrInvalidCorrectIndex, q.ID, q.CorrectIndex)
	}
	texts := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		key := strings.TrimSpace(opt)
		if _, dup := texts[key]; dup {
			return fmt.Errorf("%w: %s: %q", domain.ErrAmbiguousOptionText, q.ID, key)
		}
		texts[key] = struct{}{}
	}
	return nil
}
