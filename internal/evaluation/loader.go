package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadGoldenUtterances reads and parses a golden utterance set from a JSON file.
func LoadGoldenUtterances(path string) ([]GoldenUtterance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden utterances file: %w", err)
	}

	var utterances []GoldenUtterance
	if err := json.Unmarshal(data, &utterances); err != nil {
		return nil, fmt.Errorf("failed to parse golden utterances: %w", err)
	}

	return utterances, nil
}

var validDifficulties = map[string]bool{
	"easy":   true,
	"medium": true,
	"hard":   true,
}

// ValidateGoldenUtterances checks that all golden utterances have required fields and valid values.
func ValidateGoldenUtterances(utterances []GoldenUtterance) error {
	seen := make(map[string]struct{}, len(utterances))

	for i, u := range utterances {
		if u.ID == "" {
			return fmt.Errorf("utterance at index %d: missing id", i)
		}
		if _, dup := seen[u.ID]; dup {
			return fmt.Errorf("utterance at index %d: duplicate id %q", i, u.ID)
		}
		seen[u.ID] = struct{}{}

		if u.Text == "" {
			return fmt.Errorf("utterance %q: missing text", u.ID)
		}
		if !isValidIntent(u.Intent) {
			return fmt.Errorf("utterance %q: invalid intent %q", u.ID, u.Intent)
		}
		if !validDifficulties[u.Difficulty] {
			return fmt.Errorf("utterance %q: invalid difficulty %q (must be easy/medium/hard)", u.ID, u.Difficulty)
		}
	}

	return nil
}
