// Package questions loads the practice question list from its JSON file.
package questions

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var ErrNoQuestions = errors.New("question file contains no questions")

// Question is immutable once loaded. ID is the dense 0-based position in the
// source file and stays stable across runs as long as the file is unchanged.
type Question struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	ReferenceSQL string `json:"-"`
}

type fileEntry struct {
	Question string `json:"question"`
	SQL      string `json:"sql"`
}

// Load reads the question file once. The file is treated as immutable for the
// process lifetime; a missing or empty file means there is no usable session.
func Load(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question file %q: %w", path, err)
	}

	var entries []fileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse question file %q: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, ErrNoQuestions
	}

	// Entries keep their slot even when fields are blank so numbering stays
	// aligned with the file.
	loaded := make([]Question, 0, len(entries))
	for idx, entry := range entries {
		loaded = append(loaded, Question{
			ID:           idx,
			Title:        entry.Question,
			ReferenceSQL: entry.SQL,
		})
	}
	return loaded, nil
}
