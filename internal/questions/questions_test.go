package questions

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeQuestionFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "answers.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write question file: %v", err)
	}
	return path
}

func TestLoadAssignsDenseIDsInFileOrder(t *testing.T) {
	path := writeQuestionFile(t, `[
		{"question": "count rows", "sql": "SELECT COUNT(*) FROM t"},
		{"question": "list names", "sql": "SELECT sname FROM students"},
		{"question": "no answer yet", "sql": ""}
	]`)

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("len = %d", len(loaded))
	}
	for idx, q := range loaded {
		if q.ID != idx {
			t.Fatalf("question %d has ID %d", idx, q.ID)
		}
	}
	if loaded[0].Title != "count rows" || loaded[0].ReferenceSQL != "SELECT COUNT(*) FROM t" {
		t.Fatalf("first question = %+v", loaded[0])
	}
	if loaded[2].ReferenceSQL != "" {
		t.Fatalf("blank reference should stay blank, got %q", loaded[2].ReferenceSQL)
	}
}

func TestLoadIgnoresUnknownFields(t *testing.T) {
	path := writeQuestionFile(t, `[{"question": "q", "sql": "SELECT 1", "difficulty": "hard"}]`)
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded) != 1 || loaded[0].Title != "q" {
		t.Fatalf("loaded = %+v", loaded)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("Load() should fail for a missing file")
	}
}

func TestLoadEmptyListFails(t *testing.T) {
	path := writeQuestionFile(t, `[]`)
	if _, err := Load(path); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("error = %v, want ErrNoQuestions", err)
	}
}

func TestLoadMalformedJSONFails(t *testing.T) {
	path := writeQuestionFile(t, `{"question": "not an array"}`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load() should fail for malformed content")
	}
}
