// Package verify decides whether a learner's result set matches the
// reference answer, ignoring column names and row order.
package verify

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sqldrill/sqldrill/internal/query"
)

const (
	DetailMismatch         = "Result mismatch"
	DetailReferenceTimeout = "Reference answer timeout, validation skipped."
)

// Execution pairs a result with the error that produced it, if any. Exactly
// one side is meaningful.
type Execution struct {
	Result query.Result
	Err    error
}

// Verdict is a point-in-time judgment. Evaluated is false only when the
// reference answer timed out: the submission is recorded but not graded.
type Verdict struct {
	Correct   bool
	Evaluated bool
	Detail    string
}

func Verify(expected, actual Execution) Verdict {
	if actual.Err != nil {
		return Verdict{Evaluated: true, Detail: actual.Err.Error()}
	}
	if expected.Err != nil {
		if errors.Is(expected.Err, query.ErrTimeout) {
			return Verdict{Evaluated: false, Detail: DetailReferenceTimeout}
		}
		return Verdict{Evaluated: true, Detail: expected.Err.Error()}
	}

	// Column names are discarded; comparison is positional. The count check
	// is explicit so a wrong column count reads as a mismatch instead of
	// failing somewhere inside the row compare.
	if len(expected.Result.Columns) != len(actual.Result.Columns) {
		return Verdict{Evaluated: true, Detail: DetailMismatch}
	}
	if len(expected.Result.Rows) != len(actual.Result.Rows) {
		return Verdict{Evaluated: true, Detail: DetailMismatch}
	}

	expectedRows := canonicalRows(expected.Result.Rows)
	actualRows := canonicalRows(actual.Result.Rows)
	sortRows(expectedRows)
	sortRows(actualRows)

	for i := range expectedRows {
		for j := range expectedRows[i] {
			if expectedRows[i][j] != actualRows[i][j] {
				return Verdict{Evaluated: true, Detail: DetailMismatch}
			}
		}
	}
	return Verdict{Correct: true, Evaluated: true}
}

// canonicalRows maps every value to a comparison key so that numerically or
// textually equal values compare equal regardless of storage type: int64(1),
// float64(1.0) and "1" all canonicalize to "1". Duplicated rows are kept.
func canonicalRows(rows [][]any) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		keys := make([]string, len(row))
		for j, value := range row {
			keys[j] = canonicalValue(value)
		}
		out[i] = keys
	}
	return out
}

func canonicalValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return "\x00null"
	case bool:
		if typed {
			return "1"
		}
		return "0"
	case int:
		return strconv.FormatInt(int64(typed), 10)
	case int8:
		return strconv.FormatInt(int64(typed), 10)
	case int16:
		return strconv.FormatInt(int64(typed), 10)
	case int32:
		return strconv.FormatInt(int64(typed), 10)
	case int64:
		return strconv.FormatInt(typed, 10)
	case uint:
		return strconv.FormatUint(uint64(typed), 10)
	case uint8:
		return strconv.FormatUint(uint64(typed), 10)
	case uint16:
		return strconv.FormatUint(uint64(typed), 10)
	case uint32:
		return strconv.FormatUint(uint64(typed), 10)
	case uint64:
		return strconv.FormatUint(typed, 10)
	case float32:
		return formatFloat(float64(typed))
	case float64:
		return formatFloat(typed)
	case time.Time:
		return typed.UTC().Format(time.RFC3339Nano)
	case []byte:
		return string(typed)
	case string:
		return typed
	default:
		return fmt.Sprint(typed)
	}
}

// formatFloat renders integral floats without a fractional part so that
// float64(2) matches int64(2).
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// sortRows orders rows by their full column tuple. The ordering is total, so
// tied prefixes fall through to later columns and duplicates stay adjacent.
func sortRows(rows [][]string) {
	sort.SliceStable(rows, func(i, j int) bool {
		return compareRows(rows[i], rows[j]) < 0
	})
}

func compareRows(a, b []string) int {
	for k := range a {
		if c := strings.Compare(a[k], b[k]); c != 0 {
			return c
		}
	}
	return 0
}
