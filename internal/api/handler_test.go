package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sqldrill/sqldrill/internal/config"
	"github.com/sqldrill/sqldrill/internal/history"
	"github.com/sqldrill/sqldrill/internal/query"
	"github.com/sqldrill/sqldrill/internal/questions"
	"github.com/sqldrill/sqldrill/internal/schema"
	"github.com/sqldrill/sqldrill/internal/session"
)

type fakeEngine struct {
	mu      sync.Mutex
	results map[string]query.Result
	errs    map[string]error
	delays  map[string]time.Duration
	calls   []string
}

func (f *fakeEngine) Execute(_ context.Context, sqlText string) (query.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, sqlText)
	delay := f.delays[sqlText]
	err := f.errs[sqlText]
	result := f.results[sqlText]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return query.Result{}, err
	}
	return result, nil
}

type recordedSubmission struct {
	questionID   int
	sql          string
	correct      bool
	errorMessage string
}

type fakeLedger struct {
	mu        sync.Mutex
	records   []recordedSubmission
	recordErr error
	entries   map[int][]history.Entry
	solved    map[int]struct{}
	solvedErr error
}

func (f *fakeLedger) Record(_ context.Context, questionID int, submittedSQL string, isCorrect bool, errorMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	f.records = append(f.records, recordedSubmission{
		questionID:   questionID,
		sql:          submittedSQL,
		correct:      isCorrect,
		errorMessage: errorMessage,
	})
	return nil
}

func (f *fakeLedger) ListForQuestion(_ context.Context, questionID int) ([]history.Entry, error) {
	return f.entries[questionID], nil
}

func (f *fakeLedger) SolvedQuestionIDs(_ context.Context) (map[int]struct{}, error) {
	if f.solvedErr != nil {
		return nil, f.solvedErr
	}
	return f.solved, nil
}

type fakeBrowser struct {
	tables      []string
	previews    map[string]schema.Preview
	invalidated int
}

func (f *fakeBrowser) Tables(_ context.Context) ([]string, error) {
	return f.tables, nil
}

func (f *fakeBrowser) Table(_ context.Context, name string) (schema.Preview, error) {
	preview, ok := f.previews[name]
	if !ok {
		return schema.Preview{}, schema.ErrUnknownTable
	}
	return preview, nil
}

func (f *fakeBrowser) Invalidate() {
	f.invalidated++
}

type fakeReseeder struct {
	err  error
	runs int
}

func (f *fakeReseeder) Run(_ context.Context) error {
	f.runs++
	return f.err
}

func testConfig(t *testing.T, overrides map[string]string) config.Config {
	t.Helper()
	env := map[string]string{"SQLDRILL_PROFILE": "test"}
	for key, value := range overrides {
		env[key] = value
	}
	cfg, err := config.Load("sqldrill-api", func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	})
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	return cfg
}

func testQuestions() []questions.Question {
	return []questions.Question{
		{ID: 0, Title: "Count the students", ReferenceSQL: "SELECT COUNT(*) FROM students"},
		{ID: 1, Title: "List course names", ReferenceSQL: "SELECT cname FROM courses"},
	}
}

type testDeps struct {
	engine   *fakeEngine
	ledger   *fakeLedger
	browser  *fakeBrowser
	reseeder *fakeReseeder
	sessions *session.Manager
}

func newTestHandler(t *testing.T, cfg config.Config) (http.Handler, *testDeps) {
	t.Helper()
	deps := &testDeps{
		engine: &fakeEngine{
			results: map[string]query.Result{},
			errs:    map[string]error{},
			delays:  map[string]time.Duration{},
		},
		ledger: &fakeLedger{
			entries: map[int][]history.Entry{},
			solved:  map[int]struct{}{},
		},
		browser: &fakeBrowser{
			tables:   []string{"courses", "students"},
			previews: map[string]schema.Preview{},
		},
		reseeder: &fakeReseeder{},
		sessions: session.NewManager(len(testQuestions())),
	}
	handler := NewHandler(cfg, Dependencies{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Questions: testQuestions(),
		Engine:    deps.engine,
		Ledger:    deps.ledger,
		Sessions:  deps.sessions,
		Schema:    deps.browser,
		Reseeder:  deps.reseeder,
	})
	return handler, deps
}

func doRequest(handler http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	request := httptest.NewRequest(method, target, reader)
	for key, value := range header {
		request.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", recorder.Body.String(), err)
	}
	return payload
}

func TestHealth(t *testing.T) {
	handler, _ := newTestHandler(t, testConfig(t, nil))
	recorder := doRequest(handler, http.MethodGet, "/v1/health", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	payload := decodeBody(t, recorder)
	if payload["service"] != "sqldrill-api" {
		t.Fatalf("service = %v", payload["service"])
	}
}

func TestReadyReportsFailingDependency(t *testing.T) {
	cfg := testConfig(t, nil)
	handler := NewHandler(cfg, Dependencies{
		Questions: testQuestions(),
		Readiness: func(context.Context) error { return errors.New("ledger down") },
	})
	recorder := doRequest(handler, http.MethodGet, "/v1/ready", "", nil)
	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", recorder.Code)
	}
	payload := decodeBody(t, recorder)
	if payload["error_code"] != "NOT_READY" {
		t.Fatalf("error_code = %v", payload["error_code"])
	}
}

func TestListQuestionsCarriesSolvedMarkers(t *testing.T) {
	handler, deps := newTestHandler(t, testConfig(t, nil))
	deps.ledger.solved = map[int]struct{}{1: {}}

	recorder := doRequest(handler, http.MethodGet, "/v1/questions", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	payload := decodeBody(t, recorder)
	items := payload["questions"].([]any)
	if len(items) != 2 {
		t.Fatalf("questions = %v", items)
	}
	first := items[0].(map[string]any)
	if first["number"] != float64(1) || first["solved"] != false {
		t.Fatalf("first question = %v", first)
	}
	second := items[1].(map[string]any)
	if second["solved"] != true {
		t.Fatalf("second question = %v", second)
	}
}

func TestListQuestionsDegradesWhenLedgerFails(t *testing.T) {
	handler, deps := newTestHandler(t, testConfig(t, nil))
	deps.ledger.solvedErr = errors.New("disk I/O error")

	recorder := doRequest(handler, http.MethodGet, "/v1/questions", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	payload := decodeBody(t, recorder)
	items := payload["questions"].([]any)
	for _, item := range items {
		if item.(map[string]any)["solved"] != false {
			t.Fatalf("solved marker should degrade to false: %v", item)
		}
	}
}

func TestGetQuestionBounds(t *testing.T) {
	handler, _ := newTestHandler(t, testConfig(t, nil))

	if code := doRequest(handler, http.MethodGet, "/v1/questions/9", "", nil).Code; code != http.StatusNotFound {
		t.Fatalf("out-of-range status = %d", code)
	}
	if code := doRequest(handler, http.MethodGet, "/v1/questions/abc", "", nil).Code; code != http.StatusBadRequest {
		t.Fatalf("non-integer status = %d", code)
	}
}

func TestGetQuestionReturnsSessionDraft(t *testing.T) {
	handler, deps := newTestHandler(t, testConfig(t, nil))
	deps.sessions.SaveDraft("alice", 0, "SELECT 1")

	recorder := doRequest(handler, http.MethodGet, "/v1/questions/0", "", map[string]string{"X-Session-ID": "alice"})
	payload := decodeBody(t, recorder)
	if payload["draft"] != "SELECT 1" {
		t.Fatalf("draft = %v", payload["draft"])
	}

	recorder = doRequest(handler, http.MethodGet, "/v1/questions/0", "", map[string]string{"X-Session-ID": "bob"})
	payload = decodeBody(t, recorder)
	if payload["draft"] != "" {
		t.Fatalf("foreign session draft = %v", payload["draft"])
	}
}

func TestSessionNavigation(t *testing.T) {
	handler, _ := newTestHandler(t, testConfig(t, nil))
	header := map[string]string{"X-Session-ID": "alice"}

	payload := decodeBody(t, doRequest(handler, http.MethodPost, "/v1/session/next", "", header))
	if payload["current_index"] != float64(1) || payload["current_number"] != float64(2) {
		t.Fatalf("after next: %v", payload)
	}

	// Clamped at the last question.
	payload = decodeBody(t, doRequest(handler, http.MethodPost, "/v1/session/next", "", header))
	if payload["current_index"] != float64(1) {
		t.Fatalf("after clamped next: %v", payload)
	}

	payload = decodeBody(t, doRequest(handler, http.MethodPost, "/v1/session/jump", `{"index":0}`, header))
	if payload["current_index"] != float64(0) {
		t.Fatalf("after jump: %v", payload)
	}

	recorder := doRequest(handler, http.MethodPost, "/v1/session/jump", `{"index":7}`, header)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("invalid jump status = %d", recorder.Code)
	}

	payload = decodeBody(t, doRequest(handler, http.MethodGet, "/v1/session", "", nil))
	if payload["current_index"] != float64(0) {
		t.Fatalf("default session index: %v", payload)
	}
}

func TestListTablesAndPreview(t *testing.T) {
	handler, deps := newTestHandler(t, testConfig(t, nil))
	deps.browser.previews["students"] = schema.Preview{
		Table:     "students",
		Columns:   []string{"sid", "sname"},
		Rows:      [][]any{{int64(1), "ada"}},
		TotalRows: 40,
	}

	payload := decodeBody(t, doRequest(handler, http.MethodGet, "/v1/schema/tables", "", nil))
	if tables := payload["tables"].([]any); len(tables) != 2 {
		t.Fatalf("tables = %v", tables)
	}

	recorder := doRequest(handler, http.MethodGet, "/v1/schema/tables/students", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("preview status = %d", recorder.Code)
	}
	payload = decodeBody(t, recorder)
	if payload["total_rows"] != float64(40) {
		t.Fatalf("preview = %v", payload)
	}

	recorder = doRequest(handler, http.MethodGet, "/v1/schema/tables/nope", "", nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("unknown table status = %d", recorder.Code)
	}
}

func TestReseedRunsAndInvalidatesSchemaCache(t *testing.T) {
	handler, deps := newTestHandler(t, testConfig(t, nil))

	recorder := doRequest(handler, http.MethodPost, "/v1/admin/reseed", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	if deps.reseeder.runs != 1 {
		t.Fatalf("reseeder runs = %d", deps.reseeder.runs)
	}
	if deps.browser.invalidated != 1 {
		t.Fatalf("schema cache invalidations = %d", deps.browser.invalidated)
	}
}

func TestReseedFailureKeepsCache(t *testing.T) {
	handler, deps := newTestHandler(t, testConfig(t, nil))
	deps.reseeder.err = errors.New("seed file broken")

	recorder := doRequest(handler, http.MethodPost, "/v1/admin/reseed", "", nil)
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", recorder.Code)
	}
	if deps.browser.invalidated != 0 {
		t.Fatalf("cache invalidated on failed reseed")
	}
}
