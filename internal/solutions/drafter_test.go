package solutions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/paper-nest/backend/internal/corpus"
	"github.com/paper-nest/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type staticCorpus struct {
	snap *corpus.Snapshot
	err  error
}

func (s staticCorpus) Snapshot(context.Context) (*corpus.Snapshot, error) {
	return s.snap, s.err
}

type recordingClient struct {
	reply      string
	err        error
	userPrompt string
}

func (c *recordingClient) Generate(_ context.Context, _ string, userPrompt string) (*LLMResponse, error) {
	c.userPrompt = userPrompt
	if c.err != nil {
		return nil, c.err
	}
	return &LLMResponse{Content: c.reply, PromptTokens: 120, OutputTokens: 40}, nil
}

func bank() staticCorpus {
	return staticCorpus{snap: &corpus.Snapshot{
		ArchivePath: "bank.zip",
		ModTime:     time.Unix(1700000000, 0),
		Questions: []models.Question{
			{
				ID:           "1",
				Chapter:      "Units",
				QuestionText: "\\frac{1}{2} of 8 is?",
				Options:      []string{"2", "4"},
				Answer:       "4",
				Provenance:   models.Provenance{Exam: "CET", Standard: "11th", Subject: "Physics"},
			},
		},
	}}
}

func TestDraft_ByCompositeKey(t *testing.T) {
	llm := &recordingClient{reply: `{"solution":"8 / 2 = 4","steps":["Halve 8."],"final_answer":"4"}`}
	d := NewDrafter(llm, "test-model", bank(), zaptest.NewLogger(t))

	resp, err := d.Draft(context.Background(), models.DraftRequest{Exam: "CET", CompositeKey: "Units::1"})
	require.NoError(t, err)

	assert.Equal(t, "8 / 2 = 4", resp.Solution)
	assert.Equal(t, []string{"Halve 8."}, resp.Steps)
	assert.False(t, resp.AnswerMismatch)
	assert.Equal(t, "test-model", resp.Model)
	assert.Equal(t, 120, resp.PromptTokens)
	assert.Contains(t, llm.userPrompt, "1/2 of 8 is?")
	assert.Contains(t, llm.userPrompt, "EXPECTED ANSWER: 4")
}

func TestDraft_InlineQuestionFlagsMismatch(t *testing.T) {
	llm := &recordingClient{reply: `{"solution":"It is 5.","final_answer":"5"}`}
	d := NewDrafter(llm, "test-model", nil, nil)

	resp, err := d.Draft(context.Background(), models.DraftRequest{Question: "2 + 2 = ?", Answer: "4"})
	require.NoError(t, err)
	assert.True(t, resp.AnswerMismatch)
}

func TestDraft_Errors(t *testing.T) {
	llmErr := errors.New("upstream down")

	tests := []struct {
		name   string
		llm    *recordingClient
		src    CorpusSource
		req    models.DraftRequest
		target error
	}{
		{"unknown key", &recordingClient{reply: "x"}, bank(), models.DraftRequest{CompositeKey: "Units::9"}, ErrQuestionNotFound},
		{"wrong exam", &recordingClient{reply: "x"}, bank(), models.DraftRequest{Exam: "NEET", CompositeKey: "Units::1"}, ErrQuestionNotFound},
		{"llm failure", &recordingClient{err: llmErr}, bank(), models.DraftRequest{Question: "q"}, llmErr},
		{"empty reply", &recordingClient{reply: "  "}, bank(), models.DraftRequest{Question: "q"}, errEmptyDraft},
		{
			"bank unavailable",
			&recordingClient{reply: "x"},
			staticCorpus{err: &corpus.LoadError{Err: corpus.ErrArchiveNotFound}},
			models.DraftRequest{CompositeKey: "Units::1"},
			corpus.ErrArchiveNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDrafter(tt.llm, "m", tt.src, zap.NewNop())
			_, err := d.Draft(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	d := NewDrafter(&recordingClient{}, "m", bank(), zap.NewNop())
	_, err := d.Draft(context.Background(), models.DraftRequest{})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestNewClient(t *testing.T) {
	log := zap.NewNop()

	_, _, err := NewClient(Config{}, log)
	assert.ErrorIs(t, err, ErrDisabled)

	llm, model, err := NewClient(Config{Provider: "mock"}, log)
	require.NoError(t, err)
	assert.Equal(t, "mock", model)
	resp, err := llm.Generate(context.Background(), "s", "u")
	require.NoError(t, err)
	_, err = parseDraft(resp.Content)
	assert.NoError(t, err)

	_, model, err = NewClient(Config{Provider: "cli"}, log)
	require.NoError(t, err)
	assert.Equal(t, "claude-cli", model)

	_, model, err = NewClient(Config{Provider: "cli", Model: "claude-test", CLITimeout: time.Minute}, log)
	require.NoError(t, err)
	assert.Equal(t, "claude-test", model)

	_, _, err = NewClient(Config{Provider: "anthropic"}, log)
	assert.Error(t, err)

	_, model, err = NewClient(Config{Provider: "anthropic", APIKey: "k", Model: "claude-test"}, log)
	require.NoError(t, err)
	assert.Equal(t, "claude-test", model)

	_, _, err = NewClient(Config{Provider: "carrier-pigeon"}, log)
	assert.Error(t, err)
}

func TestCLIClient(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}
	dir := t.TempDir()

	// Echoes its arguments so the test can see the flags it was given.
	envelope := filepath.Join(dir, "claude-json")
	require.NoError(t, os.WriteFile(envelope, []byte(`#!/bin/sh
cat >/dev/null
printf '{"type":"result","result":"  drafted with %s  ","usage":{"input_tokens":12,"output_tokens":7}}' "$*"
`), 0o755))

	resp, err := NewCLIClient(envelope, "claude-test", time.Minute, zaptest.NewLogger(t)).Generate(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Contains(t, resp.Content, "--output-format json")
	assert.Contains(t, resp.Content, "--model claude-test")
	assert.Equal(t, 12, resp.PromptTokens)
	assert.Equal(t, 7, resp.OutputTokens)

	plain := filepath.Join(dir, "claude-text")
	require.NoError(t, os.WriteFile(plain, []byte("#!/bin/sh\ncat\n"), 0o755))
	resp, err = NewCLIClient(plain, "", 0, nil).Generate(context.Background(), "system", `{"solution":"echo"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"solution":"echo"}`, resp.Content, "non-envelope output is the reply text")

	_, err = NewCLIClient(filepath.Join(dir, "missing"), "", 0, nil).Generate(context.Background(), "s", "u")
	assert.Error(t, err)
}

func TestCLIClient_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}
	slow := filepath.Join(t.TempDir(), "claude-slow")
	require.NoError(t, os.WriteFile(slow, []byte("#!/bin/sh\nexec sleep 5\n"), 0o755))

	start := time.Now()
	_, err := NewCLIClient(slow, "", 50*time.Millisecond, nil).Generate(context.Background(), "s", "u")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestHandler_DraftSolution(t *testing.T) {
	post := func(h *Handler, body string) *httptest.ResponseRecorder {
		r := mux.NewRouter()
		h.Register(r.PathPrefix("/api/v1").Subrouter())
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/solutions/draft", bytes.NewBufferString(body)))
		return rec
	}

	rec := post(NewHandler(nil, nil), `{"question":"q"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	d := NewDrafter(&recordingClient{reply: `{"solution":"done"}`}, "m", bank(), zap.NewNop())
	h := NewHandler(d, zaptest.NewLogger(t))

	rec = post(h, `{"composite_key":"Units::1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.DraftResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "done", resp.Solution)

	assert.Equal(t, http.StatusBadRequest, post(h, `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(h, `{`).Code)
	assert.Equal(t, http.StatusNotFound, post(h, `{"composite_key":"Units::9"}`).Code)

	broken := staticCorpus{err: &corpus.LoadError{Path: "/srv/secret/bank.zip", Err: errors.New("open /srv/secret/bank.zip: permission denied")}}
	h = NewHandler(NewDrafter(&recordingClient{reply: "x"}, "m", broken, zap.NewNop()), zaptest.NewLogger(t))
	rec = post(h, `{"composite_key":"Units::1"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "/srv/secret")
	assert.Contains(t, rec.Body.String(), "bank.zip")
}
