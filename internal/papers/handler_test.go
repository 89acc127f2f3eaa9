package papers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/paper-nest/backend/internal/corpus"
	"github.com/paper-nest/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRouter(t *testing.T, svc *Service) *mux.Router {
	t.Helper()
	r := mux.NewRouter()
	NewHandler(svc, zaptest.NewLogger(t)).Register(r.PathPrefix("/api/v1").Subrouter())
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_SelectQuestions(t *testing.T) {
	svc, _ := newTestService(t, testBank())
	router := newTestRouter(t, svc)

	rec := doJSON(t, router, "POST", "/api/v1/papers/select",
		`{"exam":"CET","standard":"11th","subject":"Biology","chapters":"Cell","seed":"abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.SelectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "abc", resp.Seed)
	assert.Len(t, resp.Selected, 3)
}

func TestHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		loadErr error
		want    int
	}{
		{"malformed body", `{"exam":`, nil, http.StatusBadRequest},
		{"validation", `{"count":-2}`, nil, http.StatusBadRequest},
		{"no match", `{"exam":"CET","standard":"11th","subject":"Chemistry"}`, nil, http.StatusNotFound},
		{
			"archive missing",
			`{"exam":"CET","standard":"11th","subject":"Biology"}`,
			&corpus.LoadError{Path: "bank.zip", Err: corpus.ErrArchiveNotFound},
			http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, src := newTestService(t, testBank())
			src.err = tt.loadErr
			rec := doJSON(t, newTestRouter(t, svc), "POST", "/api/v1/papers/select", tt.body)
			assert.Equal(t, tt.want, rec.Code)

			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestHandler_LoadErrorHidesServerPaths(t *testing.T) {
	svc, src := newTestService(t, testBank())
	src.err = &corpus.LoadError{
		Path: "/srv/secret/bank.zip",
		Err:  errors.New("open /srv/secret/bank.zip: permission denied"),
	}
	rec := doJSON(t, newTestRouter(t, svc), "POST", "/api/v1/papers/select",
		`{"exam":"CET","standard":"11th","subject":"Biology"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Question bank unavailable: archive bank.zip could not be read", resp.Error)
	assert.NotContains(t, rec.Body.String(), "/srv/secret")
}

func TestHandler_ValidationDetails(t *testing.T) {
	svc, _ := newTestService(t, testBank())
	rec := doJSON(t, newTestRouter(t, svc), "POST", "/api/v1/replacements",
		`{"exam":"CET","replacementRequests":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"replacementRequests must not be empty"}, resp.Details)
}

func TestHandler_PaperLifecycle(t *testing.T) {
	svc, _ := newTestService(t, testBank())
	router := newTestRouter(t, svc)

	rec := doJSON(t, router, "POST", "/api/v1/papers", models.SelectRequest{
		Exam:     "CET",
		Standard: models.StringList{"11th"},
		Subject:  models.StringList{"Biology"},
		Chapters: models.StringList{"Plant Kingdom"},
		Count:    4,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var paper models.Paper
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &paper))
	assert.Equal(t, 4, paper.Payload.Metadata.QuestionCount)

	rec = doJSON(t, router, "GET", "/api/v1/papers/"+paper.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, "GET", "/api/v1/papers?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.PaperSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = doJSON(t, router, "POST", "/api/v1/papers/"+paper.ID.String()+"/replacements",
		models.PaperReplacementRequest{ReplacementRequests: []models.ChapterRequest{{Chapter: "Plant Kingdom", Count: 2}}})
	require.Equal(t, http.StatusOK, rec.Code)
	var repl models.ReplacementResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &repl))
	assert.Len(t, repl.Replacements, 2)
	assert.Equal(t, 2, repl.TotalRequested)
}

func TestHandler_GetPaperErrors(t *testing.T) {
	svc, _ := newTestService(t, testBank())
	router := newTestRouter(t, svc)

	rec := doJSON(t, router, "GET", "/api/v1/papers/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, "GET", "/api/v1/papers/9b2f4c1e-6a77-4d0e-8f43-2c1d5e6f7a80", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ListPapersEmpty(t *testing.T) {
	svc, _ := newTestService(t, testBank())
	rec := doJSON(t, newTestRouter(t, svc), "GET", "/api/v1/papers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandler_Corpus(t *testing.T) {
	svc, src := newTestService(t, testBank())
	router := newTestRouter(t, svc)

	rec := doJSON(t, router, "GET", "/api/v1/corpus", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.CorpusStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 27, stats.QuestionCount)

	rec = doJSON(t, router, "POST", "/api/v1/corpus/reload", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, src.loads)
}

func TestHandler_CorpusAudit(t *testing.T) {
	bank := testBank()
	bank[0].Answer = "z"
	bank[1].QuestionText = ""
	bank[1].Answer = ""
	svc, _ := newTestService(t, bank)

	rec := doJSON(t, newTestRouter(t, svc), "GET", "/api/v1/corpus/audit?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report models.AuditReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 27, report.Checked)
	assert.Equal(t, 2, report.WithIssues)
	assert.Equal(t, 1, report.Rejected)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "Plant Kingdom::1", report.Issues[0].CompositeKey)
	assert.Equal(t, []string{"answer not among options"}, report.Issues[0].Problems)
}
