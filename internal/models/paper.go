package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ── Selection ───────────────────────────────────────────

type SelectRequest struct {
	Exam      string     `json:"exam"`
	Standard  StringList `json:"standard,omitempty"`
	Standards StringList `json:"standards,omitempty"`
	Subject   StringList `json:"subject,omitempty"`
	Subjects  StringList `json:"subjects,omitempty"`
	Chapters  StringList `json:"chapters,omitempty"`
	Fixed     bool       `json:"fixed,omitempty"`
	Count     int        `json:"count,omitempty"`
	Seed      string     `json:"seed,omitempty"`
}

// AllStandards folds the singular and plural request fields together.
func (r SelectRequest) AllStandards() []string {
	return r.Standard.Merge(r.Standards)
}

func (r SelectRequest) AllSubjects() []string {
	return r.Subject.Merge(r.Subjects)
}

// Validate lists every problem with the request, or returns nil.
func (r SelectRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(r.Exam) == "" {
		errs = append(errs, "exam is required")
	}
	if len(r.AllStandards()) == 0 {
		errs = append(errs, "standard is required")
	}
	if len(r.AllSubjects()) == 0 {
		errs = append(errs, "subject is required")
	}
	if r.Count < 0 {
		errs = append(errs, "count must not be negative")
	}
	return errs
}

type SelectResponse struct {
	Selected []Question `json:"selected"`
	Seed     string     `json:"seed"`
	SourceID string     `json:"sourceId"`
}

// ── Replacement ─────────────────────────────────────────

type ChapterRequest struct {
	Chapter string `json:"chapter"`
	Count   int    `json:"count"`
}

type ReplacementRequest struct {
	Exam                string           `json:"exam"`
	Standards           StringList       `json:"standards"`
	Subjects            StringList       `json:"subjects"`
	OverallUsedKeys     []string         `json:"overallUsedKeys"`
	ReplacementRequests []ChapterRequest `json:"replacementRequests"`
}

func (r ReplacementRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(r.Exam) == "" {
		errs = append(errs, "exam is required")
	}
	errs = append(errs, ValidateChapterRequests(r.ReplacementRequests)...)
	return errs
}

func ValidateChapterRequests(reqs []ChapterRequest) []string {
	var errs []string
	if len(reqs) == 0 {
		errs = append(errs, "replacementRequests must not be empty")
	}
	for i, cr := range reqs {
		if strings.TrimSpace(cr.Chapter) == "" {
			errs = append(errs, fmt.Sprintf("replacementRequests[%d]: chapter is required", i))
		}
		if cr.Count < 0 {
			errs = append(errs, fmt.Sprintf("replacementRequests[%d]: count must not be negative", i))
		}
	}
	return errs
}

// TotalRequested sums the counts of every chapter request.
func (r ReplacementRequest) TotalRequested() int {
	total := 0
	for _, cr := range r.ReplacementRequests {
		if cr.Count > 0 {
			total += cr.Count
		}
	}
	return total
}

type ReplacementResponse struct {
	Replacements   []FormattedQuestion `json:"replacements"`
	TotalRequested int                 `json:"totalRequested"`
}

type PaperReplacementRequest struct {
	ReplacementRequests []ChapterRequest `json:"replacementRequests"`
}

// ── Formatting ──────────────────────────────────────────

type ImageRef struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

type FormattedQuestion struct {
	Number         int        `json:"number"`
	Question       string     `json:"question"`
	Answer         string     `json:"answer"`
	Options        []string   `json:"options"`
	ID             string     `json:"id"`
	Chapter        string     `json:"chapter"`
	Marks          int        `json:"marks"`
	Solution       string     `json:"solution,omitempty"`
	QuestionImages []ImageRef `json:"question_images"`
	OptionImages   []ImageRef `json:"option_images"`
	SolutionImages []ImageRef `json:"solution_images"`
	CompositeKey   string     `json:"composite_key"`
}

type FormattedPaper struct {
	QuestionsBlob string              `json:"questions_blob"`
	AnswersBlob   string              `json:"answers_blob"`
	Questions     []FormattedQuestion `json:"questions"`
}

// ── Paper payload ───────────────────────────────────────

type PaperMetadata struct {
	Seed              string              `json:"seed"`
	QuestionCount     int                 `json:"question_count"`
	OriginalQuestions []FormattedQuestion `json:"original_questions_array"`
	SourceID          string              `json:"source_id,omitempty"`
}

// PaperPayload is the shape handed to storage and printing.
type PaperPayload struct {
	PaperQuestions string        `json:"paper_questions"`
	PaperAnswers   string        `json:"paper_answers"`
	Metadata       PaperMetadata `json:"metadata"`
}

type Paper struct {
	ID        uuid.UUID    `json:"id"`
	Exam      string       `json:"exam"`
	Standards []string     `json:"standards"`
	Subjects  []string     `json:"subjects"`
	Chapters  []string     `json:"chapters,omitempty"`
	Fixed     bool         `json:"fixed"`
	Payload   PaperPayload `json:"payload"`
	CreatedAt time.Time    `json:"created_at"`
}

type PaperSummary struct {
	ID            uuid.UUID `json:"id"`
	Exam          string    `json:"exam"`
	Seed          string    `json:"seed"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// ── Corpus ──────────────────────────────────────────────

type CorpusStats struct {
	SourceID      string         `json:"sourceId"`
	ArchivePath   string         `json:"archive_path"`
	ModTime       time.Time      `json:"mod_time"`
	LoadedAt      time.Time      `json:"loaded_at"`
	QuestionCount int            `json:"question_count"`
	Exams         map[string]int `json:"exams"`
	Subjects      map[string]int `json:"subjects"`
	Chapters      int            `json:"chapters"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// ── Audit ───────────────────────────────────────────────

type QuestionIssue struct {
	CompositeKey string   `json:"composite_key"`
	EntryPath    string   `json:"entry_path"`
	Score        float64  `json:"score"`
	Class        string   `json:"class"`
	Problems     []string `json:"problems"`
}

type AuditReport struct {
	SourceID   string          `json:"sourceId"`
	Checked    int             `json:"checked"`
	Passed     int             `json:"passed"`
	Flagged    int             `json:"flagged"`
	Rejected   int             `json:"rejected"`
	WithIssues int             `json:"with_issues"`
	Issues     []QuestionIssue `json:"issues"`
}
