// Package filter matches questions against exam/standard/subject/chapter
// criteria using normalized, bidirectional substring comparison.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/paper-nest/backend/internal/models"
	"golang.org/x/text/unicode/norm"
)

var (
	separatorRe = regexp.MustCompile(`[_\-\s]+`)
	nonWordRe   = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	spacesRe    = regexp.MustCompile(`\s+`)
)

// Normalize lower-cases s, turns separators into single spaces and strips
// everything that is not a letter, digit or space.
func Normalize(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))
	s = separatorRe.ReplaceAllString(s, " ")
	s = nonWordRe.ReplaceAllString(s, "")
	s = spacesRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Spec is a normalized query. An empty dimension imposes no constraint.
type Spec struct {
	Exam      string
	Standards []string
	Subjects  []string
	Chapters  []string
}

func NewSpec(exam string, standards, subjects, chapters []string) Spec {
	return Spec{
		Exam:      Normalize(exam),
		Standards: normalizeAll(standards),
		Subjects:  normalizeAll(subjects),
		Chapters:  normalizeAll(chapters),
	}
}

// WithChapter returns a copy of s constrained to exactly one chapter. A
// chapter that normalizes to nothing yields a spec that matches nothing.
func (s Spec) WithChapter(chapter string) Spec {
	s.Chapters = []string{Normalize(chapter)}
	return s
}

func (s Spec) HasChapters() bool {
	return len(s.Chapters) > 0
}

// Matches applies AND across dimensions and OR within each dimension.
func (s Spec) Matches(q models.Question) bool {
	if s.Exam != "" && !related(Normalize(q.Provenance.Exam), s.Exam) {
		return false
	}
	if !matchesAny(Normalize(q.Provenance.Standard), s.Standards) {
		return false
	}
	if !matchesAny(Normalize(q.Provenance.Subject), s.Subjects) {
		return false
	}

	chapter := q.Chapter
	if strings.TrimSpace(chapter) == "" {
		chapter = q.Provenance.EntryPath
	}
	return matchesAny(Normalize(chapter), s.Chapters)
}

func (s Spec) String() string {
	return fmt.Sprintf("exam=%q standards=%v subjects=%v chapters=%v", s.Exam, s.Standards, s.Subjects, s.Chapters)
}

// Apply returns the matching questions in corpus order.
func Apply(questions []models.Question, spec Spec) []models.Question {
	var out []models.Question
	for _, q := range questions {
		if spec.Matches(q) {
			out = append(out, q)
		}
	}
	return out
}

func matchesAny(value string, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	for _, tok := range tokens {
		if related(value, tok) {
			return true
		}
	}
	return false
}

// related reports whether either string contains the other. An empty value
// never satisfies a constraint.
func related(value, token string) bool {
	if value == "" || token == "" {
		return false
	}
	return strings.Contains(value, token) || strings.Contains(token, value)
}

// Unmatchable returns the non-blank values that normalize to nothing, such as
// "???". Such a value would silently drop out of a Spec.
func Unmatchable(values []string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" && Normalize(v) == "" {
			out = append(out, v)
		}
	}
	return out
}

func normalizeAll(values []string) []string {
	var out []string
	for _, v := range values {
		if n := Normalize(v); n != "" {
			out = append(out, n)
		}
	}
	return out
}
