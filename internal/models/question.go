package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Provenance records where a question came from inside the corpus archive.
type Provenance struct {
	Exam      string `json:"exam"`
	Standard  string `json:"standard"`
	Subject   string `json:"subject"`
	EntryPath string `json:"entry_path"`
}

// Question is the canonical, alias-free form of a question bank record.
// Values are immutable once the corpus loader has produced them.
type Question struct {
	ID             string     `json:"id"`
	Chapter        string     `json:"chapter"`
	QuestionText   string     `json:"question"`
	Options        []string   `json:"options"`
	Answer         string     `json:"answer"`
	Solution       string     `json:"solution,omitempty"`
	Marks          int        `json:"marks"`
	QuestionImages []string   `json:"question_images,omitempty"`
	OptionImages   []string   `json:"option_images,omitempty"`
	SolutionImages []string   `json:"solution_images,omitempty"`
	Provenance     Provenance `json:"provenance"`
}

// CompositeKey identifies a question instance for exclusion tracking.
func (q Question) CompositeKey() string {
	return CompositeKey(q.Chapter, q.ID)
}

func CompositeKey(chapter, id string) string {
	return chapter + "::" + id
}

// StringList accepts either a JSON string (comma separated) or an array of strings.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*l = nil
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var raw []string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("string list: %w", err)
		}
		*l = SplitList(raw...)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("string list: expected string or array of strings")
	}
	*l = SplitList(s)
	return nil
}

// SplitList comma-splits every value, trims the parts and drops empties.
func SplitList(values ...string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Merge returns the union of l and other, preserving first-seen order.
func (l StringList) Merge(other StringList) StringList {
	seen := make(map[string]bool, len(l)+len(other))
	var out StringList
	for _, v := range append(append(StringList{}, l...), other...) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
