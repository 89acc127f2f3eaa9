package solutions

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

var errEmptyDraft = errors.New("model returned an empty solution")

type parsedDraft struct {
	Solution    string
	Steps       []string
	FinalAnswer string
}

// parseDraft reads the model's JSON reply. Replies that are not JSON are
// kept verbatim as the solution text.
func parseDraft(content string) (parsedDraft, error) {
	cleaned := stripCodeFences(content)
	if cleaned == "" {
		return parsedDraft{}, errEmptyDraft
	}

	if !gjson.Valid(cleaned) || !gjson.Parse(cleaned).IsObject() {
		return parsedDraft{Solution: cleaned}, nil
	}

	doc := gjson.Parse(cleaned)
	d := parsedDraft{
		Solution:    strings.TrimSpace(doc.Get("solution").String()),
		FinalAnswer: strings.TrimSpace(doc.Get("final_answer").String()),
	}
	for _, s := range doc.Get("steps").Array() {
		if step := strings.TrimSpace(s.String()); step != "" {
			d.Steps = append(d.Steps, step)
		}
	}
	if d.Solution == "" {
		d.Solution = strings.Join(d.Steps, "\n")
	}
	if d.Solution == "" {
		return parsedDraft{}, errEmptyDraft
	}
	return d, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSpace(s)
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}
