package corpus

import (
	"github.com/paper-nest/backend/internal/filter"
	"github.com/paper-nest/backend/internal/mathtext"
	"github.com/paper-nest/backend/internal/models"
)

// StructuralScore holds the individual structural checks for one record.
type StructuralScore struct {
	HasPrompt       bool
	HasAnswer       bool
	AnswerInOptions bool
	OptionsOK       bool
	UniqueKey       bool
}

// ComputeStructuralScore evaluates a single question. duplicate reports
// whether another record in the same corpus shares its composite key.
func ComputeStructuralScore(q models.Question, duplicate bool) StructuralScore {
	answer := filter.Normalize(mathtext.Normalize(q.Answer))

	optionsOK := true
	seen := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		n := filter.Normalize(mathtext.Normalize(o))
		if n == "" || seen[n] {
			optionsOK = false
		}
		seen[n] = true
	}
	if len(q.Options) == 1 {
		optionsOK = false
	}

	// Subjective questions have no options to check against.
	inOptions := len(q.Options) == 0 || (answer != "" && (seen[answer] || isOptionLabel(answer, len(q.Options))))

	return StructuralScore{
		HasPrompt:       q.QuestionText != "" || len(q.QuestionImages) > 0,
		HasAnswer:       answer != "",
		AnswerInOptions: inOptions,
		OptionsOK:       optionsOK,
		UniqueKey:       !duplicate,
	}
}

// isOptionLabel accepts answers given as a letter ("b") or a 1-based index
// ("2") into the option list.
func isOptionLabel(answer string, n int) bool {
	if len(answer) != 1 {
		return false
	}
	c := answer[0]
	switch {
	case c >= 'a' && c <= 'z':
		return int(c-'a') < n
	case c >= '1' && c <= '9':
		return int(c-'0') <= n
	}
	return false
}

// ComputeQualityScore calculates a composite quality score (0.0-1.0).
//
// Formula: prompt*0.40 + answer*0.25 + answer_in_options*0.15 + options*0.10 + unique*0.10
func ComputeQualityScore(s StructuralScore) float64 {
	score := 0.0
	if s.HasPrompt {
		score += 0.40
	}
	if s.HasAnswer {
		score += 0.25
	}
	if s.AnswerInOptions {
		score += 0.15
	}
	if s.OptionsOK {
		score += 0.10
	}
	if s.UniqueKey {
		score += 0.10
	}
	return score
}

// ClassifyQuality returns a classification based on the quality score.
// Returns: "reject" (< 0.50), "flagged" (0.50-0.70), "passed" (> 0.70)
func ClassifyQuality(score float64) string {
	if score < 0.50 {
		return "reject"
	}
	if score <= 0.70 {
		return "flagged"
	}
	return "passed"
}

func (s StructuralScore) problems() []string {
	var out []string
	if !s.HasPrompt {
		out = append(out, "missing question text")
	}
	if !s.HasAnswer {
		out = append(out, "missing answer")
	} else if !s.AnswerInOptions {
		out = append(out, "answer not among options")
	}
	if !s.OptionsOK {
		out = append(out, "blank, duplicate or single option")
	}
	if !s.UniqueKey {
		out = append(out, "duplicate composite key")
	}
	return out
}

// Audit scores every question in the snapshot. At most maxIssues problem
// records are listed; the class counts always cover the whole corpus.
func Audit(s *Snapshot, maxIssues int) models.AuditReport {
	report := models.AuditReport{
		SourceID: s.SourceID(),
		Checked:  len(s.Questions),
		Issues:   []models.QuestionIssue{},
	}

	keys := make(map[string]int, len(s.Questions))
	for _, q := range s.Questions {
		keys[scopedKey(q)]++
	}

	for _, q := range s.Questions {
		structural := ComputeStructuralScore(q, keys[scopedKey(q)] > 1)
		score := ComputeQualityScore(structural)
		class := ClassifyQuality(score)

		switch class {
		case "passed":
			report.Passed++
		case "flagged":
			report.Flagged++
		default:
			report.Rejected++
		}

		problems := structural.problems()
		if len(problems) == 0 {
			continue
		}
		report.WithIssues++
		if maxIssues > 0 && len(report.Issues) >= maxIssues {
			continue
		}
		report.Issues = append(report.Issues, models.QuestionIssue{
			CompositeKey: q.CompositeKey(),
			EntryPath:    q.Provenance.EntryPath,
			Score:        score,
			Class:        class,
			Problems:     problems,
		})
	}
	return report
}

// scopedKey qualifies the composite key with the exam, standard and subject,
// the scope inside which replacement exclusion has to tell records apart.
func scopedKey(q models.Question) string {
	p := q.Provenance
	return p.Exam + "/" + p.Standard + "/" + p.Subject + "/" + q.CompositeKey()
}
