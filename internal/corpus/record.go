package corpus

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/paper-nest/backend/internal/models"
	"github.com/tidwall/gjson"
)

// Field aliases seen across question bank exports. They are resolved here,
// once, so nothing downstream branches on alternate names.
var (
	idKeys            = []string{"id", "_id", "questionId", "question_id", "qid"}
	chapterKeys       = []string{"chapter", "chapterName", "chapter_name", "topic"}
	textKeys          = []string{"question", "questionText", "question_text", "text"}
	optionKeys        = []string{"options", "choices"}
	optionTextKeys    = []string{"text", "option", "value", "label"}
	answerKeys        = []string{"answer", "correctAnswer", "correct_answer", "correctOption"}
	solutionKeys      = []string{"solution", "explanation", "solutionText"}
	marksKeys         = []string{"marks", "mark", "score"}
	questionImageKeys = []string{"questionImages", "question_images", "images"}
	optionImageKeys   = []string{"optionImages", "option_images"}
	solutionImageKeys = []string{"solutionImages", "solution_images"}
	examKeys          = []string{"exam", "metadata.exam"}
	standardKeys      = []string{"standard", "class", "metadata.standard"}
	subjectKeys       = []string{"subject", "metadata.subject"}
)

// toQuestion builds the canonical question for the n-th (1-based) record of
// an entry.
func toQuestion(rec gjson.Result, entry string, n int, fromPath models.Provenance) models.Question {
	q := models.Question{
		ID:             lookupString(rec, idKeys...),
		Chapter:        lookupString(rec, chapterKeys...),
		QuestionText:   lookupString(rec, textKeys...),
		Options:        parseOptions(lookup(rec, optionKeys...)),
		Answer:         lookupString(rec, answerKeys...),
		Solution:       lookupString(rec, solutionKeys...),
		Marks:          parseMarks(lookup(rec, marksKeys...)),
		QuestionImages: parseStrings(lookup(rec, questionImageKeys...)),
		OptionImages:   parseStrings(lookup(rec, optionImageKeys...)),
		SolutionImages: parseStrings(lookup(rec, solutionImageKeys...)),
		Provenance: models.Provenance{
			Exam:      firstNonEmpty(lookupString(rec, examKeys...), fromPath.Exam),
			Standard:  firstNonEmpty(lookupString(rec, standardKeys...), fromPath.Standard),
			Subject:   firstNonEmpty(lookupString(rec, subjectKeys...), fromPath.Subject),
			EntryPath: entry,
		},
	}

	if q.ID == "" {
		q.ID = fmt.Sprintf("%s#%d", entry, n)
	}
	if q.Chapter == "" {
		base := path.Base(entry)
		q.Chapter = strings.TrimSuffix(base, path.Ext(base))
	}
	return q
}

// provenanceFromPath reads <root>/<exam>/<standard>/<subject>/... from an
// entry name. With fewer than four directories the segments are taken
// positionally from the start.
func provenanceFromPath(entry string) models.Provenance {
	p := models.Provenance{EntryPath: entry}

	segs := strings.Split(strings.Trim(path.Clean(entry), "/"), "/")
	dirs := segs[:len(segs)-1]
	if len(dirs) >= 4 {
		dirs = dirs[1:]
	}

	fields := []*string{&p.Exam, &p.Standard, &p.Subject}
	for i, dir := range dirs {
		if i >= len(fields) {
			break
		}
		*fields[i] = dir
	}
	return p
}

func lookup(rec gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := rec.Get(k); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

func lookupString(rec gjson.Result, keys ...string) string {
	for _, k := range keys {
		v := rec.Get(k)
		if !v.Exists() || v.IsArray() || v.IsObject() {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

func parseOptions(v gjson.Result) []string {
	var out []string
	add := func(el gjson.Result) {
		text := el.String()
		if el.IsObject() {
			text = lookupString(el, optionTextKeys...)
		}
		if text = strings.TrimSpace(text); text != "" {
			out = append(out, text)
		}
	}

	switch {
	case v.IsArray():
		for _, el := range v.Array() {
			add(el)
		}
	case v.IsObject():
		v.ForEach(func(_, el gjson.Result) bool {
			add(el)
			return true
		})
	}
	return out
}

// parseMarks defaults to 1 for absent, non-numeric or non-positive values.
func parseMarks(v gjson.Result) int {
	n := 0
	switch v.Type {
	case gjson.Number:
		n = int(v.Float())
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if i, err := strconv.Atoi(s); err == nil {
			n = i
		} else if f, err := strconv.ParseFloat(s, 64); err == nil {
			n = int(f)
		}
	}
	if n <= 0 {
		return 1
	}
	return n
}

func parseStrings(v gjson.Result) []string {
	var out []string
	switch {
	case v.IsArray():
		for _, el := range v.Array() {
			if s := strings.TrimSpace(el.String()); s != "" && !el.IsObject() && !el.IsArray() {
				out = append(out, s)
			}
		}
	case v.Type == gjson.String:
		if s := strings.TrimSpace(v.Str); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
