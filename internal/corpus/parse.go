package corpus

import (
	"bufio"
	"bytes"

	"github.com/tidwall/gjson"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Entry parsing runs three independent tiers in order: strict document,
// bracket-scan recovery, then line-delimited recovery. The first tier that
// yields records wins. Bracket recovery is skipped for entries with more
// than one standalone JSON line.

func parseStrict(data []byte) (gjson.Result, bool) {
	data = bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	if len(data) == 0 || !gjson.ValidBytes(data) {
		return gjson.Result{}, false
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() && !doc.IsObject() {
		return gjson.Result{}, false
	}
	return doc, true
}

// recoverBracketed looks for the widest [...] and then {...} span that is
// valid JSON on its own, ignoring surrounding noise.
func recoverBracketed(data []byte) (gjson.Result, bool) {
	for _, pair := range [][2]byte{{'[', ']'}, {'{', '}'}} {
		start := bytes.IndexByte(data, pair[0])
		end := bytes.LastIndexByte(data, pair[1])
		if start < 0 || end <= start {
			continue
		}
		candidate := data[start : end+1]
		if gjson.ValidBytes(candidate) {
			return gjson.ParseBytes(candidate), true
		}
	}
	return gjson.Result{}, false
}

// parseLines collects every line that is a JSON object or array by itself.
func parseLines(data []byte) []gjson.Result {
	var docs []gjson.Result
	sc := bufio.NewScanner(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 || !gjson.ValidBytes(line) {
			continue
		}
		doc := gjson.ParseBytes(line)
		if doc.IsObject() || doc.IsArray() {
			docs = append(docs, doc)
		}
	}
	return docs
}

// parseEntry returns the question records found in one archive entry and the
// tier that produced them.
func parseEntry(data []byte) ([]gjson.Result, string) {
	if doc, ok := parseStrict(data); ok {
		return extractRecords(doc), "strict"
	}
	// Several standalone JSON lines mean line-delimited records. A bracket
	// span across them would only catch arrays nested inside the records.
	lines := parseLines(data)
	if len(lines) < 2 {
		if doc, ok := recoverBracketed(data); ok {
			if records := extractRecords(doc); len(records) > 0 && allQuestions(records) {
				return records, "bracket"
			}
		}
	}

	var records []gjson.Result
	for _, doc := range lines {
		records = append(records, extractRecords(doc)...)
	}
	return records, "lines"
}

func allQuestions(records []gjson.Result) bool {
	for _, rec := range records {
		if !looksLikeQuestion(rec) {
			return false
		}
	}
	return true
}

// extractRecords understands a bare array, {"questions": [...]}, a single
// question object, or an object whose first array-valued property (in
// document order) holds the questions.
func extractRecords(doc gjson.Result) []gjson.Result {
	switch {
	case doc.IsArray():
		return objectsOf(doc)
	case doc.IsObject():
		if qs := doc.Get("questions"); qs.IsArray() {
			return objectsOf(qs)
		}
		if looksLikeQuestion(doc) {
			return []gjson.Result{doc}
		}
		var found []gjson.Result
		doc.ForEach(func(_, value gjson.Result) bool {
			if value.IsArray() {
				found = objectsOf(value)
				return false
			}
			return true
		})
		return found
	}
	return nil
}

func objectsOf(arr gjson.Result) []gjson.Result {
	var out []gjson.Result
	for _, el := range arr.Array() {
		if el.IsObject() {
			out = append(out, el)
		}
	}
	return out
}

func looksLikeQuestion(doc gjson.Result) bool {
	return lookup(doc, textKeys...).Exists()
}
