package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestParseStrict(t *testing.T) {
	_, ok := parseStrict([]byte("\xEF\xBB\xBF[{\"id\":\"1\"}]"))
	assert.True(t, ok, "BOM should be tolerated")

	_, ok = parseStrict([]byte(`"just a string"`))
	assert.False(t, ok, "scalars are not documents")

	_, ok = parseStrict([]byte(`{"id":1}{"id":2}`))
	assert.False(t, ok)

	_, ok = parseStrict([]byte("  "))
	assert.False(t, ok)
}

func TestRecoverBracketed(t *testing.T) {
	doc, ok := recoverBracketed([]byte(`garbage before [{"id":"1"},{"id":"2"}] trailing noise`))
	require.True(t, ok)
	assert.Len(t, doc.Array(), 2)

	doc, ok = recoverBracketed([]byte(`var bank = {"questions":[{"id":"x"}]};`))
	require.True(t, ok)
	assert.Equal(t, "x", doc.Get("questions.0.id").String())

	_, ok = recoverBracketed([]byte(`no json here`))
	assert.False(t, ok)
}

func TestParseLines(t *testing.T) {
	data := []byte("{\"id\":\"1\"}\nnot json\n\n{\"id\":\"2\"}\n{broken\n")
	docs := parseLines(data)
	require.Len(t, docs, 2)
	assert.Equal(t, "2", docs[1].Get("id").String())
}

func TestParseEntry_Tiers(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantTier string
		wantLen  int
	}{
		{"bare array", `[{"question":"a"},{"question":"b"}]`, "strict", 2},
		{"questions object", `{"questions":[{"question":"a"}]}`, "strict", 1},
		{"single question", `{"question":"a","options":["x","y"]}`, "strict", 1},
		{"first array property", `{"meta":{"v":1},"items":[{"q":"a"},{"q":"b"}],"later":[{"q":"c"}]}`, "strict", 2},
		{"noise around array", `// exported\n[{"question":"a"}]\n// end`, "bracket", 1},
		{"json lines", "{\"question\":\"a\",\"options\":[\"1\"]}\n{\"question\":\"b\",\"options\":[\"2\"]}", "lines", 2},
		{"nothing usable", "hello\nworld", "lines", 0},
		{"json lines with nested option objects", "{\"id\":\"1\",\"question\":\"first\",\"choices\":[{\"text\":\"x\"},{\"text\":\"y\"}]}\n{\"id\":\"2\",\"question\":\"second\"}", "lines", 2},
		{"noise around non-question array", "// exported\n[{\"id\":\"1\"}]\n// end", "lines", 1},
		{"array of scalars", `["a","b"]`, "strict", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, tier := parseEntry([]byte(tt.data))
			assert.Equal(t, tt.wantTier, tier)
			assert.Len(t, records, tt.wantLen)
		})
	}
}

func TestParseEntry_JSONLinesKeepsEveryRecord(t *testing.T) {
	data := "{\"id\":\"1\",\"question\":\"first\",\"choices\":[{\"text\":\"x\"},{\"text\":\"y\"}]}\n" +
		"{\"id\":\"2\",\"question\":\"second\"}\n" +
		"{\"id\":\"3\",\"question\":\"third\",\"options\":[\"p\",\"q\"]}"

	records, tier := parseEntry([]byte(data))
	assert.Equal(t, "lines", tier)
	require.Len(t, records, 3)
	for i, want := range []string{"1", "2", "3"} {
		assert.Equal(t, want, records[i].Get("id").String())
	}
}

func TestExtractRecords_FirstArrayInDocumentOrder(t *testing.T) {
	doc := gjson.Parse(`{"z":[{"id":"first"}],"a":[{"id":"second"}]}`)
	records := extractRecords(doc)
	require.Len(t, records, 1)
	assert.Equal(t, "first", records[0].Get("id").String())
}
