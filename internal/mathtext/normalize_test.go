package mathtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"blank", "   ", ""},
		{"plain text untouched", "Which organ pumps blood?", "Which organ pumps blood?"},
		{"inline fraction", "$\\frac{1}{2}$", "1/2"},
		{"display dollars", "$$\\alpha + \\beta$$", "α + β"},
		{"paren delimiters", "\\(x^2 + y^2\\)", "x² + y²"},
		{"bracket delimiters", "\\[a_1 + a_2\\]", "a₁ + a₂"},
		{"text span", "\\text{Area} = \\pi r^2", "Area = π r²"},
		{"nested fraction", "\\frac{\\frac{1}{2}}{3}", "1/2/3"},
		{"dfrac", "\\dfrac{a}{b}", "a/b"},
		{"square root", "\\sqrt{16} = 4", "√16 = 4"},
		{"bare square root", "\\sqrt 2", "√2"},
		{"root over fraction", "\\sqrt{\\frac{1}{4}}", "√1/4"},
		{"degree", "90^\\circ", "90°"},
		{"braced degree", "45^{\\circ}", "45°"},
		{"negative exponent", "x^{-1}", "x⁻¹"},
		{"letter exponent", "a^n", "aⁿ"},
		{"unmapped exponent", "a^x", "a^x"},
		{"unmapped exponent group", "e^{ab}", "e^(ab)"},
		{"subscript digit", "H_2O", "H₂O"},
		{"braced subscript letter", "a_{n}", "a_n"},
		{"multi digit subscript", "x_{12}", "x_(12)"},
		{"trig function", "\\sin\\theta", "sinθ"},
		{"log function", "\\log x", "log x"},
		{"vectors and dot", "\\vec{a} \\cdot \\vec b", "a · b"},
		{"operators", "2 \\times 3 \\pm 1", "2 × 3 ± 1"},
		{"unknown macro dropped", "\\unknown{x} text", "x text"},
		{"spacing macro", "a\\,b", "a b"},
		{"escaped percent", "50\\%", "50%"},
		{"escaped dollar", "costs \\$5", "costs $5"},
		{"dollars inside text span", "\\text{$x$}", "x"},
		{"dollars inside braces", "{$x$}", "x"},
		{"whitespace collapsed", "  a \n\t b  ", "a b"},
		{"inner dollars kept", "$a$ and $b$", "$a$ and $b$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"$\\frac{1}{2}$",
		"\\(x^2 + y^2\\)",
		"\\frac{\\frac{1}{2}}{3}",
		"e^{ab} + x^{-1} + a^x",
		"x_{12} + a_{n} + H_2O",
		"\\sqrt{\\frac{1}{4}}",
		"\\sin\\theta + \\cos 30^\\circ",
		"\\unknown{x} \\vec{v} \\text{m/s}",
		"\\frac{a}{b^{2}}",
		"x^{\\alpha}",
		"plain words",
		"\\text{$x$}",
		"{$x$}",
		"{$\\frac{1}{2}$}",
		"costs \\$5",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestCollapseFractions_Terminates(t *testing.T) {
	// Malformed markup must not loop forever.
	got := collapseFractions("\\frac{1}{\\frac{2}")
	assert.Equal(t, "\\frac{1}{\\frac{2}", got)
}
