// Package mathtext renders the LaTeX-style markup found in question bank text
// as plain readable text. It is a text filter, not a typesetting parser:
// anything it cannot interpret degrades to the leftover characters.
package mathtext

import (
	"regexp"
	"strings"
)

var (
	textSpanRe   = regexp.MustCompile(`\\(?:text|mathrm|textbf|mathbf)\s*\{([^{}]*)\}`)
	vecBracedRe  = regexp.MustCompile(`\\vec\s*\{\s*([A-Za-z])\s*\}`)
	vecBareRe    = regexp.MustCompile(`\\vec\s+([A-Za-z])`)
	macroRe      = regexp.MustCompile(`\\([A-Za-z]+)`)
	spacingRe    = regexp.MustCompile(`\\[,;:!]`)
	sqrtBracedRe = regexp.MustCompile(`\\sqrt\s*\{([^{}]*)\}`)
	sqrtBareRe   = regexp.MustCompile(`\\sqrt\s*([A-Za-z0-9])`)
	fracRe       = regexp.MustCompile(`\\[dt]?frac\s*\{([^{}]*)\}\s*\{([^{}]*)\}`)
	degreeRe     = regexp.MustCompile(`\^\s*(?:\{\s*\\circ\s*\}|\\circ)|\\degree`)
	supGroupRe   = regexp.MustCompile(`\^\{([^{}]*)\}`)
	supCharRe    = regexp.MustCompile(`\^([^\s{}])`)
	subGroupRe   = regexp.MustCompile(`_\{([^{}]*)\}`)
	subCharRe    = regexp.MustCompile(`_([0-9])`)
	funcRe       = regexp.MustCompile(`\\(sin|cos|tan|cot|sec|csc|log|ln|exp|lim)\b`)
	escapedRe    = regexp.MustCompile(`\\([%&#$])`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

var symbols = map[string]string{
	"pi":    "π",
	"theta": "θ",
	"alpha": "α",
	"beta":  "β",
	"times": "×",
	"cdot":  "·",
	"pm":    "±",
	"quad":  " ",
	"qquad": " ",
}

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴',
	'5': '⁵', '6': '⁶', '7': '⁷', '8': '⁸', '9': '⁹',
	'-': '⁻', '+': '⁺', 'n': 'ⁿ', 'i': 'ⁱ',
}

var subscripts = map[rune]rune{
	'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄',
	'5': '₅', '6': '₆', '7': '₇', '8': '₈', '9': '₉',
}

type delimiter struct{ open, close string }

// $$ must be tried before $.
var outerDelimiters = []delimiter{
	{"$$", "$$"},
	{"$", "$"},
	{`\(`, `\)`},
	{`\[`, `\]`},
}

// Normalize converts markup to plain text. Empty input yields "".
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = stripOuterDelimiters(strings.TrimSpace(s))
	s = textSpanRe.ReplaceAllString(s, "$1")
	s = vecBracedRe.ReplaceAllString(s, "$1")
	s = vecBareRe.ReplaceAllString(s, "$1")
	s = replaceSymbols(s)
	s = sqrtBracedRe.ReplaceAllString(s, "√$1")
	s = sqrtBareRe.ReplaceAllString(s, "√$1")
	s = collapseFractions(s)
	s = degreeRe.ReplaceAllString(s, "°")
	s = renderSuperscripts(s)
	s = renderSubscripts(s)
	s = funcRe.ReplaceAllString(s, "$1")
	s = escapedRe.ReplaceAllString(s, "$1")
	s = macroRe.ReplaceAllString(s, "")
	s = strings.NewReplacer("{", "", "}", "").Replace(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	// Unwrapping \text{...} or braces can expose a fresh $...$ pair. The inner
	// text is strictly shorter, so this recursion ends.
	if inner := stripOuterDelimiters(s); inner != s {
		return Normalize(inner)
	}
	return s
}

func stripOuterDelimiters(s string) string {
	for _, d := range outerDelimiters {
		if len(s) < len(d.open)+len(d.close) {
			continue
		}
		if !strings.HasPrefix(s, d.open) || !strings.HasSuffix(s, d.close) {
			continue
		}
		inner := s[len(d.open) : len(s)-len(d.close)]
		if strings.Contains(inner, d.open) || strings.Contains(inner, d.close) {
			continue
		}
		return strings.TrimSpace(inner)
	}
	return s
}

func replaceSymbols(s string) string {
	s = spacingRe.ReplaceAllString(s, " ")
	return macroRe.ReplaceAllStringFunc(s, func(m string) string {
		if sym, ok := symbols[m[1:]]; ok {
			return sym
		}
		return m
	})
}

// collapseFractions rewrites innermost fractions first. Every rewrite shortens
// the string, so the loop terminates.
func collapseFractions(s string) string {
	for {
		next := fracRe.ReplaceAllString(s, "$1/$2")
		next = sqrtBracedRe.ReplaceAllString(next, "√$1")
		if next == s {
			return s
		}
		s = next
	}
}

func renderSuperscripts(s string) string {
	s = supGroupRe.ReplaceAllStringFunc(s, func(m string) string {
		inner := strings.TrimSpace(m[2 : len(m)-1])
		if out, ok := mapAll(inner, superscripts); ok {
			return out
		}
		if len([]rune(inner)) == 1 {
			return "^" + inner
		}
		return "^(" + inner + ")"
	})
	return supCharRe.ReplaceAllStringFunc(s, func(m string) string {
		if out, ok := mapAll(m[1:], superscripts); ok {
			return out
		}
		return m
	})
}

func renderSubscripts(s string) string {
	s = subGroupRe.ReplaceAllStringFunc(s, func(m string) string {
		inner := strings.TrimSpace(m[2 : len(m)-1])
		if len([]rune(inner)) == 1 {
			if out, ok := mapAll(inner, subscripts); ok {
				return out
			}
			return "_" + inner
		}
		return "_(" + inner + ")"
	})
	return subCharRe.ReplaceAllStringFunc(s, func(m string) string {
		out, _ := mapAll(m[1:], subscripts)
		return out
	})
}

func mapAll(s string, table map[rune]rune) (string, bool) {
	if s == "" {
		return "", false
	}
	var b strings.Builder
	for _, r := range s {
		mapped, ok := table[r]
		if !ok {
			return "", false
		}
		b.WriteRune(mapped)
	}
	return b.String(), true
}
