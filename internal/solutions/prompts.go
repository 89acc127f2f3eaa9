package solutions

import (
	"fmt"
	"strings"

	"github.com/paper-nest/backend/internal/mathtext"
)

const systemPrompt = `You are an experienced teacher writing worked solutions for school entrance exam questions.

RULES:
- Solve the question from first principles in short numbered steps.
- Use plain text math (for example 1/2, x², √3, 30°). Do not use LaTeX.
- If an expected answer is given, your final answer must agree with it. If you believe it is wrong, still explain your reasoning and state your own final answer.
- Keep the whole solution under 200 words.

OUTPUT FORMAT:
Respond with a single JSON object and nothing else:
{"solution": "<full worked solution>", "steps": ["<step 1>", "<step 2>"], "final_answer": "<answer>"}`

// SystemPrompt returns the fixed instructions sent with every draft request.
func SystemPrompt() string {
	return systemPrompt
}

// promptInput is a question already reduced to printable plain text.
type promptInput struct {
	Chapter  string
	Question string
	Options  []string
	Answer   string
}

func newPromptInput(chapter, question string, options []string, answer string) promptInput {
	in := promptInput{
		Chapter:  strings.TrimSpace(chapter),
		Question: mathtext.Normalize(question),
		Answer:   mathtext.Normalize(answer),
	}
	for _, o := range options {
		in.Options = append(in.Options, mathtext.Normalize(o))
	}
	return in
}

// BuildUserPrompt lays out one question for drafting. Options are labelled
// A, B, C… in their stored order.
func BuildUserPrompt(in promptInput) string {
	var b strings.Builder
	if in.Chapter != "" {
		fmt.Fprintf(&b, "CHAPTER: %s\n\n", in.Chapter)
	}
	fmt.Fprintf(&b, "QUESTION:\n%s\n", in.Question)

	if len(in.Options) > 0 {
		b.WriteString("\nOPTIONS:\n")
		for i, o := range in.Options {
			fmt.Fprintf(&b, "%s) %s\n", optionLabel(i), o)
		}
	}
	if in.Answer != "" {
		fmt.Fprintf(&b, "\nEXPECTED ANSWER: %s\n", in.Answer)
	}
	b.WriteString("\nWrite the worked solution as JSON.")
	return b.String()
}

func optionLabel(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return fmt.Sprintf("%d", i+1)
}
