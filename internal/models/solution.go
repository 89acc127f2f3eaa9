package models

// DraftRequest names a bank question by composite key, or carries the
// question inline when it is not in the bank yet.
type DraftRequest struct {
	Exam         string   `json:"exam,omitempty"`
	CompositeKey string   `json:"composite_key,omitempty"`
	Chapter      string   `json:"chapter,omitempty"`
	Question     string   `json:"question,omitempty"`
	Options      []string `json:"options,omitempty"`
	Answer       string   `json:"answer,omitempty"`
}

func (r DraftRequest) Validate() []string {
	if r.CompositeKey == "" && r.Question == "" {
		return []string{"composite_key or question is required"}
	}
	return nil
}

type DraftResponse struct {
	CompositeKey   string   `json:"composite_key,omitempty"`
	Solution       string   `json:"solution"`
	Steps          []string `json:"steps,omitempty"`
	FinalAnswer    string   `json:"final_answer,omitempty"`
	AnswerMismatch bool     `json:"answer_mismatch"`
	Model          string   `json:"model"`
	PromptTokens   int      `json:"prompt_tokens"`
	OutputTokens   int      `json:"output_tokens"`
}
