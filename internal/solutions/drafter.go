// Package solutions drafts worked solutions for bank questions that ship
// without one. Drafts are returned for review and never written back.
package solutions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/paper-nest/backend/internal/corpus"
	"github.com/paper-nest/backend/internal/filter"
	"github.com/paper-nest/backend/internal/mathtext"
	"github.com/paper-nest/backend/internal/models"
	"go.uber.org/zap"
)

var ErrQuestionNotFound = errors.New("question not found in bank")

type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

type CorpusSource interface {
	Snapshot(ctx context.Context) (*corpus.Snapshot, error)
}

type Drafter struct {
	llm    LLMClient
	model  string
	corpus CorpusSource
	log    *zap.Logger
}

func NewDrafter(llm LLMClient, model string, src CorpusSource, log *zap.Logger) *Drafter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Drafter{llm: llm, model: model, corpus: src, log: log}
}

func (d *Drafter) ModelName() string {
	return d.model
}

func (d *Drafter) Draft(ctx context.Context, req models.DraftRequest) (*models.DraftResponse, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	in := newPromptInput(req.Chapter, req.Question, req.Options, req.Answer)
	if req.CompositeKey != "" {
		q, err := d.lookup(ctx, req.Exam, req.CompositeKey)
		if err != nil {
			return nil, err
		}
		in = newPromptInput(q.Chapter, q.QuestionText, q.Options, q.Answer)
	}

	resp, err := d.llm.Generate(ctx, SystemPrompt(), BuildUserPrompt(in))
	if err != nil {
		return nil, fmt.Errorf("draft solution: %w", err)
	}

	parsed, err := parseDraft(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parse draft: %w", err)
	}

	out := &models.DraftResponse{
		CompositeKey:   req.CompositeKey,
		Solution:       parsed.Solution,
		Steps:          parsed.Steps,
		FinalAnswer:    parsed.FinalAnswer,
		AnswerMismatch: answersDisagree(in.Answer, parsed.FinalAnswer),
		Model:          d.model,
		PromptTokens:   resp.PromptTokens,
		OutputTokens:   resp.OutputTokens,
	}

	d.log.Info("solution drafted",
		zap.String("composite_key", req.CompositeKey),
		zap.String("model", d.model),
		zap.Bool("answer_mismatch", out.AnswerMismatch),
		zap.Int("prompt_tokens", resp.PromptTokens),
		zap.Int("output_tokens", resp.OutputTokens))
	return out, nil
}

// lookup finds a bank question by composite key, optionally narrowed to an
// exam. The first match in corpus order wins.
func (d *Drafter) lookup(ctx context.Context, exam, key string) (models.Question, error) {
	if d.corpus == nil {
		return models.Question{}, ErrQuestionNotFound
	}
	snap, err := d.corpus.Snapshot(ctx)
	if err != nil {
		return models.Question{}, err
	}

	spec := filter.NewSpec(exam, nil, nil, nil)
	for _, q := range snap.Questions {
		if q.CompositeKey() == key && spec.Matches(q) {
			return q, nil
		}
	}
	return models.Question{}, ErrQuestionNotFound
}

// answersDisagree compares answers after both are reduced to plain
// lowercase text. Either side being empty is not a disagreement.
func answersDisagree(expected, drafted string) bool {
	a := filter.Normalize(mathtext.Normalize(expected))
	b := filter.Normalize(mathtext.Normalize(drafted))
	if a == "" || b == "" {
		return false
	}
	return !strings.Contains(a, b) && !strings.Contains(b, a)
}
