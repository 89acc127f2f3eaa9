// Package papers selects questions for exam papers, formats them for
// printing and finds duplicate-free substitutes for individual questions.
package papers

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paper-nest/backend/internal/corpus"
	"github.com/paper-nest/backend/internal/filter"
	"github.com/paper-nest/backend/internal/models"
	"github.com/paper-nest/backend/internal/shuffle"
	"github.com/paper-nest/backend/internal/storage"
	"go.uber.org/zap"
)

// CorpusSource hands out the current question bank snapshot.
type CorpusSource interface {
	Snapshot(ctx context.Context) (*corpus.Snapshot, error)
	Load(ctx context.Context, force bool) (*corpus.Snapshot, error)
}

type Service struct {
	corpus   CorpusSource
	resolver storage.Resolver
	store    Store
	log      *zap.Logger
	newSeed  func() string

	// Striped by paper id so concurrent edits of one paper cannot pick the
	// same substitute.
	paperLocks [16]sync.Mutex
}

func NewService(src CorpusSource, resolver storage.Resolver, store Store, log *zap.Logger) *Service {
	if resolver == nil {
		resolver = storage.NewPathResolver("")
	}
	if store == nil {
		store = NewMemoryStore()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		corpus:   src,
		resolver: resolver,
		store:    store,
		log:      log,
		newSeed:  shuffle.NewSeed,
	}
}

// ── Selection ───────────────────────────────────────────

func (s *Service) Select(ctx context.Context, req models.SelectRequest) (*models.SelectResponse, error) {
	if err := validationError(append(req.Validate(), chapterErrors(req.Chapters)...)); err != nil {
		return nil, err
	}

	snap, err := s.corpus.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	spec := filter.NewSpec(req.Exam, req.AllStandards(), req.AllSubjects(), req.Chapters)
	matched := filter.Apply(snap.Questions, spec)
	if len(matched) == 0 {
		return nil, &NotFoundError{Message: "no questions match the requested filters", Filter: spec.String()}
	}

	seed := strings.TrimSpace(req.Seed)
	if seed == "" {
		seed = s.newSeed()
	}

	selected := selectQuestions(matched, req.Fixed, spec.HasChapters(), req.Count, seed)

	s.log.Info("questions selected",
		zap.String("filter", spec.String()),
		zap.Int("matched", len(matched)),
		zap.Int("selected", len(selected)),
		zap.Bool("fixed", req.Fixed),
		zap.String("seed", seed),
		zap.String("source_id", snap.SourceID()))

	return &models.SelectResponse{
		Selected: selected,
		Seed:     seed,
		SourceID: snap.SourceID(),
	}, nil
}

func selectQuestions(matched []models.Question, fixed, chaptersConstrained bool, count int, seed string) []models.Question {
	switch {
	case fixed && chaptersConstrained:
		// Curriculum-complete: nothing is dropped, order varies by seed.
		return shuffle.Shuffle(matched, seed)
	case count > 0 && count < len(matched):
		if fixed {
			return slices.Clone(matched[:count])
		}
		return shuffle.Shuffle(matched, seed)[:count]
	case fixed:
		// Fixed papers without a chapter constraint keep corpus order.
		return slices.Clone(matched)
	default:
		return shuffle.Shuffle(matched, seed)
	}
}

// ── Replacement ─────────────────────────────────────────

// exclusionSet accumulates composite keys across the chapter requests of one
// call. Requests are handled in order, so earlier requests get first pick of
// a shared candidate pool.
type exclusionSet map[string]struct{}

func newExclusionSet(keys []string) exclusionSet {
	set := make(exclusionSet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func (e exclusionSet) has(key string) bool {
	_, ok := e[key]
	return ok
}

func (e exclusionSet) add(key string) {
	e[key] = struct{}{}
}

func (s *Service) FindReplacements(ctx context.Context, req models.ReplacementRequest) (*models.ReplacementResponse, error) {
	if err := validationError(append(req.Validate(), chapterRequestErrors(req.ReplacementRequests)...)); err != nil {
		return nil, err
	}

	snap, err := s.corpus.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	base := filter.NewSpec(req.Exam, req.Standards, req.Subjects, nil)
	excluded := newExclusionSet(req.OverallUsedKeys)

	var picked []models.Question
	for _, cr := range req.ReplacementRequests {
		got := s.replaceChapter(snap.Questions, base.WithChapter(cr.Chapter), cr.Count, excluded)
		if len(got) < cr.Count {
			s.log.Info("replacement request partially fulfilled",
				zap.String("chapter", cr.Chapter),
				zap.Int("requested", cr.Count),
				zap.Int("found", len(got)))
		}
		picked = append(picked, got...)
	}

	if len(picked) == 0 {
		return nil, &NotFoundError{Message: "no replacement questions available", Filter: base.String()}
	}

	return &models.ReplacementResponse{
		Replacements:   s.Format(picked).Questions,
		TotalRequested: req.TotalRequested(),
	}, nil
}

// replaceChapter picks up to count unused questions matching spec and marks
// each pick in excluded before returning.
func (s *Service) replaceChapter(questions []models.Question, spec filter.Spec, count int, excluded exclusionSet) []models.Question {
	if count <= 0 {
		return nil
	}

	var pool []models.Question
	for _, q := range questions {
		if spec.Matches(q) && !excluded.has(q.CompositeKey()) {
			pool = append(pool, q)
		}
	}

	var picked []models.Question
	for _, q := range shuffle.Shuffle(pool, s.newSeed()) {
		if len(picked) == count {
			break
		}
		key := q.CompositeKey()
		if excluded.has(key) {
			continue
		}
		excluded.add(key)
		picked = append(picked, q)
	}
	return picked
}

// ── Paper lifecycle ─────────────────────────────────────

// BuildPayload assembles the shape consumed by storage and printing.
func BuildPayload(formatted models.FormattedPaper, seed, sourceID string) models.PaperPayload {
	return models.PaperPayload{
		PaperQuestions: formatted.QuestionsBlob,
		PaperAnswers:   formatted.AnswersBlob,
		Metadata: models.PaperMetadata{
			Seed:              seed,
			QuestionCount:     len(formatted.Questions),
			OriginalQuestions: formatted.Questions,
			SourceID:          sourceID,
		},
	}
}

// Generate selects, formats and saves a new paper.
func (s *Service) Generate(ctx context.Context, req models.SelectRequest) (*models.Paper, error) {
	res, err := s.Select(ctx, req)
	if err != nil {
		return nil, err
	}

	formatted := s.Format(res.Selected)
	paper := &models.Paper{
		ID:        uuid.New(),
		Exam:      req.Exam,
		Standards: req.AllStandards(),
		Subjects:  req.AllSubjects(),
		Chapters:  req.Chapters,
		Fixed:     req.Fixed,
		Payload:   BuildPayload(formatted, res.Seed, res.SourceID),
		CreatedAt: time.Now().UTC(),
	}

	keys := make([]string, 0, len(res.Selected))
	for _, q := range res.Selected {
		keys = append(keys, q.CompositeKey())
	}
	if err := s.store.SavePaper(ctx, paper, keys); err != nil {
		return nil, fmt.Errorf("save paper: %w", err)
	}

	s.log.Info("paper generated",
		zap.String("paper_id", paper.ID.String()),
		zap.Int("questions", len(keys)))
	return paper, nil
}

// ReplaceInPaper finds substitutes for a stored paper, excluding every key
// the paper has used so far, and records the new picks.
func (s *Service) ReplaceInPaper(ctx context.Context, id uuid.UUID, reqs []models.ChapterRequest) (*models.ReplacementResponse, error) {
	if err := validationError(append(models.ValidateChapterRequests(reqs), chapterRequestErrors(reqs)...)); err != nil {
		return nil, err
	}

	lock := &s.paperLocks[id[0]%byte(len(s.paperLocks))]
	lock.Lock()
	defer lock.Unlock()

	paper, err := s.store.GetPaper(ctx, id)
	if err != nil {
		return nil, err
	}
	used, err := s.store.UsedKeys(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load used keys: %w", err)
	}

	resp, err := s.FindReplacements(ctx, models.ReplacementRequest{
		Exam:                paper.Exam,
		Standards:           paper.Standards,
		Subjects:            paper.Subjects,
		OverallUsedKeys:     used,
		ReplacementRequests: reqs,
	})
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(resp.Replacements))
	for _, r := range resp.Replacements {
		keys = append(keys, r.CompositeKey)
	}
	if err := s.store.AddUsedKeys(ctx, id, keys); err != nil {
		return nil, fmt.Errorf("record used keys: %w", err)
	}
	return resp, nil
}

func (s *Service) GetPaper(ctx context.Context, id uuid.UUID) (*models.Paper, error) {
	return s.store.GetPaper(ctx, id)
}

func (s *Service) ListPapers(ctx context.Context, limit, offset int) ([]models.PaperSummary, error) {
	return s.store.ListPapers(ctx, limit, offset)
}

// ── Corpus ──────────────────────────────────────────────

func (s *Service) CorpusStats(ctx context.Context) (models.CorpusStats, error) {
	snap, err := s.corpus.Snapshot(ctx)
	if err != nil {
		return models.CorpusStats{}, err
	}
	return snap.Stats(), nil
}

func (s *Service) ReloadCorpus(ctx context.Context) (models.CorpusStats, error) {
	snap, err := s.corpus.Load(ctx, true)
	if err != nil {
		return models.CorpusStats{}, err
	}
	return snap.Stats(), nil
}

// AuditCorpus scores every question in the current snapshot for structural
// problems, listing at most maxIssues of them.
func (s *Service) AuditCorpus(ctx context.Context, maxIssues int) (models.AuditReport, error) {
	snap, err := s.corpus.Snapshot(ctx)
	if err != nil {
		return models.AuditReport{}, err
	}
	report := corpus.Audit(snap, maxIssues)
	if report.Rejected > 0 {
		s.log.Warn("corpus has rejected questions",
			zap.String("source_id", report.SourceID),
			zap.Int("rejected", report.Rejected),
			zap.Int("flagged", report.Flagged))
	}
	return report, nil
}
