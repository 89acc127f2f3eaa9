package papers

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/paper-nest/backend/internal/models"
)

// Store persists generated papers together with every composite key the
// paper has ever used, originals and substitutes alike.
type Store interface {
	SavePaper(ctx context.Context, paper *models.Paper, usedKeys []string) error
	GetPaper(ctx context.Context, id uuid.UUID) (*models.Paper, error)
	ListPapers(ctx context.Context, limit, offset int) ([]models.PaperSummary, error)
	UsedKeys(ctx context.Context, id uuid.UUID) ([]string, error)
	AddUsedKeys(ctx context.Context, id uuid.UUID, keys []string) error
}

// MemoryStore keeps papers in process memory. It backs tests and runs
// without a database.
type MemoryStore struct {
	mu     sync.RWMutex
	papers map[uuid.UUID]models.Paper
	used   map[uuid.UUID][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		papers: make(map[uuid.UUID]models.Paper),
		used:   make(map[uuid.UUID][]string),
	}
}

func (m *MemoryStore) SavePaper(_ context.Context, paper *models.Paper, usedKeys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.papers[paper.ID] = *paper
	m.used[paper.ID] = appendUnique(nil, usedKeys)
	return nil
}

func (m *MemoryStore) GetPaper(_ context.Context, id uuid.UUID) (*models.Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.papers[id]
	if !ok {
		return nil, ErrPaperNotFound
	}
	return &p, nil
}

func (m *MemoryStore) ListPapers(_ context.Context, limit, offset int) ([]models.PaperSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]models.PaperSummary, 0, len(m.papers))
	for _, p := range m.papers {
		all = append(all, summarize(p))
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []models.PaperSummary{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *MemoryStore) UsedKeys(_ context.Context, id uuid.UUID) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.papers[id]; !ok {
		return nil, ErrPaperNotFound
	}
	return append([]string(nil), m.used[id]...), nil
}

func (m *MemoryStore) AddUsedKeys(_ context.Context, id uuid.UUID, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.papers[id]; !ok {
		return ErrPaperNotFound
	}
	m.used[id] = appendUnique(m.used[id], keys)
	return nil
}

func summarize(p models.Paper) models.PaperSummary {
	return models.PaperSummary{
		ID:            p.ID,
		Exam:          p.Exam,
		Seed:          p.Payload.Metadata.Seed,
		QuestionCount: p.Payload.Metadata.QuestionCount,
		CreatedAt:     p.CreatedAt,
	}
}

func appendUnique(dst, keys []string) []string {
	seen := make(map[string]bool, len(dst)+len(keys))
	for _, k := range dst {
		seen[k] = true
	}
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			dst = append(dst, k)
		}
	}
	return dst
}
