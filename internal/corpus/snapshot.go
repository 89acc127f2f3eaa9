package corpus

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/paper-nest/backend/internal/models"
)

var ErrArchiveNotFound = errors.New("question archive not found")

// LoadError reports a missing or unreadable archive.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load corpus: %v", e.Err)
	}
	return fmt.Sprintf("load corpus %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Public describes the failure for API clients. It names the archive by its
// base name only and leaves out the underlying error, which can carry
// server paths.
func (e *LoadError) Public() string {
	if errors.Is(e.Err, ErrArchiveNotFound) {
		return ErrArchiveNotFound.Error()
	}
	if e.Path == "" {
		return "question archive could not be read"
	}
	return fmt.Sprintf("archive %s could not be read", filepath.Base(e.Path))
}

// Snapshot is one immutable parse of the archive. It is replaced, never
// mutated, when the archive changes.
type Snapshot struct {
	Questions   []models.Question
	ArchivePath string
	ModTime     time.Time
	LoadedAt    time.Time
}

// SourceID identifies the archive revision a selection was drawn from.
func (s *Snapshot) SourceID() string {
	return filepath.Base(s.ArchivePath) + "@" + strconv.FormatInt(s.ModTime.Unix(), 10)
}

func (s *Snapshot) matches(path string, modTime time.Time) bool {
	return s != nil && s.ArchivePath == path && s.ModTime.Equal(modTime)
}

func (s *Snapshot) Stats() models.CorpusStats {
	stats := models.CorpusStats{
		SourceID:      s.SourceID(),
		ArchivePath:   s.ArchivePath,
		ModTime:       s.ModTime,
		LoadedAt:      s.LoadedAt,
		QuestionCount: len(s.Questions),
		Exams:         make(map[string]int),
		Subjects:      make(map[string]int),
	}
	chapters := make(map[string]bool)
	for _, q := range s.Questions {
		stats.Exams[q.Provenance.Exam]++
		stats.Subjects[q.Provenance.Subject]++
		chapters[q.Provenance.Exam+"/"+q.Provenance.Standard+"/"+q.Provenance.Subject+"/"+q.Chapter] = true
	}
	stats.Chapters = len(chapters)
	return stats
}

// Cache holds the current snapshot. Implementations must make Store visible
// to Load atomically.
type Cache interface {
	Load() *Snapshot
	Store(*Snapshot)
}

type MemoryCache struct {
	current atomic.Pointer[Snapshot]
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Load() *Snapshot {
	return c.current.Load()
}

func (c *MemoryCache) Store(s *Snapshot) {
	c.current.Store(s)
}
