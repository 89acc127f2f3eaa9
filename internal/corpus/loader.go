// Package corpus loads the read-only question bank archive and keeps the
// parsed result cached until the archive changes.
package corpus

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/paper-nest/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var entrySuffixes = []string{".json", ".jsonl", ".ndjson", ".txt"}

type Options struct {
	// Candidates are tried in order; the first existing file is used.
	Candidates    []string
	Concurrency   int
	MaxEntryBytes int64
}

type Loader struct {
	candidates    []string
	concurrency   int
	maxEntryBytes int64
	cache         Cache
	log           *zap.Logger

	// reloadMu serializes reparses. Readers go through the cache and never
	// take it.
	reloadMu sync.Mutex
}

func NewLoader(opts Options, cache Cache, log *zap.Logger) *Loader {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 4
	}
	if opts.MaxEntryBytes <= 0 {
		opts.MaxEntryBytes = 64 << 20
	}
	return &Loader{
		candidates:    opts.Candidates,
		concurrency:   opts.Concurrency,
		maxEntryBytes: opts.MaxEntryBytes,
		cache:         cache,
		log:           log,
	}
}

// Current returns the cached snapshot without touching the filesystem, or
// nil before the first successful load.
func (l *Loader) Current() *Snapshot {
	return l.cache.Load()
}

// Snapshot returns the cached corpus, reparsing only if the archive changed.
func (l *Loader) Snapshot(ctx context.Context) (*Snapshot, error) {
	return l.Load(ctx, false)
}

// Load returns the corpus for the first existing candidate archive. With
// force unset, an archive whose path and modification time match the cached
// snapshot is not reparsed.
func (l *Loader) Load(ctx context.Context, force bool) (*Snapshot, error) {
	archivePath, info, err := l.locate()
	if err != nil {
		return nil, err
	}

	if !force {
		if snap := l.cache.Load(); snap.matches(archivePath, info.ModTime()) {
			return snap, nil
		}
	}

	l.reloadMu.Lock()
	defer l.reloadMu.Unlock()

	// Another caller may have finished the same reload while we waited.
	if !force {
		if snap := l.cache.Load(); snap.matches(archivePath, info.ModTime()) {
			return snap, nil
		}
	}

	start := time.Now()
	snap, err := l.parseArchive(ctx, archivePath, info.ModTime())
	if err != nil {
		l.log.Error("corpus load failed", zap.String("archive", archivePath), zap.Error(err))
		return nil, err
	}
	l.cache.Store(snap)

	l.log.Info("corpus loaded",
		zap.String("archive", archivePath),
		zap.String("source_id", snap.SourceID()),
		zap.Int("questions", len(snap.Questions)),
		zap.Duration("took", time.Since(start)),
		zap.Bool("forced", force))
	return snap, nil
}

func (l *Loader) locate() (string, os.FileInfo, error) {
	for _, candidate := range l.candidates {
		info, err := os.Stat(candidate)
		if err == nil && info.Mode().IsRegular() {
			return candidate, info, nil
		}
	}
	return "", nil, &LoadError{Path: strings.Join(l.candidates, ", "), Err: ErrArchiveNotFound}
}

func (l *Loader) parseArchive(ctx context.Context, archivePath string, modTime time.Time) (*Snapshot, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, &LoadError{Path: archivePath, Err: fmt.Errorf("open archive: %w", err)}
	}
	defer zr.Close()

	var entries []*zip.File
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() && hasEntrySuffix(f.Name) {
			entries = append(entries, f)
		}
	}

	results := make([][]models.Question, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, f := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			qs, err := l.parseFile(f)
			if err != nil {
				l.log.Warn("skipping archive entry", zap.String("entry", f.Name), zap.Error(err))
				return nil
			}
			results[i] = qs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &LoadError{Path: archivePath, Err: err}
	}

	var questions []models.Question
	for _, qs := range results {
		questions = append(questions, qs...)
	}

	return &Snapshot{
		Questions:   questions,
		ArchivePath: archivePath,
		ModTime:     modTime,
		LoadedAt:    time.Now(),
	}, nil
}

var errEmptyEntry = errors.New("no question records recovered")

func (l *Loader) parseFile(f *zip.File) ([]models.Question, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, l.maxEntryBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read entry: %w", err)
	}
	if int64(len(data)) > l.maxEntryBytes {
		return nil, fmt.Errorf("entry exceeds %d bytes", l.maxEntryBytes)
	}

	records, tier := parseEntry(data)
	if len(records) == 0 {
		return nil, errEmptyEntry
	}
	if tier != "strict" {
		l.log.Debug("recovered malformed entry",
			zap.String("entry", f.Name), zap.String("tier", tier), zap.Int("records", len(records)))
	}

	fromPath := provenanceFromPath(f.Name)
	questions := make([]models.Question, 0, len(records))
	for i, rec := range records {
		questions = append(questions, toQuestion(rec, f.Name, i+1, fromPath))
	}
	return questions, nil
}

func hasEntrySuffix(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, s := range entrySuffixes {
		if ext == s {
			return true
		}
	}
	return false
}

// Watch polls the archive every interval and reloads it when it changes,
// until ctx is done.
func (l *Loader) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prev := l.cache.Load()
			snap, err := l.Load(ctx, false)
			if err != nil {
				l.log.Warn("scheduled corpus check failed", zap.Error(err))
				continue
			}
			if prev != nil && snap != prev {
				l.log.Info("corpus archive changed, snapshot replaced",
					zap.String("previous", prev.SourceID()),
					zap.String("current", snap.SourceID()))
			}
		}
	}
}
