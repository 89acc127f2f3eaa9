package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/paper-nest/backend/internal/models"
	"github.com/paper-nest/backend/internal/papers"
)

var _ papers.Store = (*PaperStore)(nil)

// PaperStore is the postgres implementation of papers.Store.
type PaperStore struct {
	db *sql.DB
}

func NewPaperStore(db *sql.DB) *PaperStore {
	return &PaperStore{db: db}
}

func (s *PaperStore) SavePaper(ctx context.Context, paper *models.Paper, usedKeys []string) error {
	payload, err := json.Marshal(paper.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO papers (id, exam, standards, subjects, chapters, fixed, seed, question_count, source_id, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		paper.ID, paper.Exam, pq.Array(nonNil(paper.Standards)), pq.Array(nonNil(paper.Subjects)), pq.Array(nonNil(paper.Chapters)),
		paper.Fixed, paper.Payload.Metadata.Seed, paper.Payload.Metadata.QuestionCount,
		paper.Payload.Metadata.SourceID, payload, paper.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert paper: %w", err)
	}

	if err := insertUsedKeys(ctx, tx, paper.ID, usedKeys); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PaperStore) GetPaper(ctx context.Context, id uuid.UUID) (*models.Paper, error) {
	var (
		p       models.Paper
		payload []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, exam, standards, subjects, chapters, fixed, payload, created_at
		 FROM papers WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Exam, pq.Array(&p.Standards), pq.Array(&p.Subjects), pq.Array(&p.Chapters),
		&p.Fixed, &payload, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, papers.ErrPaperNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get paper: %w", err)
	}

	if err := json.Unmarshal(payload, &p.Payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &p, nil
}

func (s *PaperStore) ListPapers(ctx context.Context, limit, offset int) ([]models.PaperSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, exam, seed, question_count, created_at
		 FROM papers ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	defer rows.Close()

	var out []models.PaperSummary
	for rows.Next() {
		var ps models.PaperSummary
		if err := rows.Scan(&ps.ID, &ps.Exam, &ps.Seed, &ps.QuestionCount, &ps.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

func (s *PaperStore) UsedKeys(ctx context.Context, id uuid.UUID) ([]string, error) {
	if err := s.ensureExists(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT composite_key FROM paper_used_keys WHERE paper_id = $1 ORDER BY added_at, composite_key`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("used keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan used key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *PaperStore) AddUsedKeys(ctx context.Context, id uuid.UUID, keys []string) error {
	if err := s.ensureExists(ctx, id); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertUsedKeys(ctx, tx, id, keys); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PaperStore) ensureExists(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM papers WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check paper: %w", err)
	}
	if !exists {
		return papers.ErrPaperNotFound
	}
	return nil
}

func insertUsedKeys(ctx context.Context, tx *sql.Tx, id uuid.UUID, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO paper_used_keys (paper_id, composite_key)
		 SELECT $1::uuid, k FROM unnest($2::text[]) AS k
		 ON CONFLICT DO NOTHING`,
		id, pq.Array(keys),
	)
	if err != nil {
		return fmt.Errorf("insert used keys: %w", err)
	}
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
