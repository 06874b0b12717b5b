package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/expedit/internal/db"
	"github.com/alexanderramin/expedit/internal/domain"
)

// SQLiteJournalRepo implements JournalRepo on SQLite.
type SQLiteJournalRepo struct {
	db db.DBTX
}

func NewSQLiteJournalRepo(conn db.DBTX) *SQLiteJournalRepo {
	return &SQLiteJournalRepo{db: conn}
}

func (r *SQLiteJournalRepo) Append(ctx context.Context, entries ...domain.JournalEntry) error {
	query := `INSERT INTO journal_entries (id, document_id, operation, method, target, outcome, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, e := range entries {
		_, err := r.db.ExecContext(ctx, query,
			e.ID,
			e.DocumentID,
			string(e.Operation),
			e.Method,
			e.Target,
			string(e.Outcome),
			e.Error,
			formatTime(e.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting journal entry: %w", err)
		}
	}
	return nil
}

func (r *SQLiteJournalRepo) ListByDocument(ctx context.Context, documentID string, limit int) ([]domain.JournalEntry, error) {
	query := `SELECT id, document_id, operation, method, target, outcome, error, created_at
		FROM journal_entries WHERE document_id = ?
		ORDER BY created_at DESC, rowid DESC`
	args := []any{documentID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing journal entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		var (
			e                  domain.JournalEntry
			operation, outcome string
			createdAtStr       string
		)
		if err := rows.Scan(&e.ID, &e.DocumentID, &operation, &e.Method, &e.Target, &outcome, &e.Error, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		e.Operation = domain.Operation(operation)
		e.Outcome = domain.Outcome(outcome)
		if e.CreatedAt, err = parseTime(createdAtStr, "created_at"); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal entries: %w", err)
	}
	return entries, nil
}
