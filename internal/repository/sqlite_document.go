package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/expedit/internal/db"
	"github.com/alexanderramin/expedit/internal/domain"
)

const documentColumns = `id, kind, experience_id, language_code, data, fields, modified,
	status_code, flow_code, fetched_at, updated_at`

// SQLiteDocumentRepo implements DocumentRepo on SQLite. Data and Fields are
// stored as JSON text.
type SQLiteDocumentRepo struct {
	db db.DBTX
}

func NewSQLiteDocumentRepo(conn db.DBTX) *SQLiteDocumentRepo {
	return &SQLiteDocumentRepo{db: conn}
}

func (r *SQLiteDocumentRepo) Create(ctx context.Context, d *domain.Document) error {
	data, fields, err := encodeDocument(d)
	if err != nil {
		return err
	}
	query := `INSERT INTO documents (` + documentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		d.ID,
		string(d.Kind),
		d.ExperienceID,
		d.LanguageCode,
		data,
		fields,
		boolToInt(d.Modified),
		string(d.StatusCode),
		string(d.FlowCode),
		formatTime(d.FetchedAt),
		formatTime(d.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

func (r *SQLiteDocumentRepo) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return r.scanDocument(row)
}

func (r *SQLiteDocumentRepo) GetByIDPrefix(ctx context.Context, prefix string) (*domain.Document, error) {
	if prefix == "" {
		return nil, fmt.Errorf("document: %w", ErrNotFound)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ? OR substr(id, 1, ?) = ? ORDER BY id LIMIT 2`,
		prefix, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("resolving document prefix: %w", err)
	}
	defer rows.Close()

	docs, err := r.scanDocuments(rows)
	if err != nil {
		return nil, err
	}
	switch {
	case len(docs) == 0:
		return nil, fmt.Errorf("document %q: %w", prefix, ErrNotFound)
	case len(docs) > 1 && docs[0].ID != prefix:
		return nil, fmt.Errorf("document %q: %w", prefix, ErrAmbiguous)
	}
	return docs[0], nil
}

func (r *SQLiteDocumentRepo) GetByKey(ctx context.Context, kind domain.DocumentKind, experienceID, languageCode string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE kind = ? AND experience_id = ? AND language_code = ?`,
		string(kind), experienceID, languageCode)
	return r.scanDocument(row)
}

func (r *SQLiteDocumentRepo) List(ctx context.Context, filter DocumentFilter) ([]*domain.Document, error) {
	var (
		where []string
		args  []any
	)
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.ExperienceID != "" {
		where = append(where, "experience_id = ?")
		args = append(args, filter.ExperienceID)
	}
	if filter.ModifiedOnly {
		where = append(where, "modified = 1")
	}

	query := `SELECT ` + documentColumns + ` FROM documents`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY experience_id, kind, language_code"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()
	return r.scanDocuments(rows)
}

func (r *SQLiteDocumentRepo) Update(ctx context.Context, d *domain.Document) error {
	data, fields, err := encodeDocument(d)
	if err != nil {
		return err
	}
	query := `UPDATE documents SET data = ?, fields = ?, modified = ?, status_code = ?, flow_code = ?,
		fetched_at = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		data,
		fields,
		boolToInt(d.Modified),
		string(d.StatusCode),
		string(d.FlowCode),
		formatTime(d.FetchedAt),
		formatTime(d.UpdatedAt),
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	return requireAffected(res, "document")
}

func (r *SQLiteDocumentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return requireAffected(res, "document")
}

func requireAffected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return nil
}

func encodeDocument(d *domain.Document) (string, string, error) {
	data, err := encodeJSON(d.Data, "data")
	if err != nil {
		return "", "", err
	}
	fields, err := encodeJSON(d.Fields, "fields")
	if err != nil {
		return "", "", err
	}
	return data, fields, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteDocumentRepo) scanDocument(row *sql.Row) (*domain.Document, error) {
	d, err := r.scanInto(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document: %w", ErrNotFound)
		}
		return nil, err
	}
	return d, nil
}

func (r *SQLiteDocumentRepo) scanDocuments(rows *sql.Rows) ([]*domain.Document, error) {
	var docs []*domain.Document
	for rows.Next() {
		d, err := r.scanInto(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

func (r *SQLiteDocumentRepo) scanInto(s rowScanner) (*domain.Document, error) {
	var (
		d                          domain.Document
		kind, status, flow         string
		dataStr, fieldsStr         string
		modified                   int
		fetchedAtStr, updatedAtStr string
	)
	err := s.Scan(&d.ID, &kind, &d.ExperienceID, &d.LanguageCode, &dataStr, &fieldsStr, &modified,
		&status, &flow, &fetchedAtStr, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	d.Kind = domain.DocumentKind(kind)
	d.StatusCode = domain.StatusCode(status)
	d.FlowCode = domain.FlowCode(flow)
	d.Modified = intToBool(modified)

	if d.Data, err = decodeJSON[any](dataStr, "data"); err != nil {
		return nil, err
	}
	if d.Fields, err = decodeJSON[domain.Field](fieldsStr, "fields"); err != nil {
		return nil, err
	}
	if d.FetchedAt, err = parseTime(fetchedAtStr, "fetched_at"); err != nil {
		return nil, err
	}
	if d.UpdatedAt, err = parseTime(updatedAtStr, "updated_at"); err != nil {
		return nil, err
	}
	return &d, nil
}
