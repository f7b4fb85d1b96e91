package report

import (
	"context"
	"database/sql"

	"guestlist/internal/platform/postgres"
	"guestlist/internal/report/models"
	"guestlist/pkg/platform/tx"
)

// PostgresStore persists reports in the error_reports table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, r *models.ErrorReport) error {
	err := tx.Executor(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO error_reports (name, lastname, email, description, created_at)
		VALUES (NULLIF($1, ''), NULLIF($2, ''), $3, $4, $5)
		RETURNING id`,
		r.Name, r.Lastname, r.Email, r.Description, r.CreatedAt,
	).Scan(&r.ID)
	if err != nil {
		return postgres.Classify(err, "insert error report")
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.ErrorReport, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT id, name, lastname, email, description, created_at
		FROM error_reports
		ORDER BY id`)
	if err != nil {
		return nil, postgres.Classify(err, "list error reports")
	}
	defer rows.Close()

	var out []*models.ErrorReport
	for rows.Next() {
		var (
			r              models.ErrorReport
			name, lastname sql.NullString
		)
		if err := rows.Scan(&r.ID, &name, &lastname, &r.Email, &r.Description, &r.CreatedAt); err != nil {
			return nil, postgres.Classify(err, "scan error report")
		}
		r.Name = name.String
		r.Lastname = lastname.String
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Classify(err, "iterate error reports")
	}
	return out, nil
}
