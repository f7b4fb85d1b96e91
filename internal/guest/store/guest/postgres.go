package guest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"guestlist/internal/guest/models"
	"guestlist/internal/platform/postgres"
	"guestlist/pkg/platform/tx"
)

const (
	constraintFullName    = "guests_full_name_key"
	constraintLeaderEmail = "guests_leader_email_key"

	guestColumns = `id, name, lastname, email, is_leader, companion_of, menu, created_at`
	guestOrder   = ` ORDER BY lower(lastname), lower(name), id`
)

// PostgresStore persists guests in the guests table. Uniqueness of full name
// and leader email is enforced by unique indexes; companion inserts select the
// leader row in the same statement.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, g *models.Guest) error {
	q := tx.Executor(ctx, s.db)

	var err error
	if g.IsLeader {
		err = q.QueryRowContext(ctx, `
			INSERT INTO guests (name, lastname, email, is_leader, menu, created_at)
			VALUES ($1, $2, $3, TRUE, NULLIF($4, ''), $5)
			RETURNING id`,
			g.Name, g.Lastname, g.Email, g.Menu, g.CreatedAt,
		).Scan(&g.ID)
	} else {
		if g.CompanionOf == nil {
			return ErrLeaderNotFound
		}
		err = q.QueryRowContext(ctx, `
			INSERT INTO guests (name, lastname, is_leader, companion_of, menu, created_at)
			SELECT $1, $2, FALSE, l.id, NULLIF($4, ''), $5
			FROM guests l
			WHERE l.id = $3 AND l.is_leader
			RETURNING id`,
			g.Name, g.Lastname, *g.CompanionOf, g.Menu, g.CreatedAt,
		).Scan(&g.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrLeaderNotFound
		}
	}
	return classifyWrite(err, "insert guest")
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Guest, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+guestColumns+` FROM guests WHERE id = $1`, id)
	return scanGuest(row, "find guest by id")
}

func (s *PostgresStore) FindByName(ctx context.Context, name, lastname string) (*models.Guest, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+guestColumns+` FROM guests WHERE lower(name) = lower($1) AND lower(lastname) = lower($2) LIMIT 1`,
		name, lastname)
	return scanGuest(row, "find guest by name")
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Guest, error) {
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+guestColumns+` FROM guests WHERE email = $1 LIMIT 1`, email)
	return scanGuest(row, "find guest by email")
}

func (s *PostgresStore) Update(ctx context.Context, id int64, patch models.Patch) (*models.Guest, error) {
	menuSet := patch.Menu != nil
	menu := ""
	if menuSet {
		menu = *patch.Menu
	}
	row := tx.Executor(ctx, s.db).QueryRowContext(ctx, `
		UPDATE guests
		SET name = $2,
		    lastname = $3,
		    menu = CASE WHEN $4 THEN NULLIF($5, '') ELSE menu END
		WHERE id = $1
		RETURNING `+guestColumns,
		id, patch.Name, patch.Lastname, menuSet, menu)
	g, err := scanGuest(row, "update guest")
	if err != nil {
		if constraint, ok := postgres.UniqueViolation(err); ok && constraint == constraintFullName {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return g, nil
}

// Delete removes a companion. The row is locked first so the leader check and
// the delete observe the same state.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		q := tx.Executor(ctx, s.db)
		var isLeader bool
		err := q.QueryRowContext(ctx, `SELECT is_leader FROM guests WHERE id = $1 FOR UPDATE`, id).Scan(&isLeader)
		if err != nil {
			return postgres.Classify(err, "lock guest")
		}
		if isLeader {
			return ErrLeaderDeletion
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM guests WHERE id = $1`, id); err != nil {
			return postgres.Classify(err, "delete guest")
		}
		return nil
	})
}

func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Guest, error) {
	var (
		where []string
		args  []any
	)
	if filter.LeadersOnly {
		where = append(where, "is_leader")
	}
	if filter.CompanionOf != nil {
		args = append(args, *filter.CompanionOf)
		where = append(where, fmt.Sprintf("companion_of = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR lastname ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + guestColumns + ` FROM guests`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += guestOrder

	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, postgres.Classify(err, "list guests")
	}
	defer rows.Close()

	var out []*models.Guest
	for rows.Next() {
		g, err := scanGuest(rows, "scan guest")
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Classify(err, "iterate guests")
	}
	return out, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := tx.Executor(ctx, s.db).QueryRowContext(ctx, `SELECT count(*) FROM guests`).Scan(&n); err != nil {
		return 0, postgres.Classify(err, "count guests")
	}
	return n, nil
}

// CountByMenu keys guests without a menu under "".
func (s *PostgresStore) CountByMenu(ctx context.Context) (map[string]int, error) {
	rows, err := tx.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT COALESCE(menu, ''), count(*) FROM guests GROUP BY 1`)
	if err != nil {
		return nil, postgres.Classify(err, "count guests by menu")
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			menu string
			n    int
		)
		if err := rows.Scan(&menu, &n); err != nil {
			return nil, postgres.Classify(err, "scan menu count")
		}
		out[menu] = n
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Classify(err, "iterate menu counts")
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGuest(row scanner, op string) (*models.Guest, error) {
	var (
		g           models.Guest
		email, menu sql.NullString
		companionOf sql.NullInt64
	)
	err := row.Scan(&g.ID, &g.Name, &g.Lastname, &email, &g.IsLeader, &companionOf, &menu, &g.CreatedAt)
	if err != nil {
		return nil, postgres.Classify(err, op)
	}
	g.Email = email.String
	g.Menu = menu.String
	if companionOf.Valid {
		leader := companionOf.Int64
		g.CompanionOf = &leader
	}
	return &g, nil
}

// classifyWrite names which unique index rejected the write.
func classifyWrite(err error, op string) error {
	if err == nil {
		return nil
	}
	if constraint, ok := postgres.UniqueViolation(err); ok {
		switch constraint {
		case constraintFullName:
			return ErrDuplicateName
		case constraintLeaderEmail:
			return ErrDuplicateEmail
		}
	}
	return postgres.Classify(err, op)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
