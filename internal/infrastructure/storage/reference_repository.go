package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"MaterialityScanner/internal/domain"
	"MaterialityScanner/internal/ports"
)

// ErrNotFound is returned when a corporation does not exist.
var ErrNotFound = errors.New("record not found")

// ReferenceRepository reads corporations, categories and issue pools.
type ReferenceRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ReferenceStore = (*ReferenceRepository)(nil)

// NewReferenceRepository wires a sql.DB; driver selects the placeholder style.
func NewReferenceRepository(db *sql.DB, driver string) *ReferenceRepository {
	return &ReferenceRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholderFor(driver)),
	}
}

func placeholderFor(driver string) sq.PlaceholderFormat {
	switch driver {
	case DriverPostgres, "pgx":
		return sq.Dollar
	default:
		return sq.Question
	}
}

// GetCorporation loads one corporation by id.
func (r *ReferenceRepository) GetCorporation(ctx context.Context, id int64) (domain.Corporation, error) {
	query, args, err := r.builder.
		Select("id", "name").
		From("corporations").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Corporation{}, fmt.Errorf("build corporation query: %w", err)
	}

	var corp domain.Corporation
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&corp.ID, &corp.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Corporation{}, fmt.Errorf("corporation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Corporation{}, fmt.Errorf("query corporation: %w", err)
	}

	return corp, nil
}

// GetAllCategories lists every issue category ordered by id.
func (r *ReferenceRepository) GetAllCategories(ctx context.Context) ([]domain.Category, error) {
	query, args, err := r.builder.
		Select("id", "name").
		From("categories").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build categories query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return categories, nil
}

// GetCorporationIssues returns the corporation's issues of the given year and
// the reference issues (no year) that belong to it or to every corporation.
func (r *ReferenceRepository) GetCorporationIssues(ctx context.Context, corporationID int64, year int) (domain.CorporationIssues, error) {
	yearIssues, err := r.issues(ctx, sq.And{
		sq.Eq{"ip.corporation_id": corporationID},
		sq.Eq{"ip.year": year},
	})
	if err != nil {
		return domain.CorporationIssues{}, fmt.Errorf("year issues: %w", err)
	}

	commonIssues, err := r.issues(ctx, sq.And{
		sq.Or{
			sq.Eq{"ip.corporation_id": corporationID},
			sq.Eq{"ip.corporation_id": nil},
		},
		sq.Eq{"ip.year": nil},
	})
	if err != nil {
		return domain.CorporationIssues{}, fmt.Errorf("common issues: %w", err)
	}

	return domain.CorporationIssues{YearIssues: yearIssues, CommonIssues: commonIssues}, nil
}

func (r *ReferenceRepository) issues(ctx context.Context, where sq.Sqlizer) ([]domain.Issue, error) {
	query, args, err := r.builder.
		Select("ip.issue_name", "c.name", "ip.year").
		From("issue_pool ip").
		Join("categories c ON c.id = ip.category_id").
		Where(where).
		OrderBy("ip.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build issue query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query issues: %w", err)
	}
	defer rows.Close()

	issues := make([]domain.Issue, 0)
	for rows.Next() {
		var (
			issue domain.Issue
			year  sql.NullInt64
		)
		if err := rows.Scan(&issue.Name, &issue.Category, &year); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		if year.Valid {
			issue.Year = int(year.Int64)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return issues, nil
}
