package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	appErrors "github.com/unclebandit/campaign-evaluation/internal/errors"
	"github.com/unclebandit/campaign-evaluation/internal/model"
)

// AccountRepositoryInterface defines methods used by the account forms
type AccountRepositoryInterface interface {
	Create(ctx context.Context, a *model.Account) error
	Rename(ctx context.Context, id, name string) error
	GetByID(ctx context.Context, id string) (*model.Account, error)
	Search(ctx context.Context, q model.SearchQuery) ([]model.LookupResult, error)
}

// AccountRepository is the concrete implementation
type AccountRepository struct {
	DB *sql.DB
}

// Create inserts a, assigning its id and creation time.
func (r *AccountRepository) Create(ctx context.Context, a *model.Account) error {
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	query := `
        INSERT INTO accounts (id, name, description, record_type, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	_, err := r.DB.ExecContext(ctx, query, a.ID, a.Name, a.Description, a.RecordType, a.CreatedAt)
	return duplicateValue(err)
}

// Rename sets the account name.
func (r *AccountRepository) Rename(ctx context.Context, id, name string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE accounts SET name = $1, updated_at = NOW() WHERE id = $2`, name, id)
	if err != nil {
		return duplicateValue(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewAccountNotFound(id)
	}
	return nil
}

// GetByID fetches an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*model.Account, error) {
	query := `
        SELECT id, name, description, record_type, created_at, updated_at
        FROM accounts
        WHERE id = $1
    `
	var a model.Account
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Name, &a.Description, &a.RecordType, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewAccountNotFound(id)
		}
		return nil, err
	}
	return &a, nil
}

// Search returns accounts whose name contains the term, case-insensitively.
func (r *AccountRepository) Search(ctx context.Context, q model.SearchQuery) ([]model.LookupResult, error) {
	order := "ASC"
	if q.Descending {
		order = "DESC"
	}
	query := `
        SELECT id, name
        FROM accounts
        WHERE name ILIKE $1
          AND ($2 = '' OR record_type = $2)
          AND NOT (id = ANY($3))
        ORDER BY name ` + order + `
        LIMIT $4
    `
	excluded := q.ExcludeIDs
	if excluded == nil {
		excluded = []string{}
	}
	rows, err := r.DB.QueryContext(ctx, query, "%"+escapeLike(q.Term)+"%", q.RecordType, pq.Array(excluded), q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []model.LookupResult{}
	for rows.Next() {
		var res model.LookupResult
		if err := rows.Scan(&res.ID, &res.Name); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func duplicateValue(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return &appErrors.BackendError{
			Errors:  []appErrors.ErrorEntry{{Code: appErrors.CodeDuplicateValue, Message: pqErr.Message}},
			Message: "duplicate value found: " + pqErr.Detail,
			Err:     err,
		}
	}
	return err
}

var _ AccountRepositoryInterface = (*AccountRepository)(nil)
