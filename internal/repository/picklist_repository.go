package repository

import (
	"context"
	"database/sql"

	"github.com/unclebandit/campaign-evaluation/internal/model"
)

// PicklistRepository reads the allowed values of picklist fields.
type PicklistRepository struct {
	DB *sql.DB
}

// PicklistValues returns the options of field in display order.
func (r *PicklistRepository) PicklistValues(ctx context.Context, field string) ([]model.PicklistOption, error) {
	query := `
        SELECT value, label
        FROM picklist_values
        WHERE field = $1
        ORDER BY position, value
    `
	rows, err := r.DB.QueryContext(ctx, query, field)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	options := []model.PicklistOption{}
	for rows.Next() {
		var o model.PicklistOption
		if err := rows.Scan(&o.Value, &o.Label); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}
