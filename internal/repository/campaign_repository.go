package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/campaign-evaluation/internal/errors"
	"github.com/unclebandit/campaign-evaluation/internal/model"
)

// pq error codes
const (
	pqInvalidTextRepresentation = "22P02"
	pqUniqueViolation           = "23505"
)

type CampaignItemRepositoryInterface interface {
	FetchCampaignItems(ctx context.Context, recordID string) ([]model.Record, error)
	UpdateCampaignItems(ctx context.Context, changeset []model.Record) (string, error)
	GetRecord(ctx context.Context, id string, fields ...string) (model.Record, error)
	UpdateRecord(ctx context.Context, rec model.Record) error
	MarkRecalculationRequested(ctx context.Context, ids []string, at time.Time) error
}

// CampaignItemRepository stores campaign items as jsonb documents keyed by id.
type CampaignItemRepository struct {
	DB *sql.DB
}

// FetchCampaignItems returns the items of a media campaign in grid order.
func (r *CampaignItemRepository) FetchCampaignItems(ctx context.Context, recordID string) ([]model.Record, error) {
	query := `
        SELECT id, data
        FROM campaign_items
        WHERE media_campaign_id = $1
        ORDER BY position, id
    `
	rows, err := r.DB.QueryContext(ctx, query, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.Record{}
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		rec, err := decodeData(id, data)
		if err != nil {
			return nil, err
		}
		rec[model.FieldMediaCampaign] = recordID
		items = append(items, rec)
	}
	return items, rows.Err()
}

// UpdateCampaignItems merges every changeset entry into its stored document in
// one transaction. Missing items and rejected values abort the whole
// changeset with a *appErrors.BackendError.
func (r *CampaignItemRepository) UpdateCampaignItems(ctx context.Context, changeset []model.Record) (string, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	query := `UPDATE campaign_items SET data = data || $2::jsonb, updated_at = NOW() WHERE id = $1`
	backendErr := &appErrors.BackendError{}
	for _, entry := range changeset {
		id := entry.ID()
		patch, err := encodePatch(entry)
		if err != nil {
			return "", fmt.Errorf("encode campaign item %s: %w", id, err)
		}

		res, err := tx.ExecContext(ctx, query, id, patch)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == pqInvalidTextRepresentation {
				backendErr.FieldErrors = append(backendErr.FieldErrors, appErrors.FieldErrors{
					Field:    id,
					Messages: []appErrors.ErrorEntry{{Code: appErrors.CodeInvalidField, Message: pqErr.Message}},
				})
				// the transaction is aborted after a failed statement
				break
			}
			return "", err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return "", err
		}
		if n == 0 {
			backendErr.Errors = append(backendErr.Errors, appErrors.ErrorEntry{
				Code:    appErrors.CodeEntityIsDeleted,
				Message: fmt.Sprintf("entity is deleted: %s", id),
			})
		}
	}
	if len(backendErr.Errors) > 0 || len(backendErr.FieldErrors) > 0 {
		return "", backendErr
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return "", nil
}

// GetRecord returns one item. With fields set only those fields and Id are
// returned.
func (r *CampaignItemRepository) GetRecord(ctx context.Context, id string, fields ...string) (model.Record, error) {
	var data []byte
	err := r.DB.QueryRowContext(ctx, `SELECT data FROM campaign_items WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignItemNotFound(id)
		}
		return nil, err
	}
	rec, err := decodeData(id, data)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return rec, nil
	}
	out := model.Record{model.FieldID: id}
	for _, f := range fields {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	return out, nil
}

// UpdateRecord merges rec into the stored item.
func (r *CampaignItemRepository) UpdateRecord(ctx context.Context, rec model.Record) error {
	id := rec.ID()
	patch, err := encodePatch(rec)
	if err != nil {
		return fmt.Errorf("encode campaign item %s: %w", id, err)
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE campaign_items SET data = data || $2::jsonb, updated_at = NOW() WHERE id = $1`, id, patch)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewCampaignItemNotFound(id)
	}
	return nil
}

// MarkRecalculationRequested stamps the recalculation request time on items.
func (r *CampaignItemRepository) MarkRecalculationRequested(ctx context.Context, ids []string, at time.Time) error {
	query := `
        UPDATE campaign_items
        SET data = jsonb_set(data, '{` + model.FieldRecalcRequestedAt + `}', to_jsonb($2::text)), updated_at = NOW()
        WHERE id = ANY($1)
    `
	_, err := r.DB.ExecContext(ctx, query, pq.Array(ids), at.UTC().Format(time.RFC3339))
	return err
}

func decodeData(id string, data []byte) (model.Record, error) {
	if len(data) == 0 {
		return model.Record{model.FieldID: id}, nil
	}
	rec, err := model.DecodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("decode campaign item %s: %w", id, err)
	}
	rec[model.FieldID] = id
	return rec, nil
}

// encodePatch serialises every field except Id.
func encodePatch(rec model.Record) (string, error) {
	patch := make(map[string]any, len(rec))
	for k, v := range rec {
		if k != model.FieldID {
			patch[k] = v
		}
	}
	b, err := json.Marshal(patch)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var _ CampaignItemRepositoryInterface = (*CampaignItemRepository)(nil)
