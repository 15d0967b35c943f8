// internal/model/recalculation.go
package model

import "time"

// RecalculationJob asks the evaluation engine to recompute results for the
// given campaign items after their evaluation inputs changed.
type RecalculationJob struct {
	ID              string    `json:"id"`
	RecordID        string    `json:"record_id"`
	CampaignItemIDs []string  `json:"campaign_item_ids"`
	RequestedAt     time.Time `json:"requested_at"`
}
