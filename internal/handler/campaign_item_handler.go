// internal/handler/campaign_item_handler.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-evaluation/internal/controller"
	"github.com/unclebandit/campaign-evaluation/internal/fieldmodal"
	"github.com/unclebandit/campaign-evaluation/internal/model"
)

// CampaignItemHandler holds the dependencies of the single item endpoints
type CampaignItemHandler struct {
	Store  fieldmodal.RecordStore
	Logger *zap.Logger
}

// NewCampaignItemHandler creates a CampaignItemHandler backed by store
func NewCampaignItemHandler(store fieldmodal.RecordStore, logger *zap.Logger) *CampaignItemHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CampaignItemHandler{Store: store, Logger: logger}
}

type fieldsPayload struct {
	Fields []model.Field     `json:"fields"`
	Edits  map[string]string `json:"edits"`
}

// StoreNumbersHandler returns the store numbers section of an item
func (h *CampaignItemHandler) StoreNumbersHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "itemId")

	section, err := fieldmodal.StoreNumbersSection(r.Context(), h.Store, id)
	if err != nil {
		h.Logger.Warn("failed to load store numbers", zap.String("id", id), zap.Error(err))
		writeJSON(w, controller.StatusFor(err), section)
		return
	}
	writeJSON(w, http.StatusOK, section)
}

// UpdateFieldsHandler saves the edits of a field modal
func (h *CampaignItemHandler) UpdateFieldsHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "itemId")

	var payload fieldsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(payload.Fields) == 0 {
		http.Error(w, "no fields to update", http.StatusBadRequest)
		return
	}

	names := make([]string, 0, len(payload.Fields))
	for _, f := range payload.Fields {
		names = append(names, f.APIName)
	}
	record, err := h.Store.GetRecord(r.Context(), id, names...)
	if err != nil {
		http.Error(w, "failed to fetch campaign item: "+err.Error(), controller.StatusFor(err))
		return
	}

	modal := &fieldmodal.Modal{Store: h.Store, Logger: h.Logger}
	res, err := modal.Save(r.Context(), record, payload.Fields, payload.Edits)
	if err != nil {
		writeJSON(w, controller.StatusFor(err), res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
