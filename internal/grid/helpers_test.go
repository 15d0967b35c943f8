package grid_test

import (
	"context"
	"sync"

	"github.com/unclebandit/campaign-evaluation/internal/grid"
	"github.com/unclebandit/campaign-evaluation/internal/model"
)

// suffixes returns a generator yielding vals in order, then "zzz".
func suffixes(vals ...string) func() string {
	i := 0
	return func() string {
		if i >= len(vals) {
			return "zzz"
		}
		v := vals[i]
		i++
		return v
	}
}

func newState(items []model.Record, unpack bool, sfx ...string) *grid.State {
	s := grid.NewState(grid.Options{UnpackVirtualRows: unpack, Suffix: suffixes(sfx...)})
	s.Load(items)
	return s
}

func rowIDs(rows []*model.DisplayRow) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID())
	}
	return ids
}

func mustSidecar(raw string) *model.Sidecar {
	sc, err := model.DecodeSidecar(raw)
	if err != nil {
		panic(err)
	}
	return sc
}

type fakeBackend struct {
	mu       sync.Mutex
	items    []model.Record
	saved    [][]model.Record
	warning  string
	err      error
	fetchErr error
	fetches  int

	// when set, UpdateCampaignItems signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func (f *fakeBackend) FetchCampaignItems(ctx context.Context, recordID string) ([]model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]model.Record, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, item.Clone())
	}
	return out, nil
}

func (f *fakeBackend) UpdateCampaignItems(ctx context.Context, changeset []model.Record) (string, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, changeset)
	return f.warning, f.err
}

func (f *fakeBackend) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

type fakePicklists struct {
	options []model.PicklistOption
	err     error
}

func (f *fakePicklists) PicklistValues(ctx context.Context, field string) ([]model.PicklistOption, error) {
	return f.options, f.err
}

type fakePublisher struct {
	mu   sync.Mutex
	jobs []model.RecalculationJob
	err  error
}

func (f *fakePublisher) PublishRecalculation(ctx context.Context, job model.RecalculationJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return f.err
}
