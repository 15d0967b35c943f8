package lookup_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/campaign-evaluation/internal/lookup"
	"github.com/unclebandit/campaign-evaluation/internal/model"
)

type fakeSearcher struct {
	results []model.LookupResult
	err     error
	queries []model.SearchQuery
}

func (f *fakeSearcher) Search(ctx context.Context, q model.SearchQuery) ([]model.LookupResult, error) {
	f.queries = append(f.queries, q)
	out := make([]model.LookupResult, len(f.results))
	copy(out, f.results)
	return out, f.err
}

func accountConfig() model.LookupConfig {
	return model.LookupConfig{
		SObjectType:   "Account",
		SObjectField:  "Name",
		Conditions:    []string{"RecordType.DeveloperName = 'Non_Endemic'"},
		OrderBy:       []string{"Name ASC"},
		MinimumLength: 2,
	}
}

func TestShortTermIsNotSearched(t *testing.T) {
	s := &fakeSearcher{}
	l, err := lookup.New(accountConfig(), s, 10)
	require.NoError(t, err)

	change, err := l.Change(context.Background(), "a")
	require.NoError(t, err)

	assert.Equal(t, "a", change.Value)
	assert.Nil(t, change.Results)
	assert.False(t, change.Duplicate)
	assert.Nil(t, change.FuzzyDuplicate)
	assert.Empty(t, s.queries)
}

func TestChangeHighlightsAndFlagsDuplicates(t *testing.T) {
	s := &fakeSearcher{results: []model.LookupResult{
		{ID: "1", Name: "Acme"},
		{ID: "2", Name: "The ACME Corp"},
	}}
	l, err := lookup.New(accountConfig(), s, 10)
	require.NoError(t, err)

	change, err := l.Change(context.Background(), "Acme")
	require.NoError(t, err)

	require.Len(t, change.Results, 2)
	assert.Equal(t, "<b>Acme</b>", change.Results[0].FormattedName)
	assert.Equal(t, "The <b>ACME</b> Corp", change.Results[1].FormattedName)
	assert.True(t, change.Duplicate)
	assert.Equal(t, &lookup.FuzzyDuplicate{MatchAmount: 2, MatchSize: 4}, change.FuzzyDuplicate)

	require.Len(t, s.queries, 1)
	assert.Equal(t, model.SearchQuery{Term: "Acme", RecordType: "Non_Endemic", Limit: 10}, s.queries[0])
}

func TestFuzzyDuplicateNeedsEnoughResults(t *testing.T) {
	s := &fakeSearcher{results: []model.LookupResult{{ID: "1", Name: "Acme Ltd"}}}
	l, err := lookup.New(accountConfig(), s, 10)
	require.NoError(t, err)

	change, err := l.Change(context.Background(), "acme")
	require.NoError(t, err)
	assert.False(t, change.Duplicate)
	assert.Nil(t, change.FuzzyDuplicate)
}

func TestNoResults(t *testing.T) {
	l, err := lookup.New(accountConfig(), &fakeSearcher{}, 10)
	require.NoError(t, err)

	change, err := l.Change(context.Background(), "zz")
	require.NoError(t, err)
	assert.Nil(t, change.Results)
}

func TestSearchFailure(t *testing.T) {
	l, err := lookup.New(accountConfig(), &fakeSearcher{err: errors.New("down")}, 10)
	require.NoError(t, err)

	change, err := l.Change(context.Background(), "acme")
	assert.Error(t, err)
	assert.Equal(t, "acme", change.Value)
}

func TestExcludeRecordOnce(t *testing.T) {
	s := &fakeSearcher{}
	l, err := lookup.New(accountConfig(), s, 10)
	require.NoError(t, err)

	l.ExcludeRecord("acc-1")
	l.ExcludeRecord("acc-1")

	assert.Equal(t, []string{"RecordType.DeveloperName = 'Non_Endemic'", "Id != 'acc-1'"}, l.Config().Conditions)
	_, err = l.Change(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"acc-1"}, s.queries[0].ExcludeIDs)
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := accountConfig()
	cfg.SObjectType = ""
	_, err := lookup.New(cfg, &fakeSearcher{}, 10)
	assert.Error(t, err)

	cfg = accountConfig()
	cfg.Conditions = []string{"1 = 1; DROP TABLE accounts"}
	_, err = lookup.New(cfg, &fakeSearcher{}, 10)
	assert.ErrorContains(t, err, "unsupported lookup condition")

	cfg = accountConfig()
	cfg.OrderBy = []string{"Name DESC"}
	l, err := lookup.New(cfg, &fakeSearcher{}, 10)
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestHighlight(t *testing.T) {
	assert.Equal(t, "a<b>.b</b>c", lookup.Highlight("a.bc", ".b"))
	assert.Equal(t, "abc", lookup.Highlight("abc", "x"))
	assert.Equal(t, "abc", lookup.Highlight("abc", ""))
	assert.Equal(t, "<b>Ab</b>ab", lookup.Highlight("Abab", "ab"))
}
