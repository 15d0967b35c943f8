// Package lookup implements the account name typeahead: search as the user
// types, highlight matches and flag likely duplicates.
package lookup

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/unclebandit/campaign-evaluation/internal/model"
)

// Searcher runs the name search.
type Searcher interface {
	Search(ctx context.Context, q model.SearchQuery) ([]model.LookupResult, error)
}

// FuzzyDuplicate reports that many accounts resemble the term.
type FuzzyDuplicate struct {
	MatchAmount int `json:"matchAmount"`
	MatchSize   int `json:"matchSize"`
}

// ValueChange is emitted for every term change.
type ValueChange struct {
	Value          string               `json:"value"`
	Results        []model.LookupResult `json:"results"`
	Duplicate      bool                 `json:"duplicate"`
	FuzzyDuplicate *FuzzyDuplicate      `json:"fuzzyDuplicate"`
}

var (
	recordTypeCondition = regexp.MustCompile(`^RecordType\.DeveloperName = '([^']*)'$`)
	excludeCondition    = regexp.MustCompile(`^Id != '([^']*)'$`)
	orderByClause       = regexp.MustCompile(`^Name (ASC|DESC)$`)
)

var validate = validator.New()

// Lookup is one configured typeahead.
type Lookup struct {
	config   model.LookupConfig
	searcher Searcher
	limit    int
	query    model.SearchQuery
}

// New validates cfg and returns a Lookup. Conditions must each select a
// record type or exclude one id.
func New(cfg model.LookupConfig, searcher Searcher, limit int) (*Lookup, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid lookup config: %w", err)
	}
	l := &Lookup{config: cfg, searcher: searcher, limit: limit}
	l.config.Conditions = append([]string(nil), cfg.Conditions...)
	for _, c := range cfg.Conditions {
		if err := l.applyCondition(c); err != nil {
			return nil, err
		}
	}
	for _, o := range cfg.OrderBy {
		m := orderByClause.FindStringSubmatch(o)
		if m == nil {
			return nil, fmt.Errorf("unsupported order by %q", o)
		}
		l.query.Descending = m[1] == "DESC"
	}
	return l, nil
}

func (l *Lookup) applyCondition(c string) error {
	if m := recordTypeCondition.FindStringSubmatch(c); m != nil {
		l.query.RecordType = m[1]
		return nil
	}
	if m := excludeCondition.FindStringSubmatch(c); m != nil {
		l.query.ExcludeIDs = append(l.query.ExcludeIDs, m[1])
		return nil
	}
	return fmt.Errorf("unsupported lookup condition %q", c)
}

// Config returns the current configuration.
func (l *Lookup) Config() model.LookupConfig {
	return l.config
}

// ExcludeRecord keeps id out of the results. Only the first call has an
// effect, so a record being renamed is never reported as its own duplicate.
func (l *Lookup) ExcludeRecord(id string) {
	if len(l.query.ExcludeIDs) > 0 {
		return
	}
	cond := "Id != '" + id + "'"
	l.config.Conditions = append(l.config.Conditions, cond)
	l.query.ExcludeIDs = append(l.query.ExcludeIDs, id)
}

// Change handles a new term. Terms shorter than MinimumLength are not
// searched.
func (l *Lookup) Change(ctx context.Context, term string) (*ValueChange, error) {
	change := &ValueChange{Value: term}
	if len(term) < l.config.MinimumLength {
		return change, nil
	}

	q := l.query
	q.Term = term
	q.Limit = l.limit
	results, err := l.searcher.Search(ctx, q)
	if err != nil {
		return change, err
	}
	if len(results) == 0 {
		return change, nil
	}

	for i := range results {
		results[i].FormattedName = Highlight(results[i].Name, term)
		if results[i].Name == term {
			change.Duplicate = true
		}
	}
	change.Results = results
	if len(results) >= l.config.MinimumLength {
		change.FuzzyDuplicate = &FuzzyDuplicate{MatchAmount: len(results), MatchSize: len(term)}
	}
	return change, nil
}

// Highlight wraps the first case-insensitive occurrence of term in name
// with <b></b>.
func Highlight(name, term string) string {
	if term == "" {
		return name
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(term))
	if err != nil {
		return name
	}
	loc := re.FindStringIndex(name)
	if loc == nil {
		return name
	}
	var b strings.Builder
	b.WriteString(name[:loc[0]])
	b.WriteString("<b>")
	b.WriteString(name[loc[0]:loc[1]])
	b.WriteString("</b>")
	b.WriteString(name[loc[1]:])
	return b.String()
}
