package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/campaign-evaluation/internal/errors"
	"github.com/unclebandit/campaign-evaluation/internal/model"
	"github.com/unclebandit/campaign-evaluation/internal/repository"
)

func newAccountRepo(t *testing.T) (*repository.AccountRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &repository.AccountRepository{DB: db}, mock
}

func TestAccountCreate(t *testing.T) {
	repo, mock := newAccountRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WithArgs(sqlmock.AnyArg(), "Acme", "desc", model.RecordTypeNonEndemic, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	a := &model.Account{Name: "Acme", Description: "desc", RecordType: model.RecordTypeNonEndemic}
	require.NoError(t, repo.Create(context.Background(), a))

	assert.Len(t, a.ID, 36)
	assert.False(t, a.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountCreateDuplicate(t *testing.T) {
	repo, mock := newAccountRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value", Detail: "Key (name)=(Acme) already exists."})

	err := repo.Create(context.Background(), &model.Account{Name: "Acme"})

	var be *appErrors.BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, appErrors.CodeDuplicateValue, be.Errors[0].Code)
	assert.Equal(t, "duplicate value found: Key (name)=(Acme) already exists.", be.Error())
}

func TestAccountRename(t *testing.T) {
	repo, mock := newAccountRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET name = $1")).
		WithArgs("New", "acc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET name = $1")).
		WithArgs("New", "acc-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Rename(context.Background(), "acc-1", "New"))
	assert.True(t, appErrors.IsNotFound(repo.Rename(context.Background(), "acc-2", "New")))
}

func TestAccountSearch(t *testing.T) {
	repo, mock := newAccountRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY name ASC")).
		WithArgs(`%50\%%`, model.RecordTypeNonEndemic, sqlmock.AnyArg(), 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("acc-1", "Acme 50% Off"))

	results, err := repo.Search(context.Background(), model.SearchQuery{
		Term:       "50%",
		RecordType: model.RecordTypeNonEndemic,
		ExcludeIDs: []string{"acc-9"},
		Limit:      5,
	})
	require.NoError(t, err)
	assert.Equal(t, []model.LookupResult{{ID: "acc-1", Name: "Acme 50% Off"}}, results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountGetByIDNotFound(t *testing.T) {
	repo, mock := newAccountRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "record_type", "created_at", "updated_at"}))

	_, err := repo.GetByID(context.Background(), "nope")
	assert.True(t, appErrors.IsNotFound(err))
}
