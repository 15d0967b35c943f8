package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/campaign-evaluation/internal/errors"
	"github.com/unclebandit/campaign-evaluation/internal/lookup"
	"github.com/unclebandit/campaign-evaluation/internal/model"
)

const (
	maxToastLength = 150

	titleInsertFailed = "Insert failed"
	titleError        = "Error"
)

// ErrDuplicateName is returned when another account already has the name.
var ErrDuplicateName = errors.New("an account with this name already exists")

// Store persists accounts.
type Store interface {
	Create(ctx context.Context, a *model.Account) error
	Rename(ctx context.Context, id, name string) error
}

// CreateRequest is the input of the create form.
type CreateRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=32000"`
}

// RenameRequest is the input of the rename form.
type RenameRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// LookupConfig is the typeahead shown by both account forms.
func LookupConfig() model.LookupConfig {
	return model.LookupConfig{
		SObjectType:   "Account",
		SObjectField:  "Name",
		Conditions:    []string{"RecordType.DeveloperName = '" + model.RecordTypeNonEndemic + "'"},
		OrderBy:       []string{"Name ASC"},
		FieldLabel:    "Account Name",
		Type:          "text",
		MinimumLength: 2,
		Required:      true,
		ResultsLabel:  "Existing Accounts:",
	}
}

// Service creates and renames non-endemic accounts.
type Service struct {
	Store    Store
	Searcher lookup.Searcher
	Logger   *zap.Logger
	validate *validator.Validate
}

// NewService wires a Service.
func NewService(store Store, searcher lookup.Searcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Store: store, Searcher: searcher, Logger: logger, validate: validator.New()}
}

// Create inserts a non-endemic account. Failures come with an "Insert failed"
// toast.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.Account, []model.Toast, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		err = validationError(err)
		return nil, []model.Toast{stickyError(titleInsertFailed, err.Error())}, err
	}

	a := &model.Account{
		Name:        req.Name,
		Description: req.Description,
		RecordType:  model.RecordTypeNonEndemic,
	}
	if err := s.Store.Create(ctx, a); err != nil {
		s.Logger.Warn("account insert failed", zap.String("name", a.Name), zap.Error(err))
		return nil, []model.Toast{stickyError(titleInsertFailed, err.Error())}, err
	}
	s.Logger.Info("account created", zap.String("account_id", a.ID))
	return a, nil, nil
}

// Rename changes the name of account id unless another account of the same
// type already carries it.
func (s *Service) Rename(ctx context.Context, id string, req RenameRequest) ([]model.Toast, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		err = validationError(err)
		return []model.Toast{stickyError(titleError, err.Error())}, err
	}

	if s.Searcher != nil {
		results, err := s.Searcher.Search(ctx, model.SearchQuery{
			Term:       req.Name,
			RecordType: model.RecordTypeNonEndemic,
			ExcludeIDs: []string{id},
			Limit:      50,
		})
		if err != nil {
			return []model.Toast{stickyError(titleError, err.Error())}, err
		}
		for _, r := range results {
			if r.Name == req.Name {
				err := fmt.Errorf("%w: %s", ErrDuplicateName, req.Name)
				return []model.Toast{stickyError(titleError, err.Error())}, err
			}
		}
	}

	if err := s.Store.Rename(ctx, id, req.Name); err != nil {
		s.Logger.Warn("account rename failed", zap.String("account_id", id), zap.Error(err))
		return []model.Toast{stickyError(titleError, err.Error())}, err
	}
	return nil, nil
}

func stickyError(title, msg string) model.Toast {
	return model.Toast{
		Title:   title,
		Message: Truncate(msg),
		Variant: model.ToastError,
		Mode:    model.ToastSticky,
	}
}

// Truncate shortens messages longer than 150 characters to 149 plus "...".
func Truncate(msg string) string {
	r := []rune(msg)
	if len(r) <= maxToastLength {
		return msg
	}
	return string(r[:maxToastLength-1]) + "..."
}

func validationError(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := &appErrors.RequestValidationError{Fields: make(map[string]string, len(ves))}
	for _, fe := range ves {
		rule := fe.Tag()
		if rule == "max" {
			rule = "too long"
		}
		out.Fields[fe.Field()] = rule
	}
	return out
}
