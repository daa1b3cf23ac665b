package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/users-web/internal/dto"
	"github.com/noah-isme/users-web/internal/models"
	"github.com/noah-isme/users-web/internal/repository"
	"github.com/noah-isme/users-web/internal/validation"
	appErrors "github.com/noah-isme/users-web/pkg/errors"
)

// ListWarning is shown when the listing could not be fetched.
const ListWarning = "API connection failed. Please ensure the Phoenix API is running."

// DefaultImportMessage is used when the import response carries no message.
const DefaultImportMessage = "Import completed successfully!"

type userRepository interface {
	List(ctx context.Context, q models.ListQuery) (*models.UserPage, error)
	Get(ctx context.Context, id int64) (*models.UserRecord, error)
	Create(ctx context.Context, payload models.UserPayload) (*models.UserRecord, error)
	Update(ctx context.Context, id int64, payload models.UserPayload) (*models.UserRecord, error)
	Delete(ctx context.Context, id int64) error
	Import(ctx context.Context) (*models.ImportResult, error)
}

// ValidationErrors maps form field names to a user-facing message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, v[field]))
	}
	return strings.Join(parts, "; ")
}

// UserListing is everything the index page renders.
type UserListing struct {
	Params     dto.UserListParams
	Query      models.ListQuery
	Users      []models.UserRecord
	Pagination models.PageResult
	Warning    string
}

// UserService proxies user management to the User API and applies the
// fallbacks the web tier relies on.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	validate.RegisterTagNameFunc(formTagName)
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List issues one list request for a normalized query.
func (s *UserService) List(ctx context.Context, q models.ListQuery) (*models.UserPage, error) {
	return s.repo.List(ctx, q)
}

// Browse translates raw list parameters and fetches the page. A failed fetch
// yields an empty page with zeroed totals and a warning instead of an error.
func (s *UserService) Browse(ctx context.Context, raw dto.UserListParams) UserListing {
	q := BuildListQuery(raw)
	listing := UserListing{Params: raw, Query: q}

	page, err := s.repo.List(ctx, q)
	if err != nil {
		s.logger.Warn("user listing degraded", zap.Error(err))
		empty := models.EmptyUserPage(q.Page, q.PerPage)
		listing.Users = empty.Users
		listing.Pagination = empty.Pagination
		listing.Warning = ListWarning
		return listing
	}

	listing.Users = page.Users
	listing.Pagination = page.Pagination
	return listing
}

// Get returns a user. Any failure is reported as not found.
func (s *UserService) Get(ctx context.Context, id int64) (*models.UserRecord, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		if !appErrors.Is(err, appErrors.ErrNotFound) {
			s.logger.Warn("user fetch degraded to not found", zap.Int64("user_id", id), zap.Error(err))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "User not found or API connection failed")
	}
	return user, nil
}

// Create validates the form and submits it.
func (s *UserService) Create(ctx context.Context, form dto.UserForm) (*models.UserRecord, error) {
	payload, err := s.payloadFromForm(&form)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.Create(ctx, payload)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.Int64("user_id", user.IDValue()))
	return user, nil
}

// Update validates the form and replaces the user's writable fields.
func (s *UserService) Update(ctx context.Context, id int64, form dto.UserForm) (*models.UserRecord, error) {
	payload, err := s.payloadFromForm(&form)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.Update(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user updated", zap.Int64("user_id", id))
	return user, nil
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.Int64("user_id", id))
	return nil
}

// Import triggers the bulk import and returns the message to show.
func (s *UserService) Import(ctx context.Context) (string, error) {
	result, err := s.repo.Import(ctx)
	if err != nil {
		return "", err
	}
	if result == nil || strings.TrimSpace(result.Message) == "" {
		return DefaultImportMessage, nil
	}
	return result.Message, nil
}

// Ping checks that the User API answers a minimal list request.
func (s *UserService) Ping(ctx context.Context) error {
	_, err := s.repo.List(ctx, models.ListQuery{PageRequest: models.PageRequest{Page: 1, PerPage: 1}})
	return err
}

// RemoteRejected reports whether err came from an API reply, as opposed to
// the API being unreachable.
func RemoteRejected(err error) bool {
	var statusErr *repository.RemoteStatusError
	return errors.As(err, &statusErr) || errors.Is(err, repository.ErrMalformedResponse)
}

func (s *UserService) payloadFromForm(form *dto.UserForm) (models.UserPayload, error) {
	form.Normalize()
	if err := s.validator.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return models.UserPayload{}, appErrors.Wrap(toValidationErrors(fieldErrs), appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user form")
		}
		return models.UserPayload{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user form")
	}
	payload, err := form.Payload()
	if err != nil {
		return models.UserPayload{}, appErrors.Wrap(ValidationErrors{"birthdate": "Please enter a valid date."}, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user form")
	}
	return payload, nil
}

func toValidationErrors(fieldErrs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, exists := out[fe.Field()]; exists {
			continue
		}
		out[fe.Field()] = validationMessage(fe)
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This value should not be blank."
	case "max":
		return fmt.Sprintf("This value is too long. It should have %s characters or less.", fe.Param())
	case "oneof":
		return "The value you selected is not a valid choice."
	case "datetime":
		return "Please enter a valid date."
	case "notfuture":
		return "Birthdate cannot be in the future."
	case "safetext":
		return "This value contains characters that are not allowed."
	default:
		return "This value is not valid."
	}
}

func formTagName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
	if name == "" || name == "-" {
		return field.Name
	}
	return name
}
