package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/users-web/internal/dto"
	"github.com/noah-isme/users-web/internal/models"
	"github.com/noah-isme/users-web/internal/service"
	"github.com/noah-isme/users-web/internal/web"
	appErrors "github.com/noah-isme/users-web/pkg/errors"
	"github.com/noah-isme/users-web/pkg/response"
)

// Flash texts shown after mutations.
const (
	FlashUserCreated  = "User created successfully!"
	FlashUserUpdated  = "User updated successfully!"
	FlashUserDeleted  = "User deleted successfully!"
	FlashDeleteFailed = "Failed to delete user. Please try again."
	FlashImportFailed = "Import failed. Please try again."
	NotFoundMessage   = "User not found or API connection failed"
)

type userService interface {
	Browse(ctx context.Context, raw dto.UserListParams) service.UserListing
	Get(ctx context.Context, id int64) (*models.UserRecord, error)
	Create(ctx context.Context, form dto.UserForm) (*models.UserRecord, error)
	Update(ctx context.Context, id int64, form dto.UserForm) (*models.UserRecord, error)
	Delete(ctx context.Context, id int64) error
	Import(ctx context.Context) (string, error)
}

type userExporter interface {
	Export(ctx context.Context, raw dto.UserListParams, format service.ExportFormat) (*service.ExportResult, error)
}

type sessionManager interface {
	AddFlash(ctx context.Context, session *models.Session, level models.FlashLevel, message string)
	PopFlashes(ctx context.Context, session *models.Session) []models.Flash
	IssueCSRF(session *models.Session, intent string) (string, error)
	VerifyCSRF(session *models.Session, intent, token string) bool
}

type layout struct {
	Title   string
	Flashes []models.Flash
}

type column struct {
	Field string
	Label string
}

var listColumns = []column{
	{Field: "first_name", Label: "First name"},
	{Field: "last_name", Label: "Last name"},
	{Field: "birthdate", Label: "Birthdate"},
	{Field: "gender", Label: "Gender"},
}

type indexPage struct {
	layout
	Listing      service.UserListing
	Columns      []column
	Genders      []models.Gender
	DeleteTokens map[int64]string
}

type showPage struct {
	layout
	User        *models.UserRecord
	DeleteToken string
}

type formPage struct {
	layout
	UserID  int64
	Form    dto.UserForm
	Errors  service.ValidationErrors
	Genders []models.Gender
	Error   string
}

type errorPage struct {
	layout
	Status  int
	Message string
}

// UserHandler serves the user management pages.
type UserHandler struct {
	users    userService
	exports  userExporter
	sessions sessionManager
	logger   *zap.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users userService, exports userExporter, sessions sessionManager, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{users: users, exports: exports, sessions: sessions, logger: logger}
}

// Root redirects to the listing.
func (h *UserHandler) Root(c *gin.Context) {
	c.Redirect(http.StatusFound, web.IndexPath)
}

// Index renders the filtered, sorted and paged listing. A failed fetch still
// renders with an empty table and a warning.
func (h *UserHandler) Index(c *gin.Context) {
	var params dto.UserListParams
	_ = c.ShouldBindQuery(&params)

	listing := h.users.Browse(c.Request.Context(), params)
	tokens := make(map[int64]string, len(listing.Users))
	for _, user := range listing.Users {
		tokens[user.IDValue()] = h.deleteToken(c, user.IDValue())
	}
	c.HTML(http.StatusOK, "users/index", indexPage{
		layout:       h.layout(c, "Users"),
		Listing:      listing,
		Columns:      listColumns,
		Genders:      models.Genders,
		DeleteTokens: tokens,
	})
}

// New renders an empty create form.
func (h *UserHandler) New(c *gin.Context) {
	h.renderForm(c, http.StatusOK, "users/new", 0, dto.UserForm{}, nil, "")
}

// Create validates and submits the create form.
func (h *UserHandler) Create(c *gin.Context) {
	var form dto.UserForm
	_ = c.ShouldBind(&form)

	if _, err := h.users.Create(c.Request.Context(), form); err != nil {
		h.formFailure(c, "users/new", 0, form, err)
		return
	}
	h.flash(c, models.FlashSuccess, FlashUserCreated)
	c.Redirect(http.StatusFound, web.IndexPath)
}

// Show renders one user.
func (h *UserHandler) Show(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "users/show", showPage{
		layout:      h.layout(c, user.FullName()),
		User:        user,
		DeleteToken: h.deleteToken(c, user.IDValue()),
	})
}

// Edit renders the edit form prefilled from the API.
func (h *UserHandler) Edit(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	h.renderForm(c, http.StatusOK, "users/edit", user.IDValue(), dto.UserFormFromRecord(*user), nil, "")
}

// Update validates and submits the edit form.
func (h *UserHandler) Update(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	id := user.IDValue()

	var form dto.UserForm
	_ = c.ShouldBind(&form)

	if _, err := h.users.Update(c.Request.Context(), id, form); err != nil {
		h.formFailure(c, "users/edit", id, form, err)
		return
	}
	h.flash(c, models.FlashSuccess, FlashUserUpdated)
	c.Redirect(http.StatusFound, web.UserURL(id))
}

// Delete removes a user when the form carries a valid token for it. An
// invalid token redirects without doing anything.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		h.renderError(c, http.StatusNotFound, NotFoundMessage)
		return
	}
	if !h.sessions.VerifyCSRF(sessionFromContext(c), deleteIntent(id), c.PostForm("_token")) {
		h.logger.Info("delete rejected: invalid csrf token", zap.Int64("user_id", id))
		c.Redirect(http.StatusFound, web.IndexPath)
		return
	}

	switch err := h.users.Delete(c.Request.Context(), id); {
	case err == nil:
		h.flash(c, models.FlashSuccess, FlashUserDeleted)
	case service.RemoteRejected(err):
		h.flash(c, models.FlashError, FlashDeleteFailed)
	default:
		h.flash(c, models.FlashError, service.ListWarning)
	}
	c.Redirect(http.StatusFound, web.IndexPath)
}

// Import triggers the bulk import on the API.
func (h *UserHandler) Import(c *gin.Context) {
	switch message, err := h.users.Import(c.Request.Context()); {
	case err == nil:
		h.flash(c, models.FlashSuccess, message)
	case service.RemoteRejected(err):
		h.flash(c, models.FlashError, FlashImportFailed)
	default:
		h.flash(c, models.FlashError, service.ListWarning)
	}
	c.Redirect(http.StatusFound, web.IndexPath)
}

// Export godoc
// @Summary Export users
// @Description Download the current filtered page of users
// @Tags Users
// @Produce text/csv
// @Produce application/pdf
// @Produce json
// @Param format query string false "csv, pdf or json" default(csv)
// @Param firstName query string false "First name filter"
// @Param lastName query string false "Last name filter"
// @Param gender query string false "male or female"
// @Param birthdateFrom query string false "YYYY-MM-DD"
// @Param birthdateTo query string false "YYYY-MM-DD"
// @Param sort query string false "Sort field"
// @Param direction query string false "asc or desc"
// @Param page query int false "Page number"
// @Param per_page query int false "Page size, at most 50"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /users/export [get]
func (h *UserHandler) Export(c *gin.Context) {
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var params dto.UserListParams
	_ = c.ShouldBindQuery(&params)

	result, err := h.exports.Export(c.Request.Context(), params, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Format == service.ExportFormatJSON {
		response.JSON(c, http.StatusOK, result.Page.Users, &result.Page.Pagination)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}

func (h *UserHandler) loadUser(c *gin.Context) (*models.UserRecord, bool) {
	id, ok := userIDParam(c)
	if !ok {
		h.renderError(c, http.StatusNotFound, NotFoundMessage)
		return nil, false
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, http.StatusNotFound, NotFoundMessage)
		return nil, false
	}
	return user, true
}

func (h *UserHandler) formFailure(c *gin.Context, name string, id int64, form dto.UserForm, err error) {
	var fieldErrs service.ValidationErrors
	if errors.As(err, &fieldErrs) {
		h.renderForm(c, http.StatusUnprocessableEntity, name, id, form, fieldErrs, "")
		return
	}
	h.logger.Warn("user submit failed", zap.Int64("user_id", id), zap.Error(err))
	h.renderForm(c, appErrors.FromError(err).Status, name, id, form, nil, service.ListWarning)
}

func (h *UserHandler) renderForm(c *gin.Context, status int, name string, id int64, form dto.UserForm, fieldErrs service.ValidationErrors, message string) {
	title := "New user"
	if id > 0 {
		title = "Edit user"
	}
	c.HTML(status, name, formPage{
		layout:  h.layout(c, title),
		UserID:  id,
		Form:    form,
		Errors:  fieldErrs,
		Genders: models.Genders,
		Error:   message,
	})
}

func (h *UserHandler) renderError(c *gin.Context, status int, message string) {
	c.HTML(status, "error", errorPage{
		layout:  h.layout(c, http.StatusText(status)),
		Status:  status,
		Message: message,
	})
}

func (h *UserHandler) layout(c *gin.Context, title string) layout {
	session := sessionFromContext(c)
	if session == nil {
		return layout{Title: title}
	}
	return layout{Title: title, Flashes: h.sessions.PopFlashes(c.Request.Context(), session)}
}

func (h *UserHandler) flash(c *gin.Context, level models.FlashLevel, message string) {
	session := sessionFromContext(c)
	if session == nil {
		return
	}
	h.sessions.AddFlash(c.Request.Context(), session, level, message)
}

func (h *UserHandler) deleteToken(c *gin.Context, id int64) string {
	session := sessionFromContext(c)
	if session == nil {
		return ""
	}
	token, err := h.sessions.IssueCSRF(session, deleteIntent(id))
	if err != nil {
		h.logger.Error("issue csrf token", zap.Int64("user_id", id), zap.Error(err))
		return ""
	}
	return token
}

func deleteIntent(id int64) string {
	return "delete" + strconv.FormatInt(id, 10)
}
