package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/noah-isme/users-web/internal/models"
	appErrors "github.com/noah-isme/users-web/pkg/errors"
	"github.com/noah-isme/users-web/pkg/middleware/requestid"
)

const maxResponseBytes = 8 << 20

// Operation names used in logs and metrics.
const (
	OpListUsers  = "list_users"
	OpGetUser    = "get_user"
	OpCreateUser = "create_user"
	OpUpdateUser = "update_user"
	OpDeleteUser = "delete_user"
	OpImport     = "import_users"
)

// Outcomes recorded per outbound call.
const (
	OutcomeOK         = "ok"
	OutcomeTransport  = "transport_error"
	OutcomeStatus     = "status_error"
	OutcomeMalformed  = "malformed_response"
	OutcomeNotFound   = "not_found"
	OutcomeBadRequest = "request_error"
)

// ErrMalformedResponse marks a 2xx reply whose body could not be decoded.
var ErrMalformedResponse = errors.New("malformed response body")

// RemoteStatusError reports a non-2xx reply from the User API.
type RemoteStatusError struct {
	Status int
	Body   string
}

func (e *RemoteStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("user api responded %d", e.Status)
	}
	return fmt.Sprintf("user api responded %d: %s", e.Status, e.Body)
}

type apiMetrics interface {
	ObserveAPICall(operation, outcome string, duration time.Duration)
}

// UserAPIConfig configures the User API client.
type UserAPIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// UserAPIRepository talks to the remote User API. Every call is a single
// attempt; any failure is reported as ErrRemoteUnavailable except a 404 on a
// single-record fetch, which is ErrNotFound.
type UserAPIRepository struct {
	baseURL   string
	userAgent string
	client    *http.Client
	metrics   apiMetrics
	logger    *zap.Logger
}

// NewUserAPIRepository constructs the client. A nil http.Client gets one with
// the configured timeout.
func NewUserAPIRepository(cfg UserAPIConfig, client *http.Client, metrics apiMetrics, logger *zap.Logger) *UserAPIRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &UserAPIRepository{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		client:    client,
		metrics:   metrics,
		logger:    logger,
	}
}

// BaseURL returns the API root the repository was configured with.
func (r *UserAPIRepository) BaseURL() string {
	return r.baseURL
}

// List fetches one page of users.
func (r *UserAPIRepository) List(ctx context.Context, q models.ListQuery) (*models.UserPage, error) {
	var page models.UserPage
	if err := r.do(ctx, OpListUsers, http.MethodGet, "/users", q.Values(), nil, func(body []byte) error {
		return json.Unmarshal(body, &page)
	}); err != nil {
		return nil, err
	}
	if page.Users == nil {
		page.Users = []models.UserRecord{}
	}
	return &page, nil
}

// Get fetches a single user.
func (r *UserAPIRepository) Get(ctx context.Context, id int64) (*models.UserRecord, error) {
	var user models.UserRecord
	err := r.do(ctx, OpGetUser, http.MethodGet, userPath(id), nil, nil, decodeRecordInto(&user))
	if err != nil {
		var statusErr *RemoteStatusError
		if errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, err
	}
	return &user, nil
}

// Create submits a new user and returns the stored record.
func (r *UserAPIRepository) Create(ctx context.Context, payload models.UserPayload) (*models.UserRecord, error) {
	var user models.UserRecord
	if err := r.do(ctx, OpCreateUser, http.MethodPost, "/users", nil, payload, decodeRecordInto(&user)); err != nil {
		return nil, err
	}
	return &user, nil
}

// Update replaces the writable fields of a user.
func (r *UserAPIRepository) Update(ctx context.Context, id int64, payload models.UserPayload) (*models.UserRecord, error) {
	var user models.UserRecord
	if err := r.do(ctx, OpUpdateUser, http.MethodPut, userPath(id), nil, payload, decodeRecordInto(&user)); err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes a user. The response body is ignored.
func (r *UserAPIRepository) Delete(ctx context.Context, id int64) error {
	return r.do(ctx, OpDeleteUser, http.MethodDelete, userPath(id), nil, nil, nil)
}

// Import triggers the API's bulk import.
func (r *UserAPIRepository) Import(ctx context.Context) (*models.ImportResult, error) {
	var result models.ImportResult
	if err := r.do(ctx, OpImport, http.MethodPost, "/import", nil, nil, func(body []byte) error {
		return json.Unmarshal(body, &result)
	}); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *UserAPIRepository) do(ctx context.Context, op, method, path string, query url.Values, body interface{}, decode func([]byte) error) error {
	start := time.Now()
	outcome := OutcomeOK
	defer func() {
		if r.metrics != nil {
			r.metrics.ObserveAPICall(op, outcome, time.Since(start))
		}
	}()

	endpoint := r.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			outcome = OutcomeBadRequest
			return r.unavailable(ctx, op, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		outcome = OutcomeBadRequest
		return r.unavailable(ctx, op, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	if reqID := requestid.FromContext(ctx); reqID != "" {
		req.Header.Set(requestid.Header, reqID)
	}

	r.logger.Debug("user api request", zap.String("operation", op), zap.String("method", method), zap.String("url", endpoint))

	resp, err := r.client.Do(req)
	if err != nil {
		outcome = OutcomeTransport
		return r.unavailable(ctx, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		outcome = OutcomeTransport
		return r.unavailable(ctx, op, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		statusErr := &RemoteStatusError{Status: resp.StatusCode, Body: snippet(raw)}
		if resp.StatusCode == http.StatusNotFound && op == OpGetUser {
			outcome = OutcomeNotFound
			return statusErr
		}
		outcome = OutcomeStatus
		return r.unavailable(ctx, op, statusErr)
	}

	if decode == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		if op == OpImport || op == OpDeleteUser {
			return nil
		}
		outcome = OutcomeMalformed
		return r.unavailable(ctx, op, fmt.Errorf("%w: empty body", ErrMalformedResponse))
	}
	if err := decode(raw); err != nil {
		outcome = OutcomeMalformed
		return r.unavailable(ctx, op, fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}
	return nil
}

func (r *UserAPIRepository) unavailable(ctx context.Context, op string, cause error) error {
	r.logger.Warn("user api call failed",
		zap.String("operation", op),
		zap.String("request_id", requestid.FromContext(ctx)),
		zap.Error(cause),
	)
	return appErrors.Wrap(cause, appErrors.ErrRemoteUnavailable.Code, appErrors.ErrRemoteUnavailable.Status, op+": user api unavailable")
}

// decodeRecordInto accepts both {"data": {...}} and a bare record.
func decodeRecordInto(dest *models.UserRecord) func([]byte) error {
	return func(body []byte) error {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return err
		}
		if trimmed := bytes.TrimSpace(envelope.Data); len(trimmed) > 0 && trimmed[0] == '{' {
			return json.Unmarshal(trimmed, dest)
		}
		return json.Unmarshal(body, dest)
	}
}

func userPath(id int64) string {
	return "/users/" + strconv.FormatInt(id, 10)
}

func snippet(raw []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(raw))
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
