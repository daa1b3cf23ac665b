package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/users-web/internal/dto"
	"github.com/noah-isme/users-web/internal/models"
	"github.com/noah-isme/users-web/internal/repository"
	appErrors "github.com/noah-isme/users-web/pkg/errors"
)

type mockUserRepo struct {
	users     map[int64]*models.UserRecord
	listPage  *models.UserPage
	listErr   error
	getErr    error
	createErr error
	updateErr error
	deleteErr error
	importRes *models.ImportResult
	importErr error

	listQueries []models.ListQuery
	created     []models.UserPayload
	updated     map[int64]models.UserPayload
	deleted     []int64
	nextID      int64
}

func remoteDown() error {
	return appErrors.Wrap(errors.New("connection refused"), appErrors.ErrRemoteUnavailable.Code, appErrors.ErrRemoteUnavailable.Status, "user api unavailable")
}

func (m *mockUserRepo) List(ctx context.Context, q models.ListQuery) (*models.UserPage, error) {
	m.listQueries = append(m.listQueries, q)
	if m.listErr != nil {
		return nil, m.listErr
	}
	if m.listPage != nil {
		return m.listPage, nil
	}
	return models.EmptyUserPage(q.Page, q.PerPage), nil
}

func (m *mockUserRepo) Get(ctx context.Context, id int64) (*models.UserRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if u, ok := m.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
}

func (m *mockUserRepo) Create(ctx context.Context, payload models.UserPayload) (*models.UserRecord, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, payload)
	m.nextID++
	id := m.nextID
	return &models.UserRecord{ID: &id, FirstName: payload.FirstName, LastName: payload.LastName, Birthdate: payload.Birthdate, Gender: payload.Gender}, nil
}

func (m *mockUserRepo) Update(ctx context.Context, id int64, payload models.UserPayload) (*models.UserRecord, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	if m.updated == nil {
		m.updated = make(map[int64]models.UserPayload)
	}
	m.updated[id] = payload
	return &models.UserRecord{ID: &id, FirstName: payload.FirstName, LastName: payload.LastName, Birthdate: payload.Birthdate, Gender: payload.Gender}, nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockUserRepo) Import(ctx context.Context) (*models.ImportResult, error) {
	if m.importErr != nil {
		return nil, m.importErr
	}
	return m.importRes, nil
}

func validForm() dto.UserForm {
	return dto.UserForm{FirstName: " John ", LastName: "Doe", Birthdate: "1990-05-17", Gender: "male"}
}

func TestUserServiceBrowse(t *testing.T) {
	id := int64(1)
	repo := &mockUserRepo{listPage: &models.UserPage{
		Users:      []models.UserRecord{{ID: &id, FirstName: "John", LastName: "Doe"}},
		Pagination: models.PageResult{Page: 1, PerPage: 10, TotalCount: 1, TotalPages: 1},
	}}
	svc := NewUserService(repo, nil, zap.NewNop())

	listing := svc.Browse(context.Background(), dto.UserListParams{FirstName: "John", Sort: "lastName", Direction: "desc"})

	require.Len(t, repo.listQueries, 1)
	assert.Equal(t, []string{"-lastName"}, repo.listQueries[0].Sort.Tokens())
	assert.Empty(t, listing.Warning)
	assert.Len(t, listing.Users, 1)
	assert.Equal(t, 1, listing.Pagination.TotalCount)
	assert.Equal(t, "John", listing.Params.FirstName)
}

func TestUserServiceBrowseFallsBackOnFailure(t *testing.T) {
	repo := &mockUserRepo{listErr: remoteDown()}
	svc := NewUserService(repo, nil, nil)

	listing := svc.Browse(context.Background(), dto.UserListParams{Page: "3", PerPage: "20"})

	assert.Equal(t, []models.UserRecord{}, listing.Users)
	assert.Equal(t, models.PageResult{Page: 3, PerPage: 20}, listing.Pagination)
	assert.Equal(t, ListWarning, listing.Warning)
}

func TestUserServiceGet(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		id := int64(7)
		repo := &mockUserRepo{users: map[int64]*models.UserRecord{7: {ID: &id, FirstName: "Ann"}}}
		svc := NewUserService(repo, nil, nil)
		user, err := svc.Get(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, "Ann", user.FirstName)
	})

	t.Run("missing", func(t *testing.T) {
		svc := NewUserService(&mockUserRepo{}, nil, nil)
		_, err := svc.Get(context.Background(), 404)
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	})

	t.Run("remote failure degrades to not found", func(t *testing.T) {
		svc := NewUserService(&mockUserRepo{getErr: remoteDown()}, nil, nil)
		_, err := svc.Get(context.Background(), 1)
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, http.StatusNotFound, appErr.Status)
		assert.Equal(t, "User not found or API connection failed", appErr.Message)
	})

	t.Run("non positive id", func(t *testing.T) {
		svc := NewUserService(&mockUserRepo{}, nil, nil)
		_, err := svc.Get(context.Background(), 0)
		assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	})
}

func TestUserServiceCreate(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Create(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.IDValue())
	require.Len(t, repo.created, 1)
	assert.Equal(t, models.UserPayload{
		FirstName: "John",
		LastName:  "Doe",
		Birthdate: models.NewDate(1990, time.May, 17),
		Gender:    models.GenderMale,
	}, repo.created[0])
}

func TestUserServiceCreateValidation(t *testing.T) {
	long := make([]rune, 101)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name   string
		mutate func(*dto.UserForm)
		field  string
	}{
		{name: "blank first name", mutate: func(f *dto.UserForm) { f.FirstName = "   " }, field: "firstName"},
		{name: "long last name", mutate: func(f *dto.UserForm) { f.LastName = string(long) }, field: "lastName"},
		{name: "bad gender", mutate: func(f *dto.UserForm) { f.Gender = "other" }, field: "gender"},
		{name: "bad date", mutate: func(f *dto.UserForm) { f.Birthdate = "17/05/1990" }, field: "birthdate"},
		{name: "future date", mutate: func(f *dto.UserForm) { f.Birthdate = "2999-01-01" }, field: "birthdate"},
		{name: "control characters", mutate: func(f *dto.UserForm) { f.FirstName = "Jo\u200bhn" }, field: "firstName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockUserRepo{}
			svc := NewUserService(repo, nil, nil)
			form := validForm()
			tt.mutate(&form)

			_, err := svc.Create(context.Background(), form)
			require.Error(t, err)
			assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

			var fields ValidationErrors
			require.True(t, errors.As(err, &fields))
			assert.Contains(t, fields, tt.field)
			assert.Empty(t, repo.created)
		})
	}
}

func TestUserServiceNameLengthCountsCharacters(t *testing.T) {
	name := make([]rune, 100)
	for i := range name {
		name[i] = 'é'
	}
	form := validForm()
	form.FirstName = string(name)

	_, err := NewUserService(&mockUserRepo{}, nil, nil).Create(context.Background(), form)
	assert.NoError(t, err)
}

func TestUserServiceCreatePropagatesRemoteFailure(t *testing.T) {
	svc := NewUserService(&mockUserRepo{createErr: remoteDown()}, nil, nil)
	_, err := svc.Create(context.Background(), validForm())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrRemoteUnavailable))
}

func TestUserServiceUpdate(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil, nil)

	updated, err := svc.Update(context.Background(), 5, validForm())
	require.NoError(t, err)
	assert.Equal(t, int64(5), updated.IDValue())
	assert.Equal(t, "John", repo.updated[5].FirstName)
}

func TestUserServiceDelete(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil, nil)
	require.NoError(t, svc.Delete(context.Background(), 3))
	assert.Equal(t, []int64{3}, repo.deleted)
}

func TestUserServiceImport(t *testing.T) {
	t.Run("remote message", func(t *testing.T) {
		svc := NewUserService(&mockUserRepo{importRes: &models.ImportResult{Message: "Imported 5 users"}}, nil, nil)
		msg, err := svc.Import(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Imported 5 users", msg)
	})

	t.Run("default message", func(t *testing.T) {
		svc := NewUserService(&mockUserRepo{importRes: &models.ImportResult{}}, nil, nil)
		msg, err := svc.Import(context.Background())
		require.NoError(t, err)
		assert.Equal(t, DefaultImportMessage, msg)
	})

	t.Run("failure", func(t *testing.T) {
		svc := NewUserService(&mockUserRepo{importErr: remoteDown()}, nil, nil)
		_, err := svc.Import(context.Background())
		assert.Error(t, err)
	})
}

func TestUserServicePing(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, nil, nil)
	require.NoError(t, svc.Ping(context.Background()))
	require.Len(t, repo.listQueries, 1)
	assert.Equal(t, 1, repo.listQueries[0].PerPage)
}

func TestRemoteRejected(t *testing.T) {
	rejected := appErrors.Wrap(&repository.RemoteStatusError{Status: http.StatusConflict}, appErrors.ErrRemoteUnavailable.Code, appErrors.ErrRemoteUnavailable.Status, "delete")
	assert.True(t, RemoteRejected(rejected))
	assert.False(t, RemoteRejected(remoteDown()))
}
