package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRecordDecodesWireShape(t *testing.T) {
	raw := `{"id":7,"first_name":"John","last_name":"Doe","birthdate":"1990-05-17","gender":"male",
		"created_at":"2024-01-02T03:04:05.678Z","updated_at":"2024-01-02T03:04:05"}`

	var u UserRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &u))

	assert.Equal(t, int64(7), u.IDValue())
	assert.Equal(t, "John Doe", u.FullName())
	assert.Equal(t, "1990-05-17", u.Birthdate.String())
	assert.Equal(t, GenderMale, u.Gender)
	require.NotNil(t, u.CreatedAt)
	assert.Equal(t, "2024-01-02T03:04:05.678Z", u.CreatedAt.String())
	require.NotNil(t, u.UpdatedAt)
	assert.Equal(t, time.UTC, u.UpdatedAt.Location())
}

func TestUserPayloadOmitsServerFields(t *testing.T) {
	id := int64(3)
	u := UserRecord{ID: &id, FirstName: "Jane", LastName: "Roe", Birthdate: NewDate(2001, time.February, 3), Gender: GenderFemale}

	body, err := json.Marshal(u.Payload())
	require.NoError(t, err)
	assert.JSONEq(t, `{"first_name":"Jane","last_name":"Roe","birthdate":"2001-02-03","gender":"female"}`, string(body))
}

func TestDateUnmarshalRejectsGarbage(t *testing.T) {
	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"17/05/1990"`), &d))
	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())
}

func TestListQueryValues(t *testing.T) {
	from := NewDate(1990, time.January, 1)
	q := ListQuery{
		Filters:     FilterCriteria{FirstName: "John", BirthdateFrom: &from},
		Sort:        SortSpec{{Field: "lastName", Direction: SortDesc}, {Field: "firstName", Direction: SortAsc}},
		PageRequest: PageRequest{Page: 2, PerPage: 25},
	}

	values := q.Values()
	assert.Equal(t, "John", values.Get(ParamFirstName))
	assert.Equal(t, "1990-01-01", values.Get(ParamBirthdateFrom))
	assert.Equal(t, "-lastName,firstName", values.Get(ParamSort))
	assert.Equal(t, "2", values.Get(ParamPage))
	assert.Equal(t, "25", values.Get(ParamPerPage))
	_, hasLast := values[ParamLastName]
	assert.False(t, hasLast)
}

func TestListQueryValuesOmitsEmptySort(t *testing.T) {
	q := ListQuery{PageRequest: PageRequest{Page: 1, PerPage: 10}}
	_, ok := q.Values()[ParamSort]
	assert.False(t, ok)
	assert.Equal(t, []string{}, q.Sort.Tokens())
}

func TestEmptyUserPage(t *testing.T) {
	page := EmptyUserPage(3, 20)
	assert.Empty(t, page.Users)
	assert.Equal(t, PageResult{Page: 3, PerPage: 20}, page.Pagination)
}
