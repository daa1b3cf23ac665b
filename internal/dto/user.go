package dto

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/noah-isme/users-web/internal/models"
)

// UserListParams are the raw list-page query parameters exactly as the
// browser sent them. Nothing here is validated.
type UserListParams struct {
	FirstName     string `form:"firstName"`
	LastName      string `form:"lastName"`
	Gender        string `form:"gender"`
	BirthdateFrom string `form:"birthdateFrom"`
	BirthdateTo   string `form:"birthdateTo"`
	Sort          string `form:"sort"`
	Direction     string `form:"direction"`
	Page          string `form:"page"`
	PerPage       string `form:"per_page"`
}

// Query encodes the non-empty parameters for use in links.
func (p UserListParams) Query() url.Values {
	values := url.Values{}
	set := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	set("firstName", p.FirstName)
	set("lastName", p.LastName)
	set("gender", p.Gender)
	set("birthdateFrom", p.BirthdateFrom)
	set("birthdateTo", p.BirthdateTo)
	set("sort", p.Sort)
	set("direction", p.Direction)
	set("page", p.Page)
	set("per_page", p.PerPage)
	return values
}

// WithSort returns the parameters for a column header link. Clicking the
// active column flips its direction; any other column starts ascending.
func (p UserListParams) WithSort(field string) UserListParams {
	next := p
	direction := models.SortAsc
	if p.Sort == field && models.SortDirection(p.Direction) != models.SortDesc {
		direction = models.SortDesc
	}
	next.Sort = field
	next.Direction = string(direction)
	next.Page = ""
	return next
}

// WithPage returns the parameters pointing at another page.
func (p UserListParams) WithPage(page int) UserListParams {
	next := p
	next.Page = strconv.Itoa(page)
	return next
}

// ListParamsFromQuery maps a normalized query back to inbound parameters.
func ListParamsFromQuery(q models.ListQuery) UserListParams {
	p := UserListParams{
		FirstName: q.Filters.FirstName,
		LastName:  q.Filters.LastName,
		Gender:    string(q.Filters.Gender),
		Page:      strconv.Itoa(q.Page),
		PerPage:   strconv.Itoa(q.PerPage),
	}
	if q.Filters.BirthdateFrom != nil {
		p.BirthdateFrom = q.Filters.BirthdateFrom.String()
	}
	if q.Filters.BirthdateTo != nil {
		p.BirthdateTo = q.Filters.BirthdateTo.String()
	}
	if primary, ok := q.Sort.Primary(); ok {
		p.Sort = primary.Field
		p.Direction = string(primary.Direction)
	}
	return p
}

// UserForm is the create/edit form submission.
type UserForm struct {
	FirstName string `form:"firstName" validate:"required,max=100,safetext"`
	LastName  string `form:"lastName" validate:"required,max=100,safetext"`
	Birthdate string `form:"birthdate" validate:"required,datetime=2006-01-02,notfuture"`
	Gender    string `form:"gender" validate:"required,oneof=male female"`
}

// Normalize trims surrounding whitespace from every field.
func (f *UserForm) Normalize() {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Birthdate = strings.TrimSpace(f.Birthdate)
	f.Gender = strings.TrimSpace(f.Gender)
}

// Payload converts a validated form into the API body.
func (f UserForm) Payload() (models.UserPayload, error) {
	birthdate, err := models.ParseDate(f.Birthdate)
	if err != nil {
		return models.UserPayload{}, err
	}
	return models.UserPayload{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Birthdate: birthdate,
		Gender:    models.Gender(f.Gender),
	}, nil
}

// UserFormFromRecord prefills the edit form.
func UserFormFromRecord(u models.UserRecord) UserForm {
	return UserForm{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Birthdate: u.Birthdate.String(),
		Gender:    string(u.Gender),
	}
}
