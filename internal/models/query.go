package models

import (
	"net/url"
	"strconv"
	"strings"
)

// Wire names of the list endpoint's query parameters.
const (
	ParamFirstName     = "first_name"
	ParamLastName      = "last_name"
	ParamGender        = "gender"
	ParamBirthdateFrom = "birthdate_from"
	ParamBirthdateTo   = "birthdate_to"
	ParamSort          = "sort"
	ParamPage          = "page"
	ParamPerPage       = "per_page"
)

// Pagination bounds applied to every list request.
const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 50
)

// FilterCriteria holds the optional list predicates. Zero values mean
// "no constraint".
type FilterCriteria struct {
	FirstName     string
	LastName      string
	Gender        Gender
	BirthdateFrom *Date
	BirthdateTo   *Date
}

// Params returns the wire mapping containing only the constrained keys.
func (f FilterCriteria) Params() map[string]string {
	params := make(map[string]string, 5)
	if f.FirstName != "" {
		params[ParamFirstName] = f.FirstName
	}
	if f.LastName != "" {
		params[ParamLastName] = f.LastName
	}
	if f.Gender != "" {
		params[ParamGender] = string(f.Gender)
	}
	if f.BirthdateFrom != nil && !f.BirthdateFrom.IsZero() {
		params[ParamBirthdateFrom] = f.BirthdateFrom.String()
	}
	if f.BirthdateTo != nil && !f.BirthdateTo.IsZero() {
		params[ParamBirthdateTo] = f.BirthdateTo.String()
	}
	return params
}

// IsEmpty reports whether no predicate is set.
func (f FilterCriteria) IsEmpty() bool {
	return len(f.Params()) == 0
}

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Opposite flips the direction.
func (d SortDirection) Opposite() SortDirection {
	if d == SortDesc {
		return SortAsc
	}
	return SortDesc
}

// SortField is one column of a sort specification.
type SortField struct {
	Field     string
	Direction SortDirection
}

// Token renders the field as "field" or "-field".
func (s SortField) Token() string {
	if s.Direction == SortDesc {
		return "-" + s.Field
	}
	return s.Field
}

// SortSpec is an ordered list of sort columns.
type SortSpec []SortField

// Tokens returns the wire tokens in order. It never returns nil.
func (s SortSpec) Tokens() []string {
	tokens := make([]string, 0, len(s))
	for _, f := range s {
		if f.Field == "" {
			continue
		}
		tokens = append(tokens, f.Token())
	}
	return tokens
}

// Primary returns the first sort column.
func (s SortSpec) Primary() (SortField, bool) {
	if len(s) == 0 {
		return SortField{}, false
	}
	return s[0], true
}

// PageRequest is a validated page window.
type PageRequest struct {
	Page    int
	PerPage int
}

// ListQuery is a fully normalized list request.
type ListQuery struct {
	Filters FilterCriteria
	Sort    SortSpec
	PageRequest
}

// Values builds the outbound query string. The sort parameter is present only
// when there is at least one token.
func (q ListQuery) Values() url.Values {
	values := url.Values{}
	for k, v := range q.Filters.Params() {
		values.Set(k, v)
	}
	values.Set(ParamPage, strconv.Itoa(q.Page))
	values.Set(ParamPerPage, strconv.Itoa(q.PerPage))
	if tokens := q.Sort.Tokens(); len(tokens) > 0 {
		values.Set(ParamSort, strings.Join(tokens, ","))
	}
	return values
}
