package service

import (
	"strconv"
	"strings"

	"github.com/noah-isme/users-web/internal/dto"
	"github.com/noah-isme/users-web/internal/models"
)

// BuildListQuery normalizes raw list parameters into the query sent to the
// User API. It never fails: empty filters are dropped, unparsable dates are
// ignored and page bounds fall back to defaults before being clamped.
func BuildListQuery(raw dto.UserListParams) models.ListQuery {
	q := models.ListQuery{
		Filters: models.FilterCriteria{
			FirstName:     strings.TrimSpace(raw.FirstName),
			LastName:      strings.TrimSpace(raw.LastName),
			Gender:        models.Gender(strings.TrimSpace(raw.Gender)),
			BirthdateFrom: parseOptionalDate(raw.BirthdateFrom),
			BirthdateTo:   parseOptionalDate(raw.BirthdateTo),
		},
		Sort: models.SortSpec{},
		PageRequest: models.PageRequest{
			Page:    maxInt(models.DefaultPage, parseIntOr(raw.Page, models.DefaultPage)),
			PerPage: maxInt(1, minInt(models.MaxPerPage, parseIntOr(raw.PerPage, models.DefaultPerPage))),
		},
	}

	if raw.Sort != "" {
		direction := models.SortAsc
		if raw.Direction == string(models.SortDesc) {
			direction = models.SortDesc
		}
		q.Sort = append(q.Sort, models.SortField{Field: raw.Sort, Direction: direction})
	}

	return q
}

func parseOptionalDate(raw string) *models.Date {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil
	}
	return &d
}

func parseIntOr(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
