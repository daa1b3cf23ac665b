// Package web holds the server-rendered pages.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/url"

	"github.com/noah-isme/users-web/internal/dto"
	"github.com/noah-isme/users-web/internal/models"
)

//go:embed templates
var templateFS embed.FS

// IndexPath is the user listing route.
const IndexPath = "/users/"

// Templates parses every page with the shared helpers.
func Templates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(FuncMap()).ParseFS(templateFS, "templates/*.html", "templates/users/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

// FuncMap exposes the link and formatting helpers used by the pages.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"sortURL":       SortURL,
		"pageURL":       PageURL,
		"exportURL":     ExportURL,
		"sortIndicator": SortIndicator,
		"userURL":       UserURL,
		"genderLabel":   func(g models.Gender) string { return g.Label() },
		"add":           func(a, b int) int { return a + b },
	}
}

// SortURL links a column header, keeping the current filters.
func SortURL(params dto.UserListParams, field string) string {
	return withQuery(IndexPath, params.WithSort(field).Query())
}

// PageURL links another page of the same listing.
func PageURL(params dto.UserListParams, page int) string {
	return withQuery(IndexPath, params.WithPage(page).Query())
}

// ExportURL links a download of the current listing page.
func ExportURL(params dto.UserListParams, format string) string {
	values := params.Query()
	values.Set("format", format)
	return withQuery("/users/export", values)
}

// SortIndicator marks the active sort column.
func SortIndicator(params dto.UserListParams, field string) string {
	if params.Sort != field {
		return ""
	}
	if models.SortDirection(params.Direction) == models.SortDesc {
		return "▼"
	}
	return "▲"
}

// UserURL is the show page of a user.
func UserURL(id int64) string {
	return fmt.Sprintf("/users/%d", id)
}

func withQuery(path string, values url.Values) string {
	if len(values) == 0 {
		return path
	}
	return path + "?" + values.Encode()
}
