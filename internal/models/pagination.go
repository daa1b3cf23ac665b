package models

// PageResult is the pagination block relayed from the User API.
type PageResult struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalCount int  `json:"total_count"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// EmptyPageResult is the pagination shown when no listing could be fetched.
func EmptyPageResult(page, perPage int) PageResult {
	return PageResult{Page: page, PerPage: perPage}
}

// UserPage is one page of the user listing.
type UserPage struct {
	Users      []UserRecord `json:"data"`
	Pagination PageResult   `json:"pagination"`
}

// EmptyUserPage returns a page with no users and zeroed totals.
func EmptyUserPage(page, perPage int) *UserPage {
	return &UserPage{Users: []UserRecord{}, Pagination: EmptyPageResult(page, perPage)}
}
