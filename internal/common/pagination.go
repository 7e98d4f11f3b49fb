package common

import (
	"net/http"
	"strconv"
)

// MaxPerPage caps page sizes requested through the limit parameter.
const MaxPerPage = 100

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// ParsePagination extracts page and per-page parameters from query values.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page = 1
	perPage = defaultPerPage
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		perPage = l
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return
}

// Offset returns the row offset for a page.
func Offset(page, perPage int) int32 {
	if page < 1 {
		return 0
	}
	return int32((page - 1) * perPage)
}

// JSONList writes a paginated list and mirrors the total in X-Total-Count.
func JSONList(w http.ResponseWriter, items any, page, perPage int, total int64) {
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": Pagination{Page: page, PerPage: perPage, TotalItems: int(total)},
	})
}
