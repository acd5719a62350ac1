package analysis

// PageSize is the default number of devices per page.
const PageSize = 50

// Page is one slice of a paginated list.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
	Total      int `json:"total"`
}

// Paginate returns the requested 1-based page of items.
// Page numbers outside [1, max(TotalPages, 1)] are clamped.
func Paginate[T any](items []T, pageSize, page int) Page[T] {
	if pageSize < 1 {
		pageSize = PageSize
	}
	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize

	last := max(totalPages, 1)
	page = min(max(page, 1), last)

	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)

	return Page[T]{
		Items:      items[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Total:      total,
	}
}
