package pagination

// Pagination carries total-count metadata for a bounded result slice.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// Page is a bounded result slice plus its pagination metadata.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// New wraps data into a Page, deriving totalPages = ceil(total/limit).
func New[T any](data []T, total int64, page, limit int) Page[T] {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	if data == nil {
		data = []T{}
	}
	return Page[T]{
		Data: data,
		Pagination: Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
		},
	}
}

// Offset computes the row offset for a 1-based page number.
func Offset(page, limit int) int {
	if page > 1 {
		return (page - 1) * limit
	}
	return 0
}
