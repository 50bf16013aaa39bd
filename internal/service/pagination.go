package service

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// normalizePage clamps page to ≥ 1 and pageSize to 1..200
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
