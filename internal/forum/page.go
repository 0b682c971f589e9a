package forum

const maxPageLimit = 100

type Page struct {
	Page  int
	Limit int
}

// NewPage clamps page to >= 1 and limit to [1, 100], using def when limit is unset.
func NewPage(page, limit, def int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = def
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

func (p Page) Info(total int64) Pagination {
	pages := int64(0)
	if p.Limit > 0 {
		pages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}
