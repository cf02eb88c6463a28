package pagination

import "errors"

var ErrInvalidPage = errors.New("invalid_pagination")

// Pagination is an offset page request. Zero Limit means "use the default".
type Pagination struct {
	Limit  int `form:"limit" json:"limit"`
	Offset int `form:"offset" json:"offset"`
}

// Normalize validates the request and clamps Limit into [1, maxLimit].
func (p Pagination) Normalize(defaultLimit, maxLimit int) (Pagination, error) {
	if p.Limit < 0 || p.Offset < 0 {
		return Pagination{}, ErrInvalidPage
	}
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}

	out := p
	if out.Limit == 0 {
		out.Limit = defaultLimit
	}
	if out.Limit > maxLimit {
		out.Limit = maxLimit
	}
	return out, nil
}

type PageInfo struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// BuildPageInfo trims a result fetched with Limit+1 rows and reports whether more exist.
func BuildPageInfo[T any](data []T, page Pagination) ([]T, PageInfo) {
	info := PageInfo{Limit: page.Limit, Offset: page.Offset}
	if page.Limit > 0 && len(data) > page.Limit {
		info.HasMore = true
		data = data[:page.Limit]
	}
	return data, info
}
