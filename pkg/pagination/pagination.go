// Package pagination provides page-numbered pagination parameters
// shared by the list and search endpoints.
package pagination

const (
	// DefaultLimit is the page size used when the caller does not ask
	// for one.
	DefaultLimit = 10

	// MaxLimit caps the page size a caller may request.
	MaxLimit = 100
)

// Params carries a 1-based page number and a page size.
type Params struct {
	Limit int
	Page  int
}

// Normalize clamps the parameters into their valid ranges, applying
// defaults for zero or negative values.
func (p Params) Normalize() Params {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	return p
}

// Offset returns the number of records to skip for the page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}
