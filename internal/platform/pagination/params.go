// Package pagination parses page/limit listing parameters from requests.
// Listings are offset paged; totals come back alongside each window.
package pagination

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultPage is the first page served when the client omits page.
	DefaultPage = 1
	// DefaultLimit is the window size when the client omits limit.
	DefaultLimit = 20
	// DefaultMaxLimit caps the window size to keep queries bounded.
	DefaultMaxLimit = 100
)

var (
	ErrInvalidPage  = errors.New("pagination: invalid page")
	ErrInvalidLimit = errors.New("pagination: invalid limit")
)

// Params bundles the normalised paging values extracted from a request.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the number of items to skip for this window.
func (p Params) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Options let a handler set its own defaults and ceiling. Zero values fall
// back to the package defaults.
type Options struct {
	DefaultLimit int
	MaxLimit     int
}

func (o Options) maxLimit() int {
	if o.MaxLimit > 0 {
		return o.MaxLimit
	}
	return DefaultMaxLimit
}

func (o Options) defaultLimit() int {
	limit := o.DefaultLimit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if ceiling := o.maxLimit(); limit > ceiling {
		limit = ceiling
	}
	return limit
}

// FromRequest reads paging parameters from the request query string.
func FromRequest(r *http.Request, opts Options) (Params, error) {
	if r == nil {
		return Params{}, errors.New("pagination: nil request")
	}
	return Parse(r.URL.Query(), opts)
}

// Parse normalises page and limit from the given query values. Missing values
// take defaults; a limit above the ceiling is clamped rather than rejected.
func Parse(values url.Values, opts Options) (Params, error) {
	page := DefaultPage
	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		parsed, err := positiveInt(raw, ErrInvalidPage)
		if err != nil {
			return Params{}, err
		}
		page = parsed
	}

	limit := opts.defaultLimit()
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		parsed, err := positiveInt(raw, ErrInvalidLimit)
		if err != nil {
			return Params{}, err
		}
		limit = parsed
		if ceiling := opts.maxLimit(); limit > ceiling {
			limit = ceiling
		}
	}

	return Params{Page: page, Limit: limit}, nil
}

func positiveInt(raw string, invalid error) (int, error) {
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: must be an integer", invalid)
	}
	if value < 1 {
		return 0, fmt.Errorf("%w: must be greater than zero", invalid)
	}
	return value, nil
}
