package router

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	webquery "github.com/conduit-lang/filterkit/pkg/web/query"
)

// LimitParam caps the rows returned by the query routes. It is consumed by
// the API and never reaches the filters.
const LimitParam = "limit"

// ResourceParam returns the {resource} path parameter
func ResourceParam(req *http.Request) string {
	return chi.URLParam(req, "resource")
}

// ExtractFilters parses the query string of req into filter values
func ExtractFilters(req *http.Request) (*webquery.Values, error) {
	values, err := webquery.ParseRequest(req)
	if err != nil {
		return nil, fmt.Errorf("invalid query string: %w", err)
	}
	return values, nil
}

// ExtractLimit removes the limit key from values and returns it clamped to
// [1, maxLimit]. A missing limit yields defaultLimit.
func ExtractLimit(values *webquery.Values, defaultLimit, maxLimit int) (int, error) {
	if !values.Has(LimitParam) {
		return defaultLimit, nil
	}
	raw, ok := values.String(LimitParam)
	values.Delete(LimitParam)
	if !ok || raw == "" {
		return defaultLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for parameter %s: %w", LimitParam, err)
	}
	if limit < 1 {
		return defaultLimit, nil
	}
	if limit > maxLimit {
		return maxLimit, nil
	}
	return limit, nil
}
