package query

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ParseQuery parses a raw query string. Bracketed keys build nested values
// (order[name]=asc), empty brackets append to a list (price[]=1&price[]=2)
// and a repeated plain key keeps its last value. Dots in keys are preserved.
func ParseQuery(raw string) (*Values, error) {
	values := NewValues()

	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}

		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("invalid query key %q: %w", rawKey, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %q: %w", key, err)
		}
		if key == "" {
			continue
		}

		insert(values, splitKey(key), value)
	}

	return values, nil
}

// ParseRequest parses the query string of r
func ParseRequest(r *http.Request) (*Values, error) {
	if r == nil || r.URL == nil {
		return NewValues(), nil
	}
	return ParseQuery(r.URL.RawQuery)
}

// splitKey splits "a[b][c]" into [a b c]. A key with unbalanced brackets is
// kept whole.
func splitKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return []string{key}
	}

	segments := []string{key[:open]}
	rest := key[open:]
	for rest != "" {
		if rest[0] != '[' {
			return []string{key}
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return []string{key}
		}
		segments = append(segments, rest[1:end])
		rest = rest[end+1:]
	}
	return segments
}

// insert stores value at the path described by segments
func insert(values *Values, segments []string, value string) {
	key := segments[0]
	if len(segments) == 1 {
		values.Set(key, value)
		return
	}

	rest := segments[1:]
	if len(rest) == 1 && rest[0] == "" {
		switch existing := values.m[key].(type) {
		case *Values:
			existing.Set(strconv.Itoa(existing.Len()), value)
		case []string:
			values.Set(key, append(existing, value))
		default:
			values.Set(key, []string{value})
		}
		return
	}

	nested, ok := values.m[key].(*Values)
	if !ok {
		nested = NewValues()
		values.Set(key, nested)
	}
	if rest[0] == "" {
		rest = append([]string{strconv.Itoa(nested.Len())}, rest[1:]...)
	}
	insert(nested, rest, value)
}

func escape(s string) string {
	return url.QueryEscape(s)
}
