// Package query parses filter query strings into ordered values.
//
// Keys keep the order in which they first appeared on the wire, which matters
// for ordering filters where the position of a key decides tie-break
// precedence. Values are one of three shapes:
//
//	string     price=10
//	[]string   price[]=10&price[]=20
//	*Values    order[name]=asc
package query

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Values is an insertion-ordered mapping of query parameters
type Values struct {
	keys []string
	m    map[string]interface{}
}

// NewValues creates an empty Values
func NewValues() *Values {
	return &Values{
		keys: make([]string, 0),
		m:    make(map[string]interface{}),
	}
}

// Set stores value under key. A key that already exists keeps its position.
func (v *Values) Set(key string, value interface{}) *Values {
	if _, ok := v.m[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.m[key] = value
	return v
}

// Get returns the value stored under key
func (v *Values) Get(key string) (interface{}, bool) {
	if v == nil {
		return nil, false
	}
	value, ok := v.m[key]
	return value, ok
}

// String returns the value under key when it is a plain string
func (v *Values) String(key string) (string, bool) {
	value, ok := v.Get(key)
	if !ok {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

// Has reports whether key is present
func (v *Values) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Delete removes key
func (v *Values) Delete(key string) {
	if _, ok := v.m[key]; !ok {
		return
	}
	delete(v.m, key)
	for i, k := range v.keys {
		if k == key {
			v.keys = append(v.keys[:i], v.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order
func (v *Values) Keys() []string {
	if v == nil {
		return []string{}
	}
	keys := make([]string, len(v.keys))
	copy(keys, v.keys)
	return keys
}

// Len returns the number of keys
func (v *Values) Len() int {
	if v == nil {
		return 0
	}
	return len(v.keys)
}

// Range calls fn for every key in insertion order until fn returns false
func (v *Values) Range(fn func(key string, value interface{}) bool) {
	if v == nil {
		return
	}
	for _, k := range v.keys {
		if !fn(k, v.m[k]) {
			return
		}
	}
}

// Clone returns a deep copy
func (v *Values) Clone() *Values {
	out := NewValues()
	v.Range(func(key string, value interface{}) bool {
		switch val := value.(type) {
		case *Values:
			out.Set(key, val.Clone())
		case []string:
			list := make([]string, len(val))
			copy(list, val)
			out.Set(key, list)
		default:
			out.Set(key, val)
		}
		return true
	})
	return out
}

// Map converts the values into plain maps, recursively
func (v *Values) Map() map[string]interface{} {
	out := make(map[string]interface{}, v.Len())
	v.Range(func(key string, value interface{}) bool {
		if nested, ok := value.(*Values); ok {
			out[key] = nested.Map()
		} else {
			out[key] = value
		}
		return true
	})
	return out
}

// MarshalJSON encodes the values as a JSON object in insertion order
func (v *Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	var err error
	first := true
	v.Range(func(key string, value interface{}) bool {
		if !first {
			buf.WriteByte(',')
		}
		first = false

		var encoded []byte
		if encoded, err = json.Marshal(key); err != nil {
			return false
		}
		buf.Write(encoded)
		buf.WriteByte(':')
		if encoded, err = json.Marshal(value); err != nil {
			return false
		}
		buf.Write(encoded)
		return true
	})
	if err != nil {
		return nil, err
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encode renders the values back into a query string using the bracket
// convention. Keys are not escaped beyond what the bracket syntax needs.
func (v *Values) Encode() string {
	parts := make([]string, 0, v.Len())
	v.encode("", &parts)
	return strings.Join(parts, "&")
}

func (v *Values) encode(prefix string, parts *[]string) {
	v.Range(func(key string, value interface{}) bool {
		name := escape(key)
		if prefix != "" {
			name = prefix + "[" + name + "]"
		}

		switch val := value.(type) {
		case *Values:
			val.encode(name, parts)
		case []string:
			for _, item := range val {
				*parts = append(*parts, name+"[]="+escape(item))
			}
		case string:
			*parts = append(*parts, name+"="+escape(val))
		}
		return true
	})
}
