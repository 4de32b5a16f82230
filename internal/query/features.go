// Package query translates the API's query-string grammar
// (?price[gte]=500&sort=-price,name&fields=name,price&page=2&limit=10)
// into a store-agnostic query specification. The four stages are pure
// transformations over an accumulating Spec; repos render the Spec into
// SQL through their own column whitelists.
package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

type Op string

const (
	OpEq  Op = "="
	OpGt  Op = ">"
	OpGte Op = ">="
	OpLt  Op = "<"
	OpLte Op = "<="
)

var suffixOps = map[string]Op{
	"gt":  OpGt,
	"gte": OpGte,
	"lt":  OpLt,
	"lte": OpLte,
}

// Keys that belong to other stages and never become filter conditions.
var reserved = map[string]struct{}{
	"page":   {},
	"sort":   {},
	"limit":  {},
	"fields": {},
}

type Condition struct {
	Field string
	Op    Op
	Value string
}

type Order struct {
	Field string
	Desc  bool
}

type Spec struct {
	Conditions []Condition
	Sort       []Order
	Fields     []string
	Page       int
	Limit      int
}

const (
	DefaultPage  = 1
	DefaultLimit = 100
)

// DefaultSort orders by creation time, newest first, when the request
// does not say otherwise.
var DefaultSort = []Order{{Field: "created_at", Desc: true}}

// FromValues builds a Spec from raw query values. A page past the end
// of the data is not an error; it simply selects nothing.
func FromValues(values url.Values) Spec {
	return Spec{}.
		filter(values).
		sortStage(values).
		limitFields(values).
		paginate(values)
}

// Offset is derived, never stored, so the stages stay independent.
func (s Spec) Offset() int {
	return (s.Page - 1) * s.Limit
}

func (s Spec) filter(values url.Values) Spec {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		field, op := splitFilterKey(key)
		if _, ok := reserved[field]; ok {
			continue
		}
		for _, v := range values[key] {
			s.Conditions = append(s.Conditions, Condition{Field: field, Op: op, Value: v})
		}
	}
	return s
}

// splitFilterKey turns "price[gte]" into ("price", OpGte); a bare key
// is an equality filter.
func splitFilterKey(key string) (string, Op) {
	open := strings.IndexByte(key, '[')
	if open == -1 || !strings.HasSuffix(key, "]") {
		return key, OpEq
	}
	suffix := key[open+1 : len(key)-1]
	if op, ok := suffixOps[suffix]; ok {
		return key[:open], op
	}
	return key, OpEq
}

func (s Spec) sortStage(values url.Values) Spec {
	raw := values.Get("sort")
	if raw == "" {
		s.Sort = append(s.Sort, DefaultSort...)
		return s
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "-") {
			s.Sort = append(s.Sort, Order{Field: part[1:], Desc: true})
		} else {
			s.Sort = append(s.Sort, Order{Field: part})
		}
	}
	return s
}

func (s Spec) limitFields(values url.Values) Spec {
	raw := values.Get("fields")
	if raw == "" {
		return s
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			s.Fields = append(s.Fields, part)
		}
	}
	return s
}

func (s Spec) paginate(values url.Values) Spec {
	s.Page = positiveInt(values.Get("page"), DefaultPage)
	s.Limit = positiveInt(values.Get("limit"), DefaultLimit)
	return s
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
