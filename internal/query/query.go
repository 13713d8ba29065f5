// Package query turns query-string parameters into parameterized GORM
// conditions. Only keys registered in a Spec reach SQL, and values are
// always bound as arguments.
package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"room_rental/internal/apperr"

	"gorm.io/gorm"
)

// Kind is the type a filter value is parsed as.
type Kind int

const (
	String Kind = iota
	Int
	Float
	Bool
)

// Filter maps one query-string key to a SQL fragment. Every '?' in Clause
// receives the parsed value, after Transform when set.
type Filter struct {
	Key       string
	Kind      Kind
	Default   string
	Clause    string
	Transform func(any) any
}

// Spec is the allow-list of filters and orderings of one listing.
type Spec struct {
	Filters      []Filter
	Sorts        map[string]string
	DefaultSort  string
	DefaultLimit int
}

// Where applies every present filter to tx. Invalid values are collected
// and returned as one VALIDATION_ERROR naming the offending keys.
func (s Spec) Where(tx *gorm.DB, values url.Values) (*gorm.DB, error) {
	var invalid []string
	for _, f := range s.Filters {
		raw := strings.TrimSpace(values.Get(f.Key))
		if raw == "" {
			raw = f.Default
		}
		if raw == "" {
			continue
		}
		v, err := parse(f.Kind, raw)
		if err != nil {
			invalid = append(invalid, f.Key)
			continue
		}
		if f.Transform != nil {
			v = f.Transform(v)
		}
		n := strings.Count(f.Clause, "?")
		args := make([]any, n)
		for i := range args {
			args[i] = v
		}
		tx = tx.Where(f.Clause, args...)
	}
	if len(invalid) > 0 {
		return tx, apperr.Validation(invalid...)
	}
	return tx, nil
}

// Order resolves a sort name through the allow-list, falling back to the default.
func (s Spec) Order(name string) string {
	if clause, ok := s.Sorts[name]; ok {
		return clause
	}
	return s.Sorts[s.DefaultSort]
}

func parse(kind Kind, raw string) (any, error) {
	switch kind {
	case Int:
		return strconv.Atoi(raw)
	case Float:
		return strconv.ParseFloat(raw, 64)
	case Bool:
		return strconv.ParseBool(raw)
	default:
		return raw, nil
	}
}

// Like wraps a string value for a case-insensitive LIKE.
func Like(v any) any {
	return "%" + strings.ToLower(v.(string)) + "%"
}

// Lower lowercases a string value.
func Lower(v any) any {
	return strings.ToLower(v.(string))
}

// MaxLimit caps every page size. MaxPage keeps Offset from overflowing.
const (
	MaxLimit = 100
	MaxPage  = math.MaxInt / MaxLimit
)

// Page is a resolved page/limit pair.
type Page struct {
	Page  int
	Limit int
}

// ParsePage reads page and limit, falling back to defaults on missing or
// invalid input. Limit is capped at MaxLimit and page at MaxPage.
func ParsePage(values url.Values, defaultLimit int) Page {
	p := Page{Page: 1, Limit: defaultLimit}
	if v, err := strconv.Atoi(values.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(values.Get("limit")); err == nil && v > 0 {
		p.Limit = v
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	return p
}

func (p Page) Offset() int { return (p.Page - 1) * p.Limit }

// TotalPages is the number of pages needed for total rows.
func (p Page) TotalPages(total int64) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}
