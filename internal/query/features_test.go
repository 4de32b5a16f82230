package query

import (
	"net/url"
	"testing"

	qs "github.com/google/go-querystring/query"
)

func mustValues(t *testing.T, opts any) url.Values {
	t.Helper()
	v, err := qs.Values(opts)
	if err != nil {
		t.Fatalf("encode query: %v", err)
	}
	return v
}

func TestFilterComparisonSuffixes(t *testing.T) {
	type opts struct {
		PriceGte int    `url:"price[gte]"`
		PriceLte int    `url:"price[lte]"`
		Diff     string `url:"difficulty"`
	}
	spec := FromValues(mustValues(t, opts{PriceGte: 500, PriceLte: 1000, Diff: "easy"}))

	want := []Condition{
		{Field: "difficulty", Op: OpEq, Value: "easy"},
		{Field: "price", Op: OpGte, Value: "500"},
		{Field: "price", Op: OpLte, Value: "1000"},
	}
	if len(spec.Conditions) != len(want) {
		t.Fatalf("got %d conditions, want %d: %+v", len(spec.Conditions), len(want), spec.Conditions)
	}
	for i, c := range want {
		if spec.Conditions[i] != c {
			t.Errorf("condition %d = %+v, want %+v", i, spec.Conditions[i], c)
		}
	}
}

func TestFilterSkipsReservedKeys(t *testing.T) {
	spec := FromValues(url.Values{
		"page":   {"3"},
		"sort":   {"price"},
		"limit":  {"5"},
		"fields": {"name"},
	})
	if len(spec.Conditions) != 0 {
		t.Errorf("reserved keys leaked into filter: %+v", spec.Conditions)
	}
}

func TestSortDescendingThenAscending(t *testing.T) {
	spec := FromValues(url.Values{"sort": {"-price,name"}})

	want := []Order{{Field: "price", Desc: true}, {Field: "name"}}
	if len(spec.Sort) != 2 || spec.Sort[0] != want[0] || spec.Sort[1] != want[1] {
		t.Errorf("sort = %+v, want %+v", spec.Sort, want)
	}
}

func TestSortDefaultsToNewestFirst(t *testing.T) {
	spec := FromValues(url.Values{})
	if len(spec.Sort) != 1 || spec.Sort[0].Field != "created_at" || !spec.Sort[0].Desc {
		t.Errorf("default sort = %+v, want created_at desc", spec.Sort)
	}
}

func TestFieldLimiting(t *testing.T) {
	spec := FromValues(url.Values{"fields": {"name, price,duration"}})

	want := []string{"name", "price", "duration"}
	if len(spec.Fields) != len(want) {
		t.Fatalf("fields = %v, want %v", spec.Fields, want)
	}
	for i := range want {
		if spec.Fields[i] != want[i] {
			t.Errorf("fields[%d] = %q, want %q", i, spec.Fields[i], want[i])
		}
	}
}

func TestPaginateDefaultsAndOffset(t *testing.T) {
	spec := FromValues(url.Values{})
	if spec.Page != 1 || spec.Limit != 100 || spec.Offset() != 0 {
		t.Errorf("defaults = page %d limit %d offset %d", spec.Page, spec.Limit, spec.Offset())
	}

	spec = FromValues(url.Values{"page": {"2"}, "limit": {"10"}})
	if spec.Offset() != 10 || spec.Limit != 10 {
		t.Errorf("page 2 limit 10: offset %d limit %d", spec.Offset(), spec.Limit)
	}

	// garbage and non-positive values fall back to defaults
	spec = FromValues(url.Values{"page": {"0"}, "limit": {"nope"}})
	if spec.Page != 1 || spec.Limit != 100 {
		t.Errorf("bad input: page %d limit %d", spec.Page, spec.Limit)
	}
}
