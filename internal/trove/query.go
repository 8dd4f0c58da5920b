package trove

import (
	"net/url"
	"sort"
)

// DefaultZone is the Trove zone searched when none is given.
const DefaultZone = "newspaper"

// FilterPrefix is prepended to facet names to form limit parameters (l-year).
const FilterPrefix = "l-"

// Query is an immutable set of search parameters. Every With method returns
// a modified copy, so a query handed to a count request can never be
// changed by a later fetch.
type Query struct {
	term     string
	zone     string
	required map[string][]string
	facets   map[string]string
	order    []string
}

// NewQuery builds a query from a full-text term and the caller's required
// filters. A filter may carry several values; each becomes its own
// repeated l-<name> parameter.
func NewQuery(term string, required map[string][]string) Query {
	q := Query{term: term, zone: DefaultZone}
	if len(required) > 0 {
		q.required = make(map[string][]string, len(required))
		for name, values := range required {
			if len(values) == 0 {
				continue
			}
			q.required[name] = append([]string(nil), values...)
		}
	}
	return q
}

func (q Query) Term() string { return q.term }
func (q Query) Zone() string { return q.zone }

func (q Query) WithTerm(term string) Query {
	q.term = term
	return q
}

func (q Query) WithZone(zone string) Query {
	if zone != "" {
		q.zone = zone
	}
	return q
}

// WithFacet constrains facet to value. Applying a facet that is already set
// replaces its value and keeps its original position.
func (q Query) WithFacet(facet, value string) Query {
	facets := make(map[string]string, len(q.facets)+1)
	for k, v := range q.facets {
		facets[k] = v
	}
	order := q.order
	if _, ok := facets[facet]; !ok {
		order = append(append([]string(nil), q.order...), facet)
	}
	facets[facet] = value
	q.facets = facets
	q.order = order
	return q
}

func (q Query) Facet(facet string) (string, bool) {
	v, ok := q.facets[facet]
	return v, ok
}

// AppliedFacets returns facet names in the order they were applied.
func (q Query) AppliedFacets() []string {
	return append([]string(nil), q.order...)
}

// Constrains reports whether name is already a required filter or an applied facet.
func (q Query) Constrains(name string) bool {
	if _, ok := q.required[name]; ok {
		return true
	}
	_, ok := q.facets[name]
	return ok
}

// Values serializes the query. Connection parameters (key, n, encoding) are
// added by the client.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.term != "" {
		v.Set("q", q.term)
	}
	zone := q.zone
	if zone == "" {
		zone = DefaultZone
	}
	v.Set("zone", zone)

	names := make([]string, 0, len(q.required))
	for name := range q.required {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, value := range q.required[name] {
			v.Add(FilterPrefix+name, value)
		}
	}
	for _, name := range q.order {
		v.Add(FilterPrefix+name, q.facets[name])
	}
	return v
}
