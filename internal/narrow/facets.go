package narrow

// DefaultFacets is the narrowing priority. The catalog is used as a stack, so
// title is tried first and month last.
var DefaultFacets = []string{"month", "year", "decade", "word", "illustrated", "category", "title"}

// FacetCatalog holds the facets still eligible for narrowing in one
// invocation. It is never shared between invocations.
type FacetCatalog struct {
	names []string
}

// NewFacetCatalog copies names, dropping any that are already constrained by
// a required filter.
func NewFacetCatalog(names []string, exclude map[string][]string) *FacetCatalog {
	c := &FacetCatalog{names: make([]string, 0, len(names))}
	for _, n := range names {
		if _, skip := exclude[n]; skip {
			continue
		}
		c.names = append(c.names, n)
	}
	return c
}

// Pop removes and returns the last facet.
func (c *FacetCatalog) Pop() (string, bool) {
	if len(c.names) == 0 {
		return "", false
	}
	last := c.names[len(c.names)-1]
	c.names = c.names[:len(c.names)-1]
	return last, true
}

func (c *FacetCatalog) Len() int { return len(c.names) }

func (c *FacetCatalog) Names() []string {
	return append([]string(nil), c.names...)
}
