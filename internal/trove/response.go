package trove

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Article is a newspaper article record as returned by the result endpoint.
// It is passed through to publishers unmodified.
type Article struct {
	ID       string `json:"id"`
	Heading  string `json:"heading"`
	Date     string `json:"date"`
	Title    Title  `json:"title"`
	Snippet  string `json:"snippet,omitempty"`
	Category string `json:"category,omitempty"`
	TroveURL string `json:"troveUrl,omitempty"`
}

// Title is the newspaper an article appeared in.
type Title struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// URL is the persistent identifier link for the article.
func (a Article) URL() string {
	return "http://nla.gov.au/nla.news-article" + a.ID
}

// Published parses the YYYY-MM-DD issue date.
func (a Article) Published() (time.Time, error) {
	return time.Parse(time.DateOnly, a.Date)
}

func (a *Article) UnmarshalJSON(data []byte) error {
	type alias Article
	var raw struct {
		alias
		ID flexString `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Article(raw.alias)
	a.ID = string(raw.ID)
	return nil
}

func (t *Title) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    flexString `json:"id"`
		Value string     `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.ID, t.Value = string(raw.ID), raw.Value
	return nil
}

// SearchResult is a total match count plus the page of articles fetched for it.
type SearchResult struct {
	Total    int
	Articles []Article
}

// Response mirrors the parts of the v2 result document the bot reads:
//
//	response.zone[0].records.total
//	response.zone[0].records.article[]
//	response.zone[0].facets.facet.term[].search
//
// Every level is optional.
type Response struct {
	Body struct {
		Zones oneOrMany[zone] `json:"zone"`
	} `json:"response"`
}

type zone struct {
	Name    string `json:"name"`
	Records struct {
		Total    flexInt            `json:"total"`
		Articles oneOrMany[Article] `json:"article"`
	} `json:"records"`
	Facets json.RawMessage `json:"facets"`
}

type facetList struct {
	Facet oneOrMany[facet] `json:"facet"`
}

type facet struct {
	Name string          `json:"name"`
	Term oneOrMany[term] `json:"term"`
}

type term struct {
	Search  flexString `json:"search"`
	Display string     `json:"display"`
	Count   flexInt    `json:"count"`
}

func (r *Response) first() *zone {
	if r == nil || len(r.Body.Zones) == 0 {
		return nil
	}
	return &r.Body.Zones[0]
}

// Total is the match count of the first zone, zero when absent.
func (r *Response) Total() int {
	z := r.first()
	if z == nil {
		return 0
	}
	return int(z.Records.Total)
}

func (r *Response) Articles() []Article {
	z := r.first()
	if z == nil {
		return nil
	}
	return []Article(z.Records.Articles)
}

// FacetTerms returns the search values offered for the named facet. A facets
// block that is missing, empty or not an object yields no terms.
func (r *Response) FacetTerms(name string) []string {
	z := r.first()
	if z == nil || len(bytes.TrimSpace(z.Facets)) == 0 {
		return nil
	}
	var fl facetList
	if err := json.Unmarshal(z.Facets, &fl); err != nil {
		return nil
	}
	var out []string
	for _, f := range fl.Facet {
		if f.Name != "" && f.Name != name {
			continue
		}
		for _, t := range f.Term {
			if s := strings.TrimSpace(string(t.Search)); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// oneOrMany accepts either a JSON array or a single object. The API collapses
// one-element lists into bare objects.
type oneOrMany[T any] []T

func (m *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*m = nil
		return nil
	}
	if data[0] == '[' {
		var list []T
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*m = list
		return nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*m = oneOrMany[T]{one}
	return nil
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = flexString(n.String())
	return nil
}

// flexInt accepts a count encoded as a JSON number or a numeric string.
type flexInt int

func (i *flexInt) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	str := strings.TrimSpace(string(s))
	if str == "" {
		*i = 0
		return nil
	}
	n, err := strconv.Atoi(str)
	if err != nil {
		return fmt.Errorf("count %q is not an integer", str)
	}
	if n < 0 {
		n = 0
	}
	*i = flexInt(n)
	return nil
}
