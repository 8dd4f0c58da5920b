package trove

import (
	"encoding/json"
	"testing"
)

func TestResponse_ArticleRecords(t *testing.T) {
	body := `{"response":{"zone":[{"name":"newspaper","records":{"total":2,"article":[
		{"id":"18341291","heading":"FLOOD AT WINDSOR","date":"1867-06-25","category":"Article",
		 "title":{"id":"35","value":"The Sydney Morning Herald (NSW : 1842 - 1954)"},
		 "snippet":"The river rose","troveUrl":"https://trove.nla.gov.au/ndp/del/article/18341291"},
		{"id":5551,"heading":"NEWS","date":"1901-01-01","title":{"id":12,"value":"The Argus"}}
	]}}]}}`

	var r Response
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.Total() != 2 {
		t.Errorf("Total = %d, want 2", r.Total())
	}
	arts := r.Articles()
	if len(arts) != 2 {
		t.Fatalf("articles = %d, want 2", len(arts))
	}
	a := arts[0]
	if a.ID != "18341291" || a.Heading != "FLOOD AT WINDSOR" || a.Title.Value == "" || a.Snippet == "" {
		t.Errorf("unexpected first article: %+v", a)
	}
	if a.URL() != "http://nla.gov.au/nla.news-article18341291" {
		t.Errorf("URL = %q", a.URL())
	}
	if d, err := a.Published(); err != nil || d.Year() != 1867 {
		t.Errorf("Published = %v, %v", d, err)
	}
	if arts[1].ID != "5551" || arts[1].Title.ID != "12" {
		t.Errorf("numeric ids not normalised: %+v", arts[1])
	}
}

func TestResponse_SingleArticleObject(t *testing.T) {
	body := `{"response":{"zone":{"records":{"total":"1","article":{"id":"7","heading":"ONLY ONE"}}}}}`
	var r Response
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(r.Articles()) != 1 || r.Articles()[0].Heading != "ONLY ONE" {
		t.Errorf("articles = %+v", r.Articles())
	}
}

func TestResponse_MissingFieldsAreZero(t *testing.T) {
	for _, body := range []string{`{}`, `{"response":null}`, `{"response":{"zone":[]}}`, `{"response":{"zone":[{}]}}`} {
		var r Response
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			t.Errorf("%s: decode: %v", body, err)
			continue
		}
		if r.Total() != 0 || len(r.Articles()) != 0 || len(r.FacetTerms("year")) != 0 {
			t.Errorf("%s: expected zero values", body)
		}
	}

	var nilResp *Response
	if nilResp.Total() != 0 {
		t.Error("nil response should count as zero")
	}
}

func TestResponse_BadTotalIsError(t *testing.T) {
	var r Response
	err := json.Unmarshal([]byte(`{"response":{"zone":[{"records":{"total":true}}]}}`), &r)
	if err == nil {
		t.Error("expected error for boolean total")
	}
}

func TestResponse_NegativeTotalClamped(t *testing.T) {
	var r Response
	if err := json.Unmarshal([]byte(`{"response":{"zone":[{"records":{"total":"-5"}}]}}`), &r); err != nil {
		t.Fatal(err)
	}
	if r.Total() != 0 {
		t.Errorf("Total = %d, want 0", r.Total())
	}
}
