package elastic

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/searchbench/searchbench/pkg/query"
)

func decode(t *testing.T, payload []byte) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	return body
}

func TestRenderTermQuery(t *testing.T) {
	typ := &query.Type{ID: 1, Name: "Simple Term Search", Lists: [][]string{{"data"}}, Limit: 10}
	body := decode(t, Render(typ, []string{"data"}))

	want := map[string]interface{}{
		"query":   map[string]interface{}{"match": map[string]interface{}{"content": "data"}},
		"size":    float64(10),
		"_source": []interface{}{"title"},
		"sort":    []interface{}{map[string]interface{}{"_score": "desc"}},
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("unexpected body (-want +got):\n%s", diff)
	}
}

func TestRenderPhraseQuery(t *testing.T) {
	typ := &query.Type{ID: 2, Name: "Phrase Search", Lists: [][]string{{"public data"}}, Limit: 10}
	body := decode(t, Render(typ, []string{"public data"}))

	q := body["query"].(map[string]interface{})
	if _, ok := q["match_phrase"]; !ok {
		t.Errorf("expected match_phrase query, got %v", q)
	}
	if _, ok := body["sort"]; !ok {
		t.Error("phrase body requests score ordering here, unlike the SQL side")
	}
}

func TestRenderComplexQuery(t *testing.T) {
	typ := &query.Type{ID: 3, Name: "Complex Query", Lists: [][]string{{"data"}, {"public"}}, Limit: 20}
	body := decode(t, Render(typ, []string{"data", "public"}))

	q := body["query"].(map[string]interface{})
	boolQ, ok := q["bool"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected bool query, got %v", q)
	}
	should, ok := boolQ["should"].([]interface{})
	if !ok || len(should) != 2 {
		t.Fatalf("expected two should clauses, got %v", boolQ)
	}
	if body["size"] != float64(20) {
		t.Errorf("got size %v, want 20", body["size"])
	}
}

func TestRenderDeterministic(t *testing.T) {
	typ := &query.Type{ID: 3, Name: "Complex Query", Lists: [][]string{{"data"}, {"public"}}, Limit: 20}
	a := Render(typ, []string{"data", "public"})
	b := Render(typ, []string{"data", "public"})
	if string(a) != string(b) {
		t.Errorf("rendering is not deterministic: %q vs %q", a, b)
	}
}
