package paradedb

import (
	"strings"
	"testing"
	"time"

	"github.com/searchbench/searchbench/pkg/query"
)

func TestRenderTermQuery(t *testing.T) {
	typ := &query.Type{ID: 1, Name: "Simple Term Search", Lists: [][]string{{"data"}}, Limit: 10}
	got := string(Render(typ, []string{"data"}))
	want := `SELECT id, title FROM documents WHERE documents @@@ 'content:data' ORDER BY paradedb.score(documents) DESC LIMIT 10;`
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestRenderPhraseQueryOmitsScoreOrdering(t *testing.T) {
	typ := &query.Type{ID: 2, Name: "Phrase Search", Lists: [][]string{{"public data"}}, Limit: 10}
	got := string(Render(typ, []string{"public data"}))
	if !strings.Contains(got, `'content:"public data"'`) {
		t.Errorf("phrase not quoted: %q", got)
	}
	if strings.Contains(got, "ORDER BY") {
		t.Errorf("phrase template must not order by score: %q", got)
	}
}

func TestRenderComplexQuery(t *testing.T) {
	typ := &query.Type{ID: 3, Name: "Complex Query", Lists: [][]string{{"data"}, {"public"}}, Limit: 20}
	got := string(Render(typ, []string{"data", "public"}))
	if !strings.Contains(got, "'content:data OR content:public'") {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(got, "LIMIT 20") {
		t.Errorf("got %q", got)
	}
}

func TestTraitsDivergeFromScoreOrderedPhrase(t *testing.T) {
	traits := Traits()
	if traits[2].OrderedByScore {
		t.Error("phrase template reports score ordering it does not have")
	}
	if !traits[1].OrderedByScore || !traits[3].OrderedByScore {
		t.Error("term and complex templates are score ordered")
	}
}

func TestParseExecutionTime(t *testing.T) {
	cases := []struct {
		line string
		want time.Duration
		ok   bool
	}{
		{"Execution Time: 1.234 ms", 1234 * time.Microsecond, true},
		{" Execution Time: 250.000 ms", 250 * time.Millisecond, true},
		{"Planning Time: 0.100 ms", 0, false},
		{"Execution Time: garbage", 0, false},
	}
	for _, c := range cases {
		got, ok := parseExecutionTime(c.line)
		if ok != c.ok || got != c.want {
			t.Errorf("parseExecutionTime(%q) = (%v, %v), want (%v, %v)", c.line, got, ok, c.want, c.ok)
		}
	}
}
