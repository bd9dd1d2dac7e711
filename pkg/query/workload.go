package query

import (
	"fmt"
	"sort"
)

const (
	errNoTypes      = "workload has no query types"
	errNoRenderer   = "workload has no render function"
	errEmptyListFmt = "query type '%s': substitution list %d is empty"
)

// Type describes one benchmark query shape: a backend-opaque template identified
// by ID, plus the substitution lists its parameters cycle through.
type Type struct {
	ID   int
	Name string

	// Substitution lists. Iteration i substitutes Lists[k][i mod len(Lists[k])]
	// for parameter k. Templates are free to use one list (term and phrase
	// queries) or several (multi-clause queries).
	Lists [][]string

	// Maximum number of result rows the rendered query asks for.
	Limit int
}

// Instance is one rendered query, produced lazily per iteration index and never
// mutated afterwards.
type Instance struct {
	TypeID   int
	TypeName string
	Index    int
	Args     []string
	Payload  []byte
}

// RenderFunc turns a query type and its selected arguments into the
// backend-specific payload (SQL text or an HTTP request body).
type RenderFunc func(t *Type, args []string) []byte

// Workload produces the query instances for a run. It is a pure function of
// its configuration and the iteration index: the same (type, index) pair always
// renders the same instance.
type Workload struct {
	types  []*Type
	render RenderFunc
}

func NewWorkload(types []*Type, render RenderFunc) (*Workload, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf(errNoTypes)
	}
	if render == nil {
		return nil, fmt.Errorf(errNoRenderer)
	}
	for _, t := range types {
		for k, list := range t.Lists {
			if len(list) == 0 {
				return nil, fmt.Errorf(errEmptyListFmt, t.Name, k)
			}
		}
	}
	return &Workload{types: types, render: render}, nil
}

func (w *Workload) Types() []*Type {
	return w.types
}

// Instance renders iteration i of query type t.
func (w *Workload) Instance(t *Type, i int) *Instance {
	args := make([]string, len(t.Lists))
	for k, list := range t.Lists {
		args[k] = list[i%len(list)]
	}
	return &Instance{
		TypeID:   t.ID,
		TypeName: t.Name,
		Index:    i,
		Args:     args,
		Payload:  w.render(t, args),
	}
}

// DefaultTypes returns the stock full-text workload: a simple term search, a
// phrase search, and a two-term disjunction. The lists can be overridden from
// the config file; these are the defaults.
func DefaultTypes() []*Type {
	return []*Type{
		{
			ID:   1,
			Name: "Simple Term Search",
			Lists: [][]string{
				{"data", "information", "system", "service", "request", "report", "analysis", "record"},
			},
			Limit: 10,
		},
		{
			ID:   2,
			Name: "Phrase Search",
			Lists: [][]string{
				{"public data", "service request", "data analysis", "information system", "record management", "data processing", "service delivery", "information access"},
			},
			Limit: 10,
		},
		{
			ID:   3,
			Name: "Complex Query",
			Lists: [][]string{
				{"data", "information", "system", "service", "request", "report", "analysis", "record"},
				{"public", "management", "processing", "delivery", "access", "collection", "storage", "retrieval"},
			},
			Limit: 20,
		},
	}
}

// TemplateTraits captures the observable semantics of one backend's template
// for a query type, as far as cross-backend comparability is concerned.
type TemplateTraits struct {
	// OrderedByScore reports whether the template asks the backend to return
	// rows in relevance order.
	OrderedByScore bool
	// OptionalClauses reports whether multi-clause templates treat clauses as
	// optional (should/OR) rather than required.
	OptionalClauses bool
}

// ParityReport compares two backends' template traits per query type and
// returns one line per divergence. The harness treats templates as opaque;
// this is a configuration-level check only, it never reconciles semantics.
func ParityReport(nameA string, a map[int]TemplateTraits, nameB string, b map[int]TemplateTraits) []string {
	var report []string
	for id, ta := range a {
		tb, ok := b[id]
		if !ok {
			report = append(report, fmt.Sprintf("query type %d: defined for %s but not %s", id, nameA, nameB))
			continue
		}
		if ta.OrderedByScore != tb.OrderedByScore {
			report = append(report, fmt.Sprintf("query type %d: %s ordered by score %v, %s %v", id, nameA, ta.OrderedByScore, nameB, tb.OrderedByScore))
		}
		if ta.OptionalClauses != tb.OptionalClauses {
			report = append(report, fmt.Sprintf("query type %d: %s optional clauses %v, %s %v", id, nameA, ta.OptionalClauses, nameB, tb.OptionalClauses))
		}
	}
	for id := range b {
		if _, ok := a[id]; !ok {
			report = append(report, fmt.Sprintf("query type %d: defined for %s but not %s", id, nameB, nameA))
		}
	}
	sort.Strings(report)
	return report
}
