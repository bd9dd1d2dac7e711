package paradedb

import (
	"fmt"

	"github.com/searchbench/searchbench/pkg/query"
)

// Render produces the ParadeDB SQL for one query type. Templates are opaque to
// the harness; their semantics are a configuration property, checked (not
// reconciled) by query.ParityReport.
func Render(t *query.Type, args []string) []byte {
	switch t.ID {
	case 2:
		return []byte(fmt.Sprintf(
			`SELECT id, title FROM documents WHERE documents @@@ 'content:"%s"' LIMIT %d;`,
			args[0], t.Limit))
	case 3:
		return []byte(fmt.Sprintf(
			`SELECT id, title FROM documents WHERE documents @@@ 'content:%s OR content:%s' ORDER BY paradedb.score(documents) DESC LIMIT %d;`,
			args[0], args[1], t.Limit))
	default:
		return []byte(fmt.Sprintf(
			`SELECT id, title FROM documents WHERE documents @@@ 'content:%s' ORDER BY paradedb.score(documents) DESC LIMIT %d;`,
			args[0], t.Limit))
	}
}

// Traits describes the stock templates for the configuration parity check.
// The phrase search does not ask for score ordering here, unlike the
// Elasticsearch side; that divergence is intentional workload configuration.
func Traits() map[int]query.TemplateTraits {
	return map[int]query.TemplateTraits{
		1: {OrderedByScore: true},
		2: {OrderedByScore: false},
		3: {OrderedByScore: true, OptionalClauses: true},
	}
}
