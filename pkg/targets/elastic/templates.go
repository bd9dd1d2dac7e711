package elastic

import (
	"encoding/json"

	"github.com/searchbench/searchbench/pkg/query"
)

// Render produces the Elasticsearch search body for one query type. All three
// bodies request score ordering, which the ParadeDB phrase template omits;
// query.ParityReport surfaces that divergence.
func Render(t *query.Type, args []string) []byte {
	var q map[string]interface{}
	switch t.ID {
	case 2:
		q = map[string]interface{}{"match_phrase": map[string]interface{}{"content": args[0]}}
	case 3:
		q = map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					map[string]interface{}{"match": map[string]interface{}{"content": args[0]}},
					map[string]interface{}{"match": map[string]interface{}{"content": args[1]}},
				},
			},
		}
	default:
		q = map[string]interface{}{"match": map[string]interface{}{"content": args[0]}}
	}
	body := map[string]interface{}{
		"query":   q,
		"size":    t.Limit,
		"_source": []string{"title"},
		"sort":    []interface{}{map[string]string{"_score": "desc"}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		// The body is built from plain maps and strings; this cannot fail.
		panic(err)
	}
	return payload
}

func Traits() map[int]query.TemplateTraits {
	return map[int]query.TemplateTraits{
		1: {OrderedByScore: true},
		2: {OrderedByScore: true},
		3: {OrderedByScore: true, OptionalClauses: true},
	}
}
