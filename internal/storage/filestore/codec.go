package filestore

import (
	"encoding/json"
	"fmt"
	"strings"

	"hbnb-api/internal/models"
)

const classField = "__class__"

// graph is the whole object set, indexed by kind then id
type graph map[models.Kind]map[string]models.Entity

func newGraph() graph {
	g := make(graph, len(models.Kinds))
	for _, k := range models.Kinds {
		g[k] = make(map[string]models.Entity)
	}
	return g
}

func (g graph) put(e models.Entity) {
	g[e.Kind()][e.Meta().ID] = e
}

func (g graph) has(e models.Entity) bool {
	_, ok := g[e.Kind()][e.Meta().ID]
	return ok
}

func (g graph) remove(e models.Entity) {
	delete(g[e.Kind()], e.Meta().ID)
}

// encodeGraph writes {"<Kind>.<id>": {..., "__class__": "<Kind>"}}
func encodeGraph(g graph) ([]byte, error) {
	out := make(map[string]map[string]json.RawMessage)
	for kind, entities := range g {
		class, _ := json.Marshal(string(kind))
		for id, e := range entities {
			rec, err := models.MarshalRecord(e)
			if err != nil {
				return nil, fmt.Errorf("failed to encode %s.%s: %w", kind, id, err)
			}
			var fields map[string]json.RawMessage
			if err := json.Unmarshal(rec, &fields); err != nil {
				return nil, fmt.Errorf("failed to encode %s.%s: %w", kind, id, err)
			}
			fields[classField] = class
			out[string(kind)+"."+id] = fields
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

func decodeGraph(data []byte) (graph, error) {
	g := newGraph()
	if len(strings.TrimSpace(string(data))) == 0 {
		return g, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}

	for key, rec := range raw {
		name, id, ok := strings.Cut(key, ".")
		if !ok {
			return nil, fmt.Errorf("malformed graph key %q", key)
		}
		kind, ok := models.ParseKind(name)
		if !ok {
			return nil, fmt.Errorf("unknown class %q in graph key %q", name, key)
		}
		e, err := models.UnmarshalRecord(kind, rec)
		if err != nil {
			return nil, err
		}
		if e.Meta().ID == "" {
			e.Meta().ID = id
		}
		g.put(e)
	}
	return g, nil
}
