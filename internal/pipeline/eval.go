package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/utk-mat/MongoDB-Sales-Analytics/internal/model"
)

// MatchDoc reports whether the document satisfies every predicate.
// A predicate on an unknown field path matches nothing.
func MatchDoc(preds []Predicate, doc *model.OrderDocument) bool {
	for _, p := range preds {
		v, ok := doc.Field(p.Field)
		if !ok {
			return false
		}
		if !matchValue(p.Op, v, p.Value) {
			return false
		}
	}
	return true
}

// Evaluate runs the stages over an in-memory document set, producing
// the same row shape the store backends return for aggregations:
// maps with a GroupID entry plus one entry per accumulator. The
// embedded backends delegate their Aggregate to this.
func Evaluate(stages []Stage, docs []model.OrderDocument) ([]map[string]any, error) {
	work := make([]model.OrderDocument, len(docs))
	copy(work, docs)

	var rows []map[string]any
	grouped := false

	for _, s := range stages {
		switch st := s.(type) {
		case Match:
			if grouped {
				rows = matchRows(st.Predicates, rows)
			} else {
				work = matchDocs(st.Predicates, work)
			}
		case Group:
			if grouped {
				return nil, fmt.Errorf("group stage after group is not supported")
			}
			var err error
			rows, err = groupDocs(st, work)
			if err != nil {
				return nil, err
			}
			grouped = true
		case Sort:
			if grouped {
				sortRows(st, rows)
			} else {
				sortDocs(st, work)
			}
		case Limit:
			if grouped {
				if int64(len(rows)) > st.N {
					rows = rows[:st.N]
				}
			} else {
				if int64(len(work)) > st.N {
					work = work[:st.N]
				}
			}
		case Project:
			if !grouped {
				return nil, fmt.Errorf("project stage is only supported after group")
			}
			rows = projectRows(st, rows)
		default:
			return nil, fmt.Errorf("unknown pipeline stage %T", s)
		}
	}

	if !grouped {
		return nil, fmt.Errorf("pipeline has no group stage; use Find for plain filters")
	}
	return rows, nil
}

func matchDocs(preds []Predicate, docs []model.OrderDocument) []model.OrderDocument {
	out := docs[:0]
	for i := range docs {
		if MatchDoc(preds, &docs[i]) {
			out = append(out, docs[i])
		}
	}
	return out
}

func matchRows(preds []Predicate, rows []map[string]any) []map[string]any {
	out := rows[:0]
	for _, r := range rows {
		keep := true
		for _, p := range preds {
			if !matchValue(p.Op, r[p.Field], p.Value) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, r)
		}
	}
	return out
}

type accumState struct {
	sum      float64
	count    int64
	min, max any
	set      map[string]struct{}
}

func groupDocs(g Group, docs []model.OrderDocument) ([]map[string]any, error) {
	type bucket struct {
		id     any
		states map[string]*accumState
	}
	byKey := map[string]*bucket{}
	var order []string

	for i := range docs {
		doc := &docs[i]
		mapKey, id := groupKey(g.Keys, doc)
		b, ok := byKey[mapKey]
		if !ok {
			b = &bucket{id: id, states: map[string]*accumState{}}
			for _, a := range g.Accums {
				b.states[a.Name] = &accumState{set: map[string]struct{}{}}
			}
			byKey[mapKey] = b
			order = append(order, mapKey)
		}
		for _, a := range g.Accums {
			st := b.states[a.Name]
			if a.Op == AccumCount {
				st.count++
				continue
			}
			v, ok := doc.Field(a.Field)
			if !ok {
				return nil, fmt.Errorf("group accumulator %q: unknown field %q", a.Name, a.Field)
			}
			switch a.Op {
			case AccumSum, AccumAvg:
				f, ok := toFloat(v)
				if !ok {
					return nil, fmt.Errorf("group accumulator %q: non-numeric field %q", a.Name, a.Field)
				}
				st.sum += f
				st.count++
			case AccumMin:
				if st.min == nil || mustCompare(v, st.min) < 0 {
					st.min = v
				}
			case AccumMax:
				if st.max == nil || mustCompare(v, st.max) > 0 {
					st.max = v
				}
			case AccumAddToSet:
				st.set[fmt.Sprint(v)] = struct{}{}
			}
		}
	}

	rows := make([]map[string]any, 0, len(order))
	for _, k := range order {
		b := byKey[k]
		row := map[string]any{GroupID: b.id}
		for _, a := range g.Accums {
			st := b.states[a.Name]
			switch a.Op {
			case AccumSum:
				row[a.Name] = st.sum
			case AccumAvg:
				if st.count == 0 {
					row[a.Name] = float64(0)
				} else {
					row[a.Name] = st.sum / float64(st.count)
				}
			case AccumCount:
				row[a.Name] = st.count
			case AccumMin:
				row[a.Name] = st.min
			case AccumMax:
				row[a.Name] = st.max
			case AccumAddToSet:
				members := make([]string, 0, len(st.set))
				for m := range st.set {
					members = append(members, m)
				}
				sort.Strings(members)
				row[a.Name] = members
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// groupKey builds the bucket map key and the emitted identifier for a
// document: nil for a global group, the raw value for one key, and a
// short-name map for composite keys.
func groupKey(keys []string, doc *model.OrderDocument) (string, any) {
	switch len(keys) {
	case 0:
		return "", nil
	case 1:
		v, _ := doc.Field(keys[0])
		return fmt.Sprint(v), v
	default:
		id := map[string]any{}
		mapKey := ""
		for _, k := range keys {
			v, _ := doc.Field(k)
			id[keyName(k)] = v
			mapKey += fmt.Sprint(v) + "\x1f"
		}
		return mapKey, id
	}
}

func sortDocs(s Sort, docs []model.OrderDocument) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, _ := docs[i].Field(s.Field)
		b, _ := docs[j].Field(s.Field)
		c := mustCompare(a, b)
		if s.Descending {
			return c > 0
		}
		return c < 0
	})
}

func sortRows(s Sort, rows []map[string]any) {
	sort.SliceStable(rows, func(i, j int) bool {
		c := mustCompare(rows[i][s.Field], rows[j][s.Field])
		if s.Descending {
			return c > 0
		}
		return c < 0
	})
}

func projectRows(p Project, rows []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		row := map[string]any{GroupID: r[GroupID]}
		for _, f := range p.Keep {
			if v, ok := r[f]; ok {
				row[f] = v
			}
		}
		for outName, set := range p.SizeOf {
			if members, ok := r[set].([]string); ok {
				row[outName] = int64(len(members))
			}
		}
		out = append(out, row)
	}
	return out
}

func matchValue(op Op, have, want any) bool {
	c, ok := compare(have, want)
	if !ok {
		return false
	}
	switch op {
	case OpEq:
		return c == 0
	case OpNe:
		return c != 0
	case OpGt:
		return c > 0
	case OpGte:
		return c >= 0
	case OpLt:
		return c < 0
	case OpLte:
		return c <= 0
	default:
		return false
	}
}

// compare orders two values of compatible kinds: numbers are coerced
// to float64, times compare chronologically, strings ordinally.
func compare(a, b any) (int, bool) {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case at.Before(bt):
			return -1, true
		case at.After(bt):
			return 1, true
		default:
			return 0, true
		}
	}
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case as < bs:
			return -1, true
		case as > bs:
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}

// mustCompare treats incomparable values as equal so sorts stay total.
func mustCompare(a, b any) int {
	c, ok := compare(a, b)
	if !ok {
		return 0
	}
	return c
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
