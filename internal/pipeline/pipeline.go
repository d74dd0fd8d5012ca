package pipeline

import "strings"

// Op is a comparison operator of a field predicate.
type Op string

const (
	OpEq  Op = "$eq"
	OpNe  Op = "$ne"
	OpGt  Op = "$gt"
	OpGte Op = "$gte"
	OpLt  Op = "$lt"
	OpLte Op = "$lte"
)

// Predicate compares a dotted field path with a value.
type Predicate struct {
	Field string
	Op    Op
	Value any
}

func Eq(field string, v any) Predicate  { return Predicate{Field: field, Op: OpEq, Value: v} }
func Gt(field string, v any) Predicate  { return Predicate{Field: field, Op: OpGt, Value: v} }
func Gte(field string, v any) Predicate { return Predicate{Field: field, Op: OpGte, Value: v} }
func Lt(field string, v any) Predicate  { return Predicate{Field: field, Op: OpLt, Value: v} }
func Lte(field string, v any) Predicate { return Predicate{Field: field, Op: OpLte, Value: v} }

// AccumOp is a group-stage accumulator operator.
type AccumOp string

const (
	AccumSum      AccumOp = "$sum"
	AccumAvg      AccumOp = "$avg"
	AccumMin      AccumOp = "$min"
	AccumMax      AccumOp = "$max"
	AccumCount    AccumOp = "count" // $sum of the literal 1
	AccumAddToSet AccumOp = "$addToSet"
)

// Accumulator computes one output value per group. Field is the dotted
// source path; it is unused for AccumCount.
type Accumulator struct {
	Name  string
	Op    AccumOp
	Field string
}

func Sum(name, field string) Accumulator   { return Accumulator{Name: name, Op: AccumSum, Field: field} }
func Avg(name, field string) Accumulator   { return Accumulator{Name: name, Op: AccumAvg, Field: field} }
func Min(name, field string) Accumulator   { return Accumulator{Name: name, Op: AccumMin, Field: field} }
func Max(name, field string) Accumulator   { return Accumulator{Name: name, Op: AccumMax, Field: field} }
func Count(name string) Accumulator        { return Accumulator{Name: name, Op: AccumCount} }
func AddToSet(name, field string) Accumulator {
	return Accumulator{Name: name, Op: AccumAddToSet, Field: field}
}

// Stage is one step of an aggregation pipeline. The set of variants is
// closed: Match, Group, Sort, Limit, Project.
type Stage interface {
	isStage()
}

// Match filters documents by the conjunction of its predicates.
type Match struct {
	Predicates []Predicate
}

// Group buckets documents by one or two key paths and computes the
// accumulators per bucket. With two keys the group identifier is a
// composite of the paths' last segments (e.g. state, category).
type Group struct {
	Keys   []string
	Accums []Accumulator
}

// Sort orders the stream by a single field.
type Sort struct {
	Field      string
	Descending bool
}

// Limit truncates the stream to the first N results.
type Limit struct {
	N int64
}

// Project narrows result rows to Keep plus the size of any
// AddToSet-accumulated sets listed in SizeOf (output name -> set name).
type Project struct {
	Keep   []string
	SizeOf map[string]string
}

func (Match) isStage()   {}
func (Group) isStage()   {}
func (Sort) isStage()    {}
func (Limit) isStage()   {}
func (Project) isStage() {}

// GroupID is the key the group stage emits its identifier under,
// matching the store's convention.
const GroupID = "_id"

// keyName is the short name of a composite group key component: the
// last segment of the dotted path.
func keyName(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}
