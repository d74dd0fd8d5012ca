package pipeline

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// FilterToBSON compiles predicates into a find filter. Predicates on
// the same field merge into one operator document, so a [start, end]
// date range becomes {"date": {"$gte": start, "$lte": end}}.
func FilterToBSON(preds []Predicate) bson.M {
	filter := bson.M{}
	for _, p := range preds {
		if p.Op == OpEq {
			filter[p.Field] = p.Value
			continue
		}
		ops, ok := filter[p.Field].(bson.M)
		if !ok {
			ops = bson.M{}
			filter[p.Field] = ops
		}
		ops[string(p.Op)] = p.Value
	}
	return filter
}

// ToMongo compiles typed stages into a driver pipeline.
func ToMongo(stages []Stage) (mongo.Pipeline, error) {
	p := mongo.Pipeline{}
	for _, s := range stages {
		switch st := s.(type) {
		case Match:
			p = append(p, bson.D{{Key: "$match", Value: FilterToBSON(st.Predicates)}})
		case Group:
			doc, err := groupToBSON(st)
			if err != nil {
				return nil, err
			}
			p = append(p, bson.D{{Key: "$group", Value: doc}})
		case Sort:
			dir := 1
			if st.Descending {
				dir = -1
			}
			p = append(p, bson.D{{Key: "$sort", Value: bson.D{{Key: st.Field, Value: dir}}}})
		case Limit:
			p = append(p, bson.D{{Key: "$limit", Value: st.N}})
		case Project:
			p = append(p, bson.D{{Key: "$project", Value: projectToBSON(st)}})
		default:
			return nil, fmt.Errorf("unknown pipeline stage %T", s)
		}
	}
	return p, nil
}

func groupToBSON(g Group) (bson.M, error) {
	doc := bson.M{}
	switch len(g.Keys) {
	case 0:
		doc[GroupID] = nil
	case 1:
		doc[GroupID] = "$" + g.Keys[0]
	default:
		id := bson.M{}
		for _, k := range g.Keys {
			id[keyName(k)] = "$" + k
		}
		doc[GroupID] = id
	}
	for _, a := range g.Accums {
		switch a.Op {
		case AccumCount:
			doc[a.Name] = bson.M{"$sum": 1}
		case AccumSum, AccumAvg, AccumMin, AccumMax, AccumAddToSet:
			doc[a.Name] = bson.M{string(a.Op): "$" + a.Field}
		default:
			return nil, fmt.Errorf("unknown accumulator %q", a.Op)
		}
	}
	return doc, nil
}

func projectToBSON(p Project) bson.M {
	doc := bson.M{GroupID: 1}
	for _, f := range p.Keep {
		doc[f] = 1
	}
	for out, set := range p.SizeOf {
		doc[out] = bson.M{"$size": "$" + set}
	}
	return doc
}
