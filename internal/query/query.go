// Package query turns listing parameters into MongoDB aggregation pipelines.
//
// Every listing runs the same stage order: match, join the owning user, project the
// exposed fields, sort, skip, limit. Identifiers and sort fields are validated before
// any stage is built.
package query

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/anonto42/vidtube/backend/internal/apperr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	DefaultPage  int64 = 1
	DefaultLimit int64 = 10
	MaxLimit     int64 = 100
)

// Page is a 1-based page request.
type Page struct {
	Number int64
	Limit  int64
}

// Skip is the number of documents before this page.
func (p Page) Skip() int64 {
	return (p.Number - 1) * p.Limit
}

// ParsePage coerces raw query values into a page. Missing, malformed or non-positive
// values fall back to the defaults; the limit is capped at MaxLimit.
func ParsePage(page, limit string) Page {
	p := Page{Number: positiveOr(page, DefaultPage), Limit: positiveOr(limit, DefaultLimit)}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func positiveOr(raw string, def int64) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Direction is a sort direction in MongoDB's encoding.
type Direction int

const (
	Asc  Direction = 1
	Desc Direction = -1
)

// Sort orders a listing by one field.
type Sort struct {
	Field     string
	Direction Direction
}

// DefaultSort is newest first.
var DefaultSort = Sort{Field: "createdAt", Direction: Desc}

// ParseSort validates sortBy against the sortable fields. An empty sortBy yields def;
// sortType must be "asc", "desc" or empty (desc).
func ParseSort(sortBy, sortType string, sortable []string, def Sort) (Sort, error) {
	dir := Desc
	switch strings.ToLower(strings.TrimSpace(sortType)) {
	case "", "desc":
	case "asc":
		dir = Asc
	default:
		return Sort{}, apperr.InvalidArgument("sortType must be asc or desc")
	}

	field := strings.TrimSpace(sortBy)
	if field == "" {
		if sortType == "" {
			return def, nil
		}
		return Sort{Field: def.Field, Direction: dir}, nil
	}
	if !slices.Contains(sortable, field) {
		return Sort{}, apperr.InvalidArgument("sortBy must be one of: " + strings.Join(sortable, ", "))
	}
	return Sort{Field: field, Direction: dir}, nil
}

// ParseObjectID validates an identifier parameter named name.
func ParseObjectID(name, raw string) (primitive.ObjectID, error) {
	if raw == "" {
		return primitive.NilObjectID, apperr.InvalidArgument(name + " is required")
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidArgument("invalid " + name)
	}
	return id, nil
}

// Join left-joins one document of another collection and exposes only Fields of it
// (plus its _id) under As.
type Join struct {
	From         string
	LocalField   string
	ForeignField string
	As           string
	Fields       []string
}

func (j Join) stages() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: j.From},
			{Key: "localField", Value: j.LocalField},
			{Key: "foreignField", Value: j.ForeignField},
			{Key: "as", Value: j.As},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: j.As, Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{"$" + j.As, 0}}}},
		}}},
	}
}

// Filter is one listing request.
type Filter struct {
	// Term is matched case-insensitively as a substring of the search fields.
	Term string
	// Owner restricts the listing to one owner when non-zero.
	Owner primitive.ObjectID
	// Match holds extra equality conditions (published flag, parent id, edge kind).
	Match bson.D
	// Joined holds conditions on joined fields, checked after the joins.
	Joined bson.D
	Page  Page
	Sort  Sort
}

// Listing describes how one collection is listed.
type Listing struct {
	SearchFields []string
	OwnerField   string
	Joins        []Join
	// Fields is the projection whitelist of the listed collection; _id is always kept.
	Fields   []string
	Sortable []string
}

// CountFilter is the match predicate of f, usable with CountDocuments.
func (s Listing) CountFilter(f Filter) bson.D {
	match := bson.D{}
	match = append(match, f.Match...)
	if !f.Owner.IsZero() && s.OwnerField != "" {
		match = append(match, bson.E{Key: s.OwnerField, Value: f.Owner})
	}
	if term := strings.TrimSpace(f.Term); term != "" && len(s.SearchFields) > 0 {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
		or := make(bson.A, 0, len(s.SearchFields))
		for _, field := range s.SearchFields {
			or = append(or, bson.D{{Key: field, Value: pattern}})
		}
		match = append(match, bson.E{Key: "$or", Value: or})
	}
	return match
}

// Pipeline builds the aggregation for f. A sort field outside Sortable is rejected.
func (s Listing) Pipeline(f Filter) (mongo.Pipeline, error) {
	sort := f.Sort
	if sort.Field == "" {
		sort = DefaultSort
	}
	if sort.Field != "_id" && !slices.Contains(s.Sortable, sort.Field) {
		return nil, apperr.InvalidArgument("sortBy must be one of: " + strings.Join(s.Sortable, ", "))
	}
	if sort.Direction != Asc {
		sort.Direction = Desc
	}

	page := f.Page
	if page.Number < 1 {
		page.Number = DefaultPage
	}
	if page.Limit < 1 {
		page.Limit = DefaultLimit
	}

	pipeline := mongo.Pipeline{{{Key: "$match", Value: s.CountFilter(f)}}}
	pipeline = append(pipeline, s.joinStages(f)...)
	pipeline = append(pipeline, bson.D{{Key: "$project", Value: s.projection()}})

	order := bson.D{{Key: sort.Field, Value: int(sort.Direction)}}
	if sort.Field != "_id" {
		order = append(order, bson.E{Key: "_id", Value: int(sort.Direction)})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$sort", Value: order}},
		bson.D{{Key: "$skip", Value: page.Skip()}},
		bson.D{{Key: "$limit", Value: page.Limit}},
	)
	return pipeline, nil
}

// CountPipeline counts the documents f selects when f has joined conditions, which
// CountFilter cannot express.
func (s Listing) CountPipeline(f Filter) mongo.Pipeline {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: s.CountFilter(f)}}}
	pipeline = append(pipeline, s.joinStages(f)...)
	return append(pipeline, bson.D{{Key: "$count", Value: "total"}})
}

func (s Listing) joinStages(f Filter) []bson.D {
	var stages []bson.D
	for _, j := range s.Joins {
		stages = append(stages, j.stages()...)
	}
	if len(f.Joined) > 0 {
		stages = append(stages, bson.D{{Key: "$match", Value: f.Joined}})
	}
	return stages
}

func (s Listing) projection() bson.D {
	proj := bson.D{{Key: "_id", Value: 1}}
	for _, field := range s.Fields {
		proj = append(proj, bson.E{Key: field, Value: 1})
	}
	for _, j := range s.Joins {
		proj = append(proj, bson.E{Key: j.As + "._id", Value: 1})
		for _, field := range j.Fields {
			proj = append(proj, bson.E{Key: j.As + "." + field, Value: 1})
		}
	}
	return proj
}
