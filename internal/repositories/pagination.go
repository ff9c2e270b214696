package repositories

import (
	"context"

	"github.com/anonto42/vidtube/backend/internal/apperr"
	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/anonto42/vidtube/backend/internal/query"
	"go.mongodb.org/mongo-driver/mongo"
)

// userJoin exposes the public fields of the user referenced by local under as.
func userJoin(local, as string) query.Join {
	return query.Join{
		From:         usersCollection,
		LocalField:   local,
		ForeignField: "_id",
		As:           as,
		Fields:       models.PublicUserFields,
	}
}

// listPage runs listing's pipeline for f and counts the full match set.
func listPage[T any](ctx context.Context, coll *mongo.Collection, listing query.Listing, f query.Filter, noun string) ([]T, int64, error) {
	pipeline, err := listing.Pipeline(f)
	if err != nil {
		return nil, 0, err
	}

	items := make([]T, 0)
	if err := aggregateAll(ctx, coll, pipeline, &items, noun); err != nil {
		return nil, 0, err
	}

	total, err := countListing(ctx, coll, listing, f)
	if err != nil {
		return nil, 0, apperr.Upstream("Failed to count "+noun, err)
	}
	return items, total, nil
}

func countListing(ctx context.Context, coll *mongo.Collection, listing query.Listing, f query.Filter) (int64, error) {
	if len(f.Joined) == 0 {
		return coll.CountDocuments(ctx, listing.CountFilter(f))
	}

	cursor, err := coll.Aggregate(ctx, listing.CountPipeline(f))
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
