package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/vidtube/backend/internal/apperr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ownedFilter(id, owner primitive.ObjectID) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "owner", Value: owner}}
}

// updateOwned applies update to the document id only if owner owns it, decoding the
// updated document into out.
func updateOwned(ctx context.Context, coll *mongo.Collection, id, owner primitive.ObjectID, update interface{}, out interface{}, noun string) error {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := coll.FindOneAndUpdate(ctx, ownedFilter(id, owner), update, opts).Decode(out)
	if err == nil {
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.Upstream("Failed to update "+noun, err)
	}
	return ownershipMiss(ctx, coll, id, "update", noun)
}

// deleteOwned removes the document id only if owner owns it, decoding the removed
// document into out.
func deleteOwned(ctx context.Context, coll *mongo.Collection, id, owner primitive.ObjectID, out interface{}, noun string) error {
	err := coll.FindOneAndDelete(ctx, ownedFilter(id, owner)).Decode(out)
	if err == nil {
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.Upstream("Failed to delete "+noun, err)
	}
	return ownershipMiss(ctx, coll, id, "delete", noun)
}

// ownershipMiss tells a missing document from one owned by someone else.
func ownershipMiss(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, verb, noun string) error {
	n, err := coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	if err != nil {
		return apperr.Upstream("Failed to "+verb+" "+noun, err)
	}
	if n == 0 {
		return notFound(noun)
	}
	return apperr.Forbidden("You are not authorized to " + verb + " this " + noun)
}

func notFound(noun string) *apperr.Error {
	return apperr.NotFound(capitalize(noun) + " not found")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}

// findByID decodes the document id into out, mapping a miss to NotFound.
func findByID(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, out interface{}, noun string) error {
	err := coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound(noun)
	}
	if err != nil {
		return apperr.Upstream("Failed to fetch "+noun, err)
	}
	return nil
}

// aggregateAll runs pipeline and decodes every result into out.
func aggregateAll(ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline, out interface{}, noun string) error {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return apperr.Upstream("Failed to list "+noun, err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return apperr.Upstream("Failed to list "+noun, err)
	}
	return nil
}
