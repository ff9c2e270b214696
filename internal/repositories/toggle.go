package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/vidtube/backend/internal/apperr"
	"github.com/anonto42/vidtube/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// maxToggleAttempts bounds the delete/insert loop when concurrent toggles on the same
// edge keep interleaving.
const maxToggleAttempts = 8

var errDuplicateEdge = errors.New("edge already exists")

// edgeStore holds relationship edges under a uniqueness constraint on
// (actor, target, kind). Each method is a single conditional write.
type edgeStore interface {
	// deleteEdge removes the edge for key and returns it, or nil when none exists.
	deleteEdge(ctx context.Context, key models.EdgeKey) (*models.Edge, error)
	// insertEdge stores edge, failing with errDuplicateEdge when the key is taken.
	insertEdge(ctx context.Context, edge *models.Edge) error
}

// toggleEdge flips membership of key. Every successful call performs exactly one
// effective write, so N concurrent toggles leave an edge iff N is odd.
func toggleEdge(ctx context.Context, store edgeStore, key models.EdgeKey) (*models.ToggleResult, error) {
	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		removed, err := store.deleteEdge(ctx, key)
		if err != nil {
			return nil, err
		}
		if removed != nil {
			return &models.ToggleResult{Added: false, Edge: removed}, nil
		}

		edge := &models.Edge{
			ID:        primitive.NewObjectID(),
			Actor:     key.Actor,
			Target:    key.Target,
			Kind:      key.Kind,
			CreatedAt: time.Now().UTC(),
		}
		err = store.insertEdge(ctx, edge)
		if err == nil {
			return &models.ToggleResult{Added: true, Edge: edge}, nil
		}
		if !errors.Is(err, errDuplicateEdge) {
			return nil, err
		}
		// another toggle inserted first; its edge is ours to remove
	}
	return nil, apperr.Conflict("Relationship is being changed concurrently, try again")
}

// mongoEdgeStore is an edgeStore over one collection carrying a unique
// (actor, target, kind) index.
type mongoEdgeStore struct {
	collection *mongo.Collection
}

func edgeFilter(key models.EdgeKey) bson.D {
	return bson.D{
		{Key: "actor", Value: key.Actor},
		{Key: "target", Value: key.Target},
		{Key: "kind", Value: key.Kind},
	}
}

func (s mongoEdgeStore) deleteEdge(ctx context.Context, key models.EdgeKey) (*models.Edge, error) {
	var edge models.Edge
	err := s.collection.FindOneAndDelete(ctx, edgeFilter(key)).Decode(&edge)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Upstream("Failed to update relationship", err)
	}
	return &edge, nil
}

func (s mongoEdgeStore) insertEdge(ctx context.Context, edge *models.Edge) error {
	_, err := s.collection.InsertOne(ctx, edge)
	if mongo.IsDuplicateKeyError(err) {
		return errDuplicateEdge
	}
	if err != nil {
		return apperr.Upstream("Failed to update relationship", err)
	}
	return nil
}

func (s mongoEdgeStore) exists(ctx context.Context, key models.EdgeKey) (bool, error) {
	n, err := s.collection.CountDocuments(ctx, edgeFilter(key))
	if err != nil {
		return false, apperr.Upstream("Failed to check relationship", err)
	}
	return n > 0, nil
}
