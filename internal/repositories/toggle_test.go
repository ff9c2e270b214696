package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/anonto42/vidtube/backend/internal/apperr"
	"github.com/anonto42/vidtube/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memEdgeStore keeps edges in a map guarded by a mutex, so each method is one atomic
// conditional write just like the unique-indexed collection.
type memEdgeStore struct {
	mu    sync.Mutex
	edges map[models.EdgeKey]*models.Edge
}

func newMemEdgeStore() *memEdgeStore {
	return &memEdgeStore{edges: make(map[models.EdgeKey]*models.Edge)}
}

func (s *memEdgeStore) deleteEdge(_ context.Context, key models.EdgeKey) (*models.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	edge, ok := s.edges[key]
	if !ok {
		return nil, nil
	}
	delete(s.edges, key)
	return edge, nil
}

func (s *memEdgeStore) insertEdge(_ context.Context, edge *models.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := models.EdgeKey{Actor: edge.Actor, Target: edge.Target, Kind: edge.Kind}
	if _, ok := s.edges[key]; ok {
		return errDuplicateEdge
	}
	s.edges[key] = edge
	return nil
}

func (s *memEdgeStore) has(key models.EdgeKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.edges[key]
	return ok
}

func newKey(kind models.EdgeKind) models.EdgeKey {
	return models.EdgeKey{Actor: primitive.NewObjectID(), Target: primitive.NewObjectID(), Kind: kind}
}

func TestToggleEdge_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemEdgeStore()
	key := newKey(models.EdgeKindVideo)

	added, err := toggleEdge(ctx, store, key)
	require.NoError(t, err)
	assert.True(t, added.Added)
	require.NotNil(t, added.Edge)
	assert.Equal(t, key.Actor, added.Edge.Actor)
	assert.Equal(t, key.Target, added.Edge.Target)
	assert.Equal(t, key.Kind, added.Edge.Kind)
	assert.False(t, added.Edge.ID.IsZero())
	assert.True(t, store.has(key))

	removed, err := toggleEdge(ctx, store, key)
	require.NoError(t, err)
	assert.False(t, removed.Added)
	assert.Equal(t, added.Edge.ID, removed.Edge.ID, "remove reports the prior record")
	assert.False(t, store.has(key))
}

func TestToggleEdge_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := newMemEdgeStore()
	key := newKey(models.EdgeKindVideo)
	other := models.EdgeKey{Actor: key.Actor, Target: key.Target, Kind: models.EdgeKindComment}

	_, err := toggleEdge(ctx, store, key)
	require.NoError(t, err)
	res, err := toggleEdge(ctx, store, other)
	require.NoError(t, err)

	assert.True(t, res.Added)
	assert.True(t, store.has(key))
	assert.True(t, store.has(other))
}

func TestToggleEdge_ConcurrentParity(t *testing.T) {
	for _, n := range []int{1, 2, 7, 16, 33, 64} {
		store := newMemEdgeStore()
		key := newKey(models.EdgeKindChannel)

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			adds     int
			removes  int
			failures int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := toggleEdge(context.Background(), store, key)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err != nil:
					failures++
				case res.Added:
					adds++
				default:
					removes++
				}
			}()
		}
		wg.Wait()

		succeeded := adds + removes
		assert.Equal(t, n, succeeded+failures)
		assert.Equal(t, succeeded%2 == 1, store.has(key), "n=%d: edge present iff successful toggles are odd", n)
		assert.Contains(t, []int{0, 1}, adds-removes, "n=%d", n)
		if failures == 0 {
			assert.Equal(t, n%2 == 1, store.has(key), "n=%d", n)
		}
	}
}

type stubEdgeStore struct {
	deleteErr error
	insertErr error
	deletes   int
	inserts   int
}

func (s *stubEdgeStore) deleteEdge(context.Context, models.EdgeKey) (*models.Edge, error) {
	s.deletes++
	return nil, s.deleteErr
}

func (s *stubEdgeStore) insertEdge(context.Context, *models.Edge) error {
	s.inserts++
	return s.insertErr
}

func TestToggleEdge_StoreFailuresSurface(t *testing.T) {
	boom := apperr.Upstream("Failed to update relationship", errors.New("connection reset"))

	t.Run("delete", func(t *testing.T) {
		store := &stubEdgeStore{deleteErr: boom}
		_, err := toggleEdge(context.Background(), store, newKey(models.EdgeKindTweet))
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 0, store.inserts)
	})

	t.Run("insert", func(t *testing.T) {
		store := &stubEdgeStore{insertErr: boom}
		_, err := toggleEdge(context.Background(), store, newKey(models.EdgeKindTweet))
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 1, store.deletes, "no retry on failed I/O")
	})
}

func TestToggleEdge_PersistentContentionIsConflict(t *testing.T) {
	store := &stubEdgeStore{insertErr: errDuplicateEdge}

	_, err := toggleEdge(context.Background(), store, newKey(models.EdgeKindVideo))

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, maxToggleAttempts, store.inserts)
}
