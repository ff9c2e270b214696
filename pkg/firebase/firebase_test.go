package firebase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityFromClaims(t *testing.T) {
	id := identityFromClaims("uid-1", map[string]interface{}{
		"email":   "a@example.com",
		"name":    "Alice",
		"picture": "https://example.com/a.png",
	})
	assert.Equal(t, &Identity{UID: "uid-1", Email: "a@example.com", Name: "Alice", Picture: "https://example.com/a.png"}, id)

	sparse := identityFromClaims("uid-2", map[string]interface{}{"email": 42})
	assert.Equal(t, &Identity{UID: "uid-2"}, sparse)
}

func TestInitFirebase_MissingCredentials(t *testing.T) {
	_, err := InitFirebase(context.Background(), "")
	require.Error(t, err)

	_, err = InitFirebase(context.Background(), t.TempDir()+"/missing.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
