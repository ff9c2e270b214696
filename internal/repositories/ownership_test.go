package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundMessage(t *testing.T) {
	tests := map[string]string{
		"video":        "Video not found",
		"comment":      "Comment not found",
		"notification": "Notification not found",
		"":             " not found",
		"Tweet":        "Tweet not found",
	}
	for noun, want := range tests {
		assert.Equal(t, want, notFound(noun).Message, noun)
	}
}
