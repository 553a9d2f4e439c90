package pubsub_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"social-publisher/infrastructure/pubsub"
)

// TestNewProgressPubSub tests the creation of a new ProgressPubSub
func TestNewProgressPubSub(t *testing.T) {
	// This is a simple test to ensure the function exists and returns an object
	// We can't do much more without mocking the Google Cloud PubSub client
	progressPubSub := pubsub.NewProgressPubSub(nil)
	assert.NotNil(t, progressPubSub)
}
