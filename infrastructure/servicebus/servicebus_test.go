package servicebus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"social-publisher/infrastructure/servicebus"
)

// TestNewProgressServiceBus tests the creation of a new ProgressServicebus
func TestNewProgressServiceBus(t *testing.T) {
	// This is a simple test to ensure the function exists and returns an object
	// We can't do much more without mocking the Azure Service Bus client
	progressServiceBus := servicebus.NewProgressServiceBus(nil, "")
	assert.NotNil(t, progressServiceBus)
}
