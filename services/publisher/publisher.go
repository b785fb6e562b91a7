package publisher

// Publisher represents a service for publishing freshly normalized deals
type Publisher interface {
	// Publish publishes a message to the deal stream
	Publish(message []byte) error

	// Trim trims the stream to the configured maximum length
	Trim() error

	// Close closes the publisher connection
	Close() error
}
