package chathub

import "tawk/backend/internal/models"

// Client is one live connection of an authenticated user.
type Client interface {
	// GetUserID returns the identity established at the handshake.
	GetUserID() string

	// Send queues ev for delivery. It never blocks and reports false when the
	// event was dropped because the client is closed or its buffer is full.
	Send(ev models.Event) bool

	// Run starts the read and write pumps.
	Run()
	// Close releases the connection. It is safe to call more than once.
	Close()
}
