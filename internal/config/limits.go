package config

import "time"

const (
	// Hub
	HandlerTimeout   = 10 * time.Second
	PresenceTimeout  = 5 * time.Second
	SendBufferSize   = 64
	IncomingCapacity = 256

	// WebSocket
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	MaxMessageSize = 64 * 1024

	// Calls
	DefaultRingTimeout       = 45 * time.Second
	DefaultRingSweepInterval = 5 * time.Second
)
