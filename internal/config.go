package internal

import "time"

type Config struct {
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	Host              string        `env:"HOST,default=0.0.0.0"`
	Port              int           `env:"PORT,default=8080"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	EventBufferSize   int           `env:"EVENT_BUFFER_SIZE,default=256"`

	// Client-side reconciliation knobs.
	PendingTimeout time.Duration `env:"PENDING_TIMEOUT,default=10s"`
	DedupeWindow   time.Duration `env:"DEDUPE_WINDOW,default=30s"`

	// Debug inspect page; disabled when 0.
	DebugPort int `env:"DEBUG_PORT,default=0"`
}
