package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const RetentionJobInterval = time.Hour

// Default rate limiting
const DefaultRateLimitPerMin = 60

// Messaging limits
const (
	MessageMaxLength     = 4000
	SearchMinTermLength  = 2
	SubjectSearchMaxRows = 5
	SearchMaxRows        = 50
)

// Realtime gateway
const (
	SocketWriteWait       = 10 * time.Second
	SocketPongWait        = 60 * time.Second
	SocketPingPeriod      = (SocketPongWait * 9) / 10
	SocketReadLimit       = 64 * 1024
	SocketSendBuffer      = 128
	SocketEventTimeout    = 5 * time.Second
	GlobalChatPerMinLimit = 30
)

// Lifetime of tokens issued at registration
const AuthTokenTTL = 7 * 24 * time.Hour
