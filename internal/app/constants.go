package app

import "time"

const (
	// ShutdownTimeout bounds the graceful shutdown of the HTTP server and the store.
	ShutdownTimeout = 15 * time.Second
	// StartupTimeout bounds connecting to the store and applying its schema.
	StartupTimeout = 30 * time.Second

	ErrFailedToReadConfig      = "failed to read configuration"
	ErrFailedToInitDBClient    = "failed to initialize database client"
	ErrFailedToInitUserRepo    = "failed to initialize user repository"
	ErrFailedToEnsureIndices   = "failed to ensure indices"
	ErrFailedToInitHasher      = "failed to initialize password hasher"
	ErrFailedToInitPrivateKey  = "failed to initialize private key"
	ErrFailedToInitPolicy      = "failed to initialize access policy"
	ErrFailedToAddRoute        = "failed to add route"
	ErrFormLoginRequired       = "access policy must configure form_login"
	ErrUnsupportedDatabaseType = "unsupported database type"
	ErrFailedToCloseUserRepo   = "failed to close user repository"
	ErrFailedToShutdownServer  = "failed to shut down server"
	ErrMissingDatabaseSettings = "missing database settings"
)
