package server

const (
	ErrDuplicateRoute         = "route already registered"
	ErrNilHandler             = "nil handler"
	ErrFailedToStartServer    = "failed to start server"
	ErrFailedToShutdownServer = "failed to shut down server"
)
