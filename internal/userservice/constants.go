package userservice

const (
	// Messages returned to clients, verbatim.
	MsgPasswordRequired = "Password cannot be empty or null" // #nosec G101
	MsgUsernameInUse    = "Username is already in use"
	MsgEmailInUse       = "User email is already in use"
	MsgPasswordTooLong  = "Password cannot be longer than 72 bytes" // #nosec G101

	// Error messages for user service operations
	ErrFailedToHashPassword = "failed to hash password" // #nosec G101
	ErrFailedToRegisterUser = "failed to register user"
	ErrRetrievingUser       = "error retrieving user"
	ErrUserNotFound         = "user not found"
	ErrInvalidPassword      = "invalid password"
)
