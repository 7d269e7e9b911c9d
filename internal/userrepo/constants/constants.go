package constants

const (
	// UsersCollection is the table (PostgreSQL) or collection (MongoDB) holding user records.
	UsersCollection = "users"
	// UsersSequence names the id counter of UsersCollection in stores without auto-increment.
	UsersSequence = "users"

	FieldID       = "id"
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldPassword = "password"

	// PostgreSQL unique constraint names, see migrations/00001_create_users.sql.
	UsernameConstraint = "users_username_key"
	EmailConstraint    = "users_email_key"

	// MongoDB unique index names.
	UsernameIndex = "users_username_unique"
	EmailIndex    = "users_email_unique"
	IDIndex       = "users_id_unique"
)
