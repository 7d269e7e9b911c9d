package models

// User represents an internal user model for the application/database.
// Password always holds the hashed form.
type User struct {
	ID       int64  `json:"id" bson:"id" mapstructure:"id" db:"id"`
	Email    string `json:"email" bson:"email" mapstructure:"email" db:"email"`
	Username string `json:"username" bson:"username" mapstructure:"username" db:"username"`
	Password string `json:"-" bson:"password" mapstructure:"password" db:"password"`
}

// NewUser creates a new User instance with the given username, email and hashed password.
// Note: No validation is performed here and ID is left for the store to assign.
func NewUser(username, email, hashedPassword string) *User {
	return &User{
		Email:    email,
		Username: username,
		Password: hashedPassword,
	}
}
