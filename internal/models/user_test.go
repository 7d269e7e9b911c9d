package models

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestNewUser(t *testing.T) {
	type args struct {
		username string
		email    string
		password string
	}
	tests := []struct {
		name string
		args args
		want *User
	}{
		{
			name: "Create new user with valid username, email and password",
			args: args{
				username: "testuser",
				email:    "testuser@example.com",
				password: "encodedPassword123",
			},
			want: &User{
				ID:       0, // assigned by the store
				Email:    "testuser@example.com",
				Username: "testuser",
				Password: "encodedPassword123",
			},
		},
		{
			name: "Create new user with empty fields",
			args: args{},
			want: &User{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewUser(tt.args.username, tt.args.email, tt.args.password); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NewUser() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUser_JSONOmitsPassword(t *testing.T) {
	user := NewUser("testuser", "testuser@example.com", "$2a$10$hash")
	user.ID = 7

	out, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if strings.Contains(string(out), "password") || strings.Contains(string(out), "$2a$10$hash") {
		t.Errorf("json.Marshal() leaked password: %s", out)
	}
}
