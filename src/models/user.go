package models

import (
	"time"
)

type User struct {
	ID int `db:"id"`

	Username string `db:"username"`
	Password string `db:"password"`
	Email    string `db:"email"`

	DateJoined time.Time  `db:"date_joined"`
	LastLogin  *time.Time `db:"last_login"`

	IsAdmin bool `db:"is_admin"`
}

// Users with the writer role, as shown on the admin writer list.
type Writer struct {
	Username  string    `db:"username"`
	DateAdded time.Time `db:"date_added"`
}
