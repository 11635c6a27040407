// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

const Collection = "users"

// User is an admin account. Every account has full access to the admin API.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"password_hash"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login"`
}
