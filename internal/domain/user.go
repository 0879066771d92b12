package domain

import "time"

// User is an operator account. Password is always a hash; the plaintext
// never reaches this layer once http.handler has consumed the login request.
type User struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	Password string    `json:"-"`
	Roles    []string  `json:"roles"`
	Active   bool      `json:"active"`
	Created  time.Time `json:"created"`
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
