package entity

import "time"

// User is an entry in the identity directory
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	LarkOpenID string    `json:"lark_open_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Principal is the authenticated actor of a request
type Principal struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}
