package models

import "time"

// User represents a registered API user
type User struct {
	ID              int64      `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	Token           *string    `json:"-"`
	TokenExpiration *time.Time `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
}

// POI represents a named point of interest
type POI struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Details   string    `json:"details"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
