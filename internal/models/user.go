package models

import "time"

type AccessLevel string

const (
	AccessSimple   AccessLevel = "simple"
	AccessAdvanced AccessLevel = "advanced"
)

func (a AccessLevel) Valid() bool {
	return a == AccessSimple || a == AccessAdvanced
}

type User struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	GoogleID    string      `json:"google_id,omitempty"`
	IsApproved  bool        `json:"is_approved"`
	AccessLevel AccessLevel `json:"access_level"`
	LastLogin   *time.Time  `json:"last_login"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
