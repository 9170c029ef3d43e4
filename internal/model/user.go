package model

import "time"

type Diet string

const (
	DietVeg    Diet = "veg"
	DietNonVeg Diet = "non-veg"
	DietVegan  Diet = "vegan"
)

func (d Diet) Valid() bool {
	switch d {
	case DietVeg, DietNonVeg, DietVegan:
		return true
	}
	return false
}

type User struct {
	ID           int64     `json:"user_id"`
	Username     string    `json:"username"`
	PhoneNumber  string    `json:"phone_number"`
	Email        string    `json:"email"`
	DOB          string    `json:"DOB"`
	Height       float64   `json:"height"`
	Weight       float64   `json:"weight"`
	Diet         Diet      `json:"diet"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile is the public view of a user returned by login and search.
type Profile struct {
	ID          int64   `json:"user_id"`
	Username    string  `json:"username"`
	PhoneNumber string  `json:"phone_number"`
	Email       string  `json:"email"`
	DOB         string  `json:"DOB,omitempty"`
	Height      float64 `json:"height"`
	Weight      float64 `json:"weight"`
	Diet        Diet    `json:"diet"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:          u.ID,
		Username:    u.Username,
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
		DOB:         u.DOB,
		Height:      u.Height,
		Weight:      u.Weight,
		Diet:        u.Diet,
	}
}
