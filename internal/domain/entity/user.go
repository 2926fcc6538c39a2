package entity

import "time"

// Role values for User.Role.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Address is a postal address shared by users and service request locations.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// User is the aggregate root for the identity domain.
// Passwords are stored as bcrypt hashes in Password and never serialized.
type User struct {
	ID            string
	FirstName     string
	LastName      string
	Email         string
	PhoneNumber   string
	Password      string
	Address       Address
	Role          string
	EmailVerified bool
	LastLogin     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
