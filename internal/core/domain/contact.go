package domain

import "time"

// Contact is a private address-book entry kept by its owner.
// ReportCount is not persisted; it is the live number of spam reports for
// PhoneNumber at read time.
type Contact struct {
	ID           int64
	OwnerID      int64
	Name         string
	PhoneNumber  string
	SpamReported bool
	CreatedAt    time.Time
	ReportCount  int
}

// ContactInput carries client-writable contact fields. Nil fields are left
// untouched on partial updates.
type ContactInput struct {
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phone_number"`
}

// ContactGroup is one distinct (name, phone_number) pair among all contacts
// and how many contact rows share it.
type ContactGroup struct {
	Name        string
	PhoneNumber string
	Count       int
}
