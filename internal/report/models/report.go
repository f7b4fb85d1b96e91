package models

import "time"

// ErrorReport is a free-text correction request filed by a registered guest.
// Reports are never edited or deleted.
type ErrorReport struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name,omitempty"`
	Lastname    string    `json:"lastname,omitempty"`
	Email       string    `json:"-"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"-"`
}

// ReportRequest is the body of POST /report-error. Name and lastname are
// optional.
type ReportRequest struct {
	Name        string `json:"name"`
	Lastname    string `json:"lastname"`
	Email       string `json:"email"`
	Description string `json:"description"`
}
