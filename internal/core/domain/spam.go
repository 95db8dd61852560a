package domain

import "time"

// SpamReport records that an account flagged a phone number.
type SpamReport struct {
	ID               int64     `json:"id"`
	ReporterID       int64     `json:"-"`
	ReporterUsername string    `json:"reporter_username"`
	PhoneNumber      string    `json:"phone_number"`
	CreatedAt        time.Time `json:"timestamp"`
}

type SpamReportRequest struct {
	PhoneNumber string `json:"phone_number"`
}
