// Package models holds the result types the services hand to the HTTP
// layer.
package models

import "time"

// Grant is an issued playback credential.
type Grant struct {
	Token       string
	PlaybackURL string
	VideoID     string
	ExpiresAt   time.Time
}

// GrantValidation is the decoded state of a presented grant.
type GrantValidation struct {
	UserID    string
	VideoID   string
	ExpiresAt time.Time
}

// CreatedContent is the outcome of admin content creation.
type CreatedContent struct {
	VideoID     string
	Locator     string
	UploadID    string
	UploadURL   string
	UploadVerb  string
	UploadHdrs  map[string]string
	UploadUntil time.Time
}

// ContentStatus is the normalized processing state of one item. Progress
// is the vendor's transcode percentage, 0-100.
type ContentStatus struct {
	VideoID         string
	Status          string
	Progress        int32
	DurationSeconds *int32
}

// SweepReport summarizes one scheduled sweep run.
type SweepReport struct {
	Examined int
	Swept    int
	Errors   int
}

// ProgressResult is the outcome of a watch-progress update.
type ProgressResult struct {
	Position int64
	Flagged  bool
}
