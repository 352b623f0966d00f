package models

import "time"

// TopicConfig holds per-(user, topic) settings. A topic is a free-text label
// shared by many sessions; its folder assignment and background policy are
// properties of the label, so they live in exactly one row per (user, topic).
type TopicConfig struct {
	ID              int64
	RemoteID        int64
	UserID          string
	Topic           string
	FolderID        *int64
	AllowBackground bool
	Color           string
	UpdatedAt       time.Time
}

func (tc *TopicConfig) Linked() bool { return tc.RemoteID != 0 }
