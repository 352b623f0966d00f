// Package models defines the client-side records persisted in the local
// store and mirrored (except AppState) in the remote store.
package models

import "time"

// Session is one recorded interval of focused work on a topic.
//
// A session is open while EndTime is nil; Duration is authoritative only once
// EndTime is set. RemoteID is zero until the row has been linked to its remote
// counterpart by a sync pass. Deleted rows are tombstones kept for sync.
type Session struct {
	ID        int64
	RemoteID  int64
	UserID    string
	Topic     string
	Tag       string
	FolderID  *int64
	StartTime time.Time
	EndTime   *time.Time
	Duration  int64 // seconds, floor((end-start)/1s)
	Deleted   bool
	UpdatedAt time.Time
}

// Open reports whether the session has not been closed yet.
func (s *Session) Open() bool { return s.EndTime == nil }

// Linked reports whether the session is linked to a remote row.
func (s *Session) Linked() bool { return s.RemoteID != 0 }
