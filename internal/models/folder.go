package models

import "time"

// Folder is a named, colored grouping of topics. Deleting a folder is a soft
// delete that detaches any TopicConfig pointing at it; sessions are never
// deleted by a folder delete.
type Folder struct {
	ID        int64
	RemoteID  int64
	UserID    string
	Name      string
	Color     string
	Icon      string
	Deleted   bool
	UpdatedAt time.Time
}

func (f *Folder) Linked() bool { return f.RemoteID != 0 }
