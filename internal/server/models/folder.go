package models

import "time"

// Folder is a node in a user's folder tree. ParentID is nil for root-level
// folders; when set it must reference a folder owned by the same user, which
// the schema enforces alongside the application-level check.
type Folder struct {
	ID        string
	Name      string
	UserID    string
	ParentID  *string
	CreatedAt time.Time
}

// Breadcrumb is one element of the ancestor path from a tree root down to a
// folder, inclusive.
type Breadcrumb struct {
	ID   string
	Name string
}
