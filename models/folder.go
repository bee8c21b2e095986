package models

import "time"

// Folder is a row of the folders table. FilesCount is computed, never stored.
type Folder struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	UserID     string    `db:"user_id" json:"userId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	FilesCount int       `db:"files_count" json:"filesCount"`
}

// FolderRequest is the body of folder create and rename.
type FolderRequest struct {
	Name string `json:"name"`
}
