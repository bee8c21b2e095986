package models

import "time"

// File is a row of the files table plus the download URL computed per request.
type File struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Type         string    `db:"type" json:"type"`
	Size         int64     `db:"size" json:"size"`
	Path         string    `db:"path" json:"-"`
	FolderID     *string   `db:"folder_id" json:"folderId"`
	UserID       string    `db:"user_id" json:"userId"`
	UploadDate   time.Time `db:"upload_date" json:"uploadDate"`
	LastModified time.Time `db:"last_modified" json:"lastModified"`
	URL          string    `db:"-" json:"url"`
}

// UpdateFileRequest is the body of PUT /api/files/{id}. At least one field is required.
type UpdateFileRequest struct {
	Name     *string `json:"name,omitempty"`
	FolderID *string `json:"folderId,omitempty"`
}
