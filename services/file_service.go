package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"filevault/logger"
	"filevault/models"
	"filevault/storage"
	"filevault/utils"
)

const fileColumns = `id, name, type, size, path, folder_id, user_id, upload_date, last_modified`

// maxNameBytes keeps "<unix-millis>_<name>" within the 255-byte path column
// and the usual filesystem name limit.
const maxNameBytes = 200

// UploadInput is one file arriving from a multipart request.
type UploadInput struct {
	Name     string
	Type     string
	FolderID string
	Body     io.Reader
}

// FileService manages file metadata and the blobs behind it. Every query is
// scoped to the caller's user id.
type FileService interface {
	List(ctx context.Context, userID string) ([]models.File, error)
	Get(ctx context.Context, userID, id string) (models.File, error)
	Upload(ctx context.Context, userID string, in UploadInput) (models.File, error)
	Rename(ctx context.Context, userID, id, name string) (models.File, error)
	Move(ctx context.Context, userID, id string, folderID *string) (models.File, error)
	Update(ctx context.Context, userID, id string, name, folderID *string) (models.File, error)
	Delete(ctx context.Context, userID, id string) error
}

type fileService struct {
	db    SQLExecutor
	blobs storage.BlobStore
}

// NewFileService wires a FileService to the pool and the blob store.
func NewFileService(db SQLExecutor, blobs storage.BlobStore) FileService {
	return &fileService{db: db, blobs: blobs}
}

func (s *fileService) List(ctx context.Context, userID string) ([]models.File, error) {
	files := []models.File{}
	err := s.db.SelectContext(ctx, &files,
		`SELECT `+fileColumns+` FROM files WHERE user_id = ? ORDER BY upload_date DESC, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

func (s *fileService) Get(ctx context.Context, userID, id string) (models.File, error) {
	var file models.File
	err := s.db.GetContext(ctx, &file,
		`SELECT `+fileColumns+` FROM files WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.File{}, ErrFileNotFound
	}
	if err != nil {
		return models.File{}, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

// Upload writes the blob first and inserts the row second. If the insert
// fails the blob is removed again, so a failed upload leaves nothing behind.
func (s *fileService) Upload(ctx context.Context, userID string, in UploadInput) (models.File, error) {
	name, err := checkName(utils.CleanFilename(utils.RecoverFilename(in.Name)))
	if err != nil {
		return models.File{}, err
	}

	var folderID *string
	if id := strings.TrimSpace(in.FolderID); id != "" && id != "null" {
		if err := s.ensureFolder(ctx, userID, id); err != nil {
			return models.File{}, err
		}
		folderID = &id
	}

	body, mimeType := detectType(in.Body, in.Type, name)

	storedName, size, err := s.blobs.Save(name, body)
	if errors.Is(err, storage.ErrInvalidName) {
		return models.File{}, ErrNameInvalid
	}
	if err != nil {
		return models.File{}, fmt.Errorf("store blob: %w", err)
	}

	id := utils.GenerateID("file")
	now := utils.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO files (`+fileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, name, mimeType, size, storedName, folderID, userID, now, now,
	)
	if err != nil {
		if rmErr := s.blobs.Remove(storedName); rmErr != nil {
			logger.WithFields(map[string]interface{}{
				"path":  storedName,
				"error": rmErr.Error(),
			}).Error("Failed to remove blob after metadata insert failure")
		}
		return models.File{}, fmt.Errorf("insert file: %w", err)
	}

	return s.Get(ctx, userID, id)
}

func (s *fileService) Rename(ctx context.Context, userID, id, name string) (models.File, error) {
	return s.Update(ctx, userID, id, &name, nil)
}

// Move puts a file into folderID, or back at the top level when folderID is
// nil or empty.
func (s *fileService) Move(ctx context.Context, userID, id string, folderID *string) (models.File, error) {
	if folderID == nil {
		folderID = new(string)
	}
	return s.Update(ctx, userID, id, nil, folderID)
}

// Update renames and/or moves a file. A nil field is left alone; an empty
// folderID moves the file to the top level. Every check runs before the
// single UPDATE, so a rejected request changes nothing.
func (s *fileService) Update(ctx context.Context, userID, id string, name, folderID *string) (models.File, error) {
	if name == nil && folderID == nil {
		return models.File{}, ErrNothingToUpdate
	}

	sets := []string{}
	args := []interface{}{}
	if name != nil {
		clean, err := checkName(*name)
		if err != nil {
			return models.File{}, err
		}
		sets = append(sets, "name = ?")
		args = append(args, clean)
	}

	if _, err := s.Get(ctx, userID, id); err != nil {
		return models.File{}, err
	}

	if folderID != nil {
		var target *string
		if fid := strings.TrimSpace(*folderID); fid != "" {
			if err := s.ensureFolder(ctx, userID, fid); err != nil {
				return models.File{}, err
			}
			target = &fid
		}
		sets = append(sets, "folder_id = ?")
		args = append(args, target)
	}

	sets = append(sets, "last_modified = ?")
	args = append(args, utils.Now(), id, userID)
	_, err := s.db.ExecContext(ctx,
		`UPDATE files SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`,
		args...,
	)
	if err != nil {
		return models.File{}, fmt.Errorf("update file: %w", err)
	}

	return s.Get(ctx, userID, id)
}

// Delete removes the row, then the blob. A blob that fails to unlink is
// logged and left for the reconciler.
func (s *fileService) Delete(ctx context.Context, userID, id string) error {
	file, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM files WHERE id = ? AND user_id = ?`, id, userID,
	); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	if err := s.blobs.Remove(file.Path); err != nil {
		logger.WithFields(map[string]interface{}{
			"file_id": file.ID,
			"path":    file.Path,
			"error":   err.Error(),
		}).Warn("Failed to remove blob of deleted file")
	}
	return nil
}

// checkName trims a display name and rejects blank, over-long or NUL-bearing
// names.
func checkName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	if len(name) > maxNameBytes || strings.ContainsRune(name, 0) {
		return "", ErrNameInvalid
	}
	return name, nil
}

func (s *fileService) ensureFolder(ctx context.Context, userID, folderID string) error {
	var n int
	if err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM folders WHERE id = ? AND user_id = ?`, folderID, userID,
	); err != nil {
		return fmt.Errorf("check folder: %w", err)
	}
	if n == 0 {
		return ErrFolderNotFound
	}
	return nil
}

// detectType keeps the client-declared type when present. Otherwise the
// extension decides, and content sniffing is the last resort.
func detectType(r io.Reader, declared, name string) (io.Reader, string) {
	if declared = strings.TrimSpace(declared); declared != "" {
		return r, declared
	}

	buf := make([]byte, 512)
	n, _ := io.ReadFull(r, buf)
	buf = buf[:n]
	body := io.MultiReader(bytes.NewReader(buf), r)

	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		return body, byExt
	}
	if n > 0 {
		return body, http.DetectContentType(buf)
	}
	return body, "application/octet-stream"
}
