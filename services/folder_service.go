package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"filevault/logger"
	"filevault/models"
	"filevault/storage"
	"filevault/utils"

	"github.com/jmoiron/sqlx"
)

// FolderService manages folders. Every query is scoped to the caller's user id.
type FolderService interface {
	List(ctx context.Context, userID string) ([]models.Folder, error)
	Get(ctx context.Context, userID, id string) (models.Folder, error)
	Create(ctx context.Context, userID, name string) (models.Folder, error)
	Rename(ctx context.Context, userID, id, name string) (models.Folder, error)
	Delete(ctx context.Context, userID, id string) (int, error)
}

type folderService struct {
	db    SQLExecutor
	blobs storage.BlobStore
}

// NewFolderService wires a FolderService to the pool and the blob store.
func NewFolderService(db SQLExecutor, blobs storage.BlobStore) FolderService {
	return &folderService{db: db, blobs: blobs}
}

const folderSelect = `SELECT f.id, f.name, f.user_id, f.created_at, COUNT(fi.id) AS files_count
	FROM folders f
	LEFT JOIN files fi ON fi.folder_id = f.id AND fi.user_id = f.user_id`

const folderGroupBy = ` GROUP BY f.id, f.name, f.user_id, f.created_at`

func (s *folderService) List(ctx context.Context, userID string) ([]models.Folder, error) {
	folders := []models.Folder{}
	err := s.db.SelectContext(ctx, &folders,
		folderSelect+` WHERE f.user_id = ?`+folderGroupBy+` ORDER BY f.created_at DESC, f.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return folders, nil
}

func (s *folderService) Get(ctx context.Context, userID, id string) (models.Folder, error) {
	var folder models.Folder
	err := s.db.GetContext(ctx, &folder,
		folderSelect+` WHERE f.id = ? AND f.user_id = ?`+folderGroupBy,
		id, userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Folder{}, ErrFolderNotFound
	}
	if err != nil {
		return models.Folder{}, fmt.Errorf("get folder: %w", err)
	}
	return folder, nil
}

func (s *folderService) Create(ctx context.Context, userID, name string) (models.Folder, error) {
	name, err := checkName(name)
	if err != nil {
		return models.Folder{}, err
	}

	id := utils.GenerateID("folder")
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO folders (id, name, user_id, created_at) VALUES (?, ?, ?, ?)`,
		id, name, userID, utils.Now(),
	)
	if err != nil {
		return models.Folder{}, fmt.Errorf("insert folder: %w", err)
	}

	return s.Get(ctx, userID, id)
}

func (s *folderService) Rename(ctx context.Context, userID, id, name string) (models.Folder, error) {
	name, err := checkName(name)
	if err != nil {
		return models.Folder{}, err
	}

	if _, err := s.Get(ctx, userID, id); err != nil {
		return models.Folder{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE folders SET name = ? WHERE id = ? AND user_id = ?`,
		name, id, userID,
	)
	if err != nil {
		return models.Folder{}, fmt.Errorf("rename folder: %w", err)
	}

	return s.Get(ctx, userID, id)
}

// Delete removes a folder and every file in it. Row deletions commit as one
// transaction; blobs are unlinked afterwards, so a crash in between leaves
// only orphaned blobs for the reconciler, never rows pointing at missing bytes.
func (s *folderService) Delete(ctx context.Context, userID, id string) (int, error) {
	var children []models.File

	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var exists int
		if err := tx.GetContext(ctx, &exists,
			`SELECT COUNT(*) FROM folders WHERE id = ? AND user_id = ?`, id, userID,
		); err != nil {
			return fmt.Errorf("check folder: %w", err)
		}
		if exists == 0 {
			return ErrFolderNotFound
		}

		if err := tx.SelectContext(ctx, &children,
			`SELECT `+fileColumns+` FROM files WHERE folder_id = ? AND user_id = ?`, id, userID,
		); err != nil {
			return fmt.Errorf("list folder files: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM files WHERE folder_id = ? AND user_id = ?`, id, userID,
		); err != nil {
			return fmt.Errorf("delete folder files: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM folders WHERE id = ? AND user_id = ?`, id, userID,
		); err != nil {
			return fmt.Errorf("delete folder: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, file := range children {
		if err := s.blobs.Remove(file.Path); err != nil {
			logger.WithFields(map[string]interface{}{
				"folder_id": id,
				"file_id":   file.ID,
				"path":      file.Path,
				"error":     err.Error(),
			}).Warn("Failed to remove blob of deleted folder file")
		}
	}

	return len(children), nil
}
