package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"filevault/config"
	"filevault/database"
	"filevault/storage"

	"github.com/jmoiron/sqlx"
)

type testEnv struct {
	db      *sqlx.DB
	blobs   *storage.LocalStore
	files   FileService
	folders FolderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := database.Open(config.Database{
		Driver:       config.DriverSQLite,
		Path:         filepath.Join(dir, "meta.db"),
		MaxOpenConns: 4,
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	blobs, err := storage.NewLocalStore(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}

	return &testEnv{
		db:      db,
		blobs:   blobs,
		files:   NewFileService(db, blobs),
		folders: NewFolderService(db, blobs),
	}
}

func (e *testEnv) upload(t *testing.T, userID, name, content, folderID string) string {
	t.Helper()
	f, err := e.files.Upload(context.Background(), userID, UploadInput{
		Name:     name,
		Type:     "text/plain",
		FolderID: folderID,
		Body:     strings.NewReader(content),
	})
	if err != nil {
		t.Fatalf("upload %s: %v", name, err)
	}
	return f.ID
}

func (e *testEnv) blobExists(name string) bool {
	_, err := os.Stat(filepath.Join(e.blobs.BaseDir(), name))
	return err == nil
}

func TestFolderListCountsCallerFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	docs, err := env.folders.Create(ctx, "alice", "Docs")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	empty, err := env.folders.Create(ctx, "alice", "Empty")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.folders.Create(ctx, "bob", "Bob's"); err != nil {
		t.Fatalf("create: %v", err)
	}

	env.upload(t, "alice", "a.txt", "a", docs.ID)
	env.upload(t, "alice", "b.txt", "b", docs.ID)
	env.upload(t, "alice", "loose.txt", "c", "")

	folders, err := env.folders.List(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(folders) != 2 {
		t.Fatalf("alice sees %d folders, want 2", len(folders))
	}

	counts := map[string]int{}
	for _, f := range folders {
		if f.UserID != "alice" {
			t.Errorf("folder %s owned by %s leaked", f.ID, f.UserID)
		}
		counts[f.ID] = f.FilesCount
	}
	if counts[docs.ID] != 2 || counts[empty.ID] != 0 {
		t.Errorf("counts = %v", counts)
	}
}

func TestFolderCreateAndRenameValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.folders.Create(ctx, "alice", "   "); !errors.Is(err, ErrNameRequired) {
		t.Errorf("blank create err = %v", err)
	}

	folder, err := env.folders.Create(ctx, "alice", "  Receipts ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if folder.Name != "Receipts" || folder.UserID != "alice" || folder.FilesCount != 0 || folder.CreatedAt.IsZero() {
		t.Errorf("created folder = %+v", folder)
	}
	if !strings.HasPrefix(folder.ID, "folder_") {
		t.Errorf("folder id = %q", folder.ID)
	}

	if _, err := env.folders.Rename(ctx, "alice", folder.ID, ""); !errors.Is(err, ErrNameRequired) {
		t.Errorf("blank rename err = %v", err)
	}
	if _, err := env.folders.Rename(ctx, "bob", folder.ID, "Stolen"); !errors.Is(err, ErrFolderNotFound) {
		t.Errorf("foreign rename err = %v", err)
	}

	renamed, err := env.folders.Rename(ctx, "alice", folder.ID, "Taxes")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.Name != "Taxes" || !renamed.CreatedAt.Equal(folder.CreatedAt) {
		t.Errorf("renamed = %+v", renamed)
	}
}

func TestFolderDeleteCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	folder, _ := env.folders.Create(ctx, "alice", "Trip")
	keep, _ := env.folders.Create(ctx, "alice", "Keep")

	var paths []string
	for _, name := range []string{"1.jpg", "2.jpg", "3.jpg"} {
		id := env.upload(t, "alice", name, "img-"+name, folder.ID)
		f, _ := env.files.Get(ctx, "alice", id)
		paths = append(paths, f.Path)
	}
	keptID := env.upload(t, "alice", "keep.txt", "k", keep.ID)

	// A blob that is already gone must not fail the delete.
	os.Remove(filepath.Join(env.blobs.BaseDir(), paths[0]))

	if _, err := env.folders.Delete(ctx, "bob", folder.ID); !errors.Is(err, ErrFolderNotFound) {
		t.Fatalf("foreign delete err = %v", err)
	}

	removed, err := env.folders.Delete(ctx, "alice", folder.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}

	for _, p := range paths {
		if env.blobExists(p) {
			t.Errorf("blob %s still on disk", p)
		}
	}

	var rows int
	env.db.Get(&rows, "SELECT COUNT(*) FROM files WHERE folder_id = ?", folder.ID)
	if rows != 0 {
		t.Errorf("%d file rows left in deleted folder", rows)
	}
	if _, err := env.folders.Get(ctx, "alice", folder.ID); !errors.Is(err, ErrFolderNotFound) {
		t.Errorf("folder still present: %v", err)
	}

	if _, err := env.files.Get(ctx, "alice", keptID); err != nil {
		t.Errorf("file in other folder lost: %v", err)
	}

	if _, err := env.folders.Delete(ctx, "alice", folder.ID); !errors.Is(err, ErrFolderNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestUploadThenGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	uploaded, err := env.files.Upload(ctx, "alice", UploadInput{
		Name: "notes.md",
		Type: "text/markdown",
		Body: strings.NewReader("# hello\n"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	got, err := env.files.Get(ctx, "alice", uploaded.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "notes.md" || got.Type != "text/markdown" || got.Size != 8 {
		t.Errorf("got = %+v", got)
	}
	if got.FolderID != nil {
		t.Errorf("folder id = %v, want nil", *got.FolderID)
	}
	if !strings.HasSuffix(got.Path, "_notes.md") {
		t.Errorf("path = %q", got.Path)
	}

	f, err := env.blobs.Open(got.Path)
	if err != nil {
		t.Fatalf("open blob: %v", err)
	}
	defer f.Close()
	data, _ := io.ReadAll(f)
	if string(data) != "# hello\n" {
		t.Errorf("blob content = %q", data)
	}

	if _, err := env.files.Get(ctx, "bob", uploaded.ID); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("foreign get err = %v", err)
	}
}

func TestUploadDetectsTypeAndRecoversName(t *testing.T) {
	env := newTestEnv(t)

	f, err := env.files.Upload(context.Background(), "alice", UploadInput{
		Name: "æ\u0096\u0087ä»¶.pdf",
		Body: strings.NewReader("%PDF-1.4"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if f.Name != "文件.pdf" {
		t.Errorf("name = %q", f.Name)
	}
	if f.Type != "application/pdf" {
		t.Errorf("type = %q", f.Type)
	}

	blob, err := env.files.Upload(context.Background(), "alice", UploadInput{
		Name: "blob",
		Body: strings.NewReader("\x00\x01\x02"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if blob.Type != "application/octet-stream" {
		t.Errorf("sniffed type = %q", blob.Type)
	}
}

func TestUploadRejectsForeignFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bobs, _ := env.folders.Create(ctx, "bob", "Private")
	_, err := env.files.Upload(ctx, "alice", UploadInput{
		Name:     "a.txt",
		FolderID: bobs.ID,
		Body:     strings.NewReader("x"),
	})
	if !errors.Is(err, ErrFolderNotFound) {
		t.Fatalf("err = %v, want ErrFolderNotFound", err)
	}

	blobs, _ := env.blobs.List()
	if len(blobs) != 0 {
		t.Errorf("blob written for rejected upload: %+v", blobs)
	}

	if _, err := env.files.Upload(ctx, "alice", UploadInput{Name: "  ", Body: strings.NewReader("x")}); !errors.Is(err, ErrNameRequired) {
		t.Errorf("blank name err = %v", err)
	}
}

type failingInsert struct {
	SQLExecutor
}

func (f failingInsert) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if strings.HasPrefix(strings.TrimSpace(query), "INSERT INTO files") {
		return nil, errors.New("disk full")
	}
	return f.SQLExecutor.ExecContext(ctx, query, args...)
}

func TestUploadRemovesBlobWhenInsertFails(t *testing.T) {
	env := newTestEnv(t)
	svc := NewFileService(failingInsert{env.db}, env.blobs)

	_, err := svc.Upload(context.Background(), "alice", UploadInput{
		Name: "a.txt",
		Type: "text/plain",
		Body: strings.NewReader("0123456789"),
	})
	if err == nil {
		t.Fatal("expected insert failure")
	}

	blobs, _ := env.blobs.List()
	if len(blobs) != 0 {
		t.Errorf("orphaned blob after failed insert: %+v", blobs)
	}
}

func TestRenameFileOnlyTouchesNameAndLastModified(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.upload(t, "alice", "draft.txt", "0123456789", "")
	old := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	env.db.Exec("UPDATE files SET upload_date = ?, last_modified = ? WHERE id = ?", old, old, id)
	before, _ := env.files.Get(ctx, "alice", id)

	if _, err := env.files.Rename(ctx, "alice", id, ""); !errors.Is(err, ErrNameRequired) {
		t.Errorf("blank rename err = %v", err)
	}
	if _, err := env.files.Rename(ctx, "bob", id, "x"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("foreign rename err = %v", err)
	}

	after, err := env.files.Rename(ctx, "alice", id, "final.txt")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}

	if after.Name != "final.txt" {
		t.Errorf("name = %q", after.Name)
	}
	if !after.LastModified.After(before.LastModified) {
		t.Errorf("last modified not advanced: %v -> %v", before.LastModified, after.LastModified)
	}
	if after.Size != before.Size || after.Type != before.Type || !after.UploadDate.Equal(before.UploadDate) || after.Path != before.Path {
		t.Errorf("rename changed other fields: before %+v after %+v", before, after)
	}
}

func TestMoveFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	folder, _ := env.folders.Create(ctx, "alice", "Inbox")
	bobs, _ := env.folders.Create(ctx, "bob", "Bob")
	id := env.upload(t, "alice", "a.txt", "a", "")

	moved, err := env.files.Move(ctx, "alice", id, &folder.ID)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.FolderID == nil || *moved.FolderID != folder.ID {
		t.Errorf("folder id = %v", moved.FolderID)
	}

	if _, err := env.files.Move(ctx, "alice", id, &bobs.ID); !errors.Is(err, ErrFolderNotFound) {
		t.Errorf("move into foreign folder err = %v", err)
	}

	empty := ""
	back, err := env.files.Move(ctx, "alice", id, &empty)
	if err != nil {
		t.Fatalf("move to root: %v", err)
	}
	if back.FolderID != nil {
		t.Errorf("folder id = %v, want nil", *back.FolderID)
	}
}

func TestDeleteFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.upload(t, "alice", "a.txt", "a", "")
	f, _ := env.files.Get(ctx, "alice", id)

	if err := env.files.Delete(ctx, "bob", id); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("foreign delete err = %v", err)
	}
	if !env.blobExists(f.Path) {
		t.Fatal("foreign delete removed the blob")
	}

	if err := env.files.Delete(ctx, "alice", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if env.blobExists(f.Path) {
		t.Error("blob still on disk")
	}
	if _, err := env.files.Get(ctx, "alice", id); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("get after delete err = %v", err)
	}

	id = env.upload(t, "alice", "b.txt", "b", "")
	f, _ = env.files.Get(ctx, "alice", id)
	os.Remove(filepath.Join(env.blobs.BaseDir(), f.Path))
	if err := env.files.Delete(ctx, "alice", id); err != nil {
		t.Errorf("delete with missing blob: %v", err)
	}
}

func TestListFilesNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ids := []string{
		env.upload(t, "alice", "old.txt", "1", ""),
		env.upload(t, "alice", "mid.txt", "2", ""),
		env.upload(t, "alice", "new.txt", "3", ""),
	}
	env.upload(t, "bob", "other.txt", "4", "")

	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	for i, id := range ids {
		env.db.Exec("UPDATE files SET upload_date = ? WHERE id = ?", base.Add(time.Duration(i)*time.Minute), id)
	}

	files, err := env.files.List(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("got %d files, want 3", len(files))
	}
	for i, want := range []string{"new.txt", "mid.txt", "old.txt"} {
		if files[i].Name != want {
			t.Errorf("files[%d] = %s, want %s", i, files[i].Name, want)
		}
	}
}

func TestReconcile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	keptID := env.upload(t, "alice", "kept.txt", "k", "")
	kept, _ := env.files.Get(ctx, "alice", keptID)

	goneID := env.upload(t, "alice", "gone.txt", "g", "")
	gone, _ := env.files.Get(ctx, "alice", goneID)
	os.Remove(filepath.Join(env.blobs.BaseDir(), gone.Path))

	stale, _, _ := env.blobs.Save("stale.bin", strings.NewReader("s"))
	old := time.Now().Add(-time.Hour)
	os.Chtimes(filepath.Join(env.blobs.BaseDir(), stale), old, old)
	fresh, _, _ := env.blobs.Save("fresh.bin", strings.NewReader("f"))

	r := NewReconciler(env.db, env.blobs, 10*time.Minute)
	report, err := r.Reconcile(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if report.BlobsScanned != 3 || report.OrphansRemoved != 1 || report.OrphansKept != 1 {
		t.Errorf("report = %+v", report)
	}
	if len(report.MissingBlobs) != 1 || report.MissingBlobs[0] != goneID {
		t.Errorf("missing = %v, want [%s]", report.MissingBlobs, goneID)
	}

	if env.blobExists(stale) {
		t.Error("stale orphan not removed")
	}
	if !env.blobExists(fresh) {
		t.Error("fresh orphan removed inside grace period")
	}
	if !env.blobExists(kept.Path) {
		t.Error("referenced blob removed")
	}
}

func TestUpdateFileChecksFolderBeforeWriting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.upload(t, "alice", "draft.txt", "d", "")
	old := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	env.db.Exec("UPDATE files SET last_modified = ? WHERE id = ?", old, id)

	name, missing := "renamed.txt", "folder_missing"
	if _, err := env.files.Update(ctx, "alice", id, &name, &missing); !errors.Is(err, ErrFolderNotFound) {
		t.Fatalf("update into missing folder err = %v", err)
	}
	unchanged, _ := env.files.Get(ctx, "alice", id)
	if unchanged.Name != "draft.txt" || !unchanged.LastModified.Equal(old) {
		t.Errorf("rejected update changed the file: %+v", unchanged)
	}

	if _, err := env.files.Update(ctx, "alice", id, nil, nil); !errors.Is(err, ErrNothingToUpdate) {
		t.Errorf("empty update err = %v", err)
	}

	folder, _ := env.folders.Create(ctx, "alice", "Inbox")
	updated, err := env.files.Update(ctx, "alice", id, &name, &folder.ID)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "renamed.txt" || updated.FolderID == nil || *updated.FolderID != folder.ID {
		t.Errorf("updated = %+v", updated)
	}
}

func TestNamesAreBounded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	long := strings.Repeat("a", 300) + ".txt"
	for _, name := range []string{"bad\x00name.txt", long} {
		_, err := env.files.Upload(ctx, "alice", UploadInput{Name: name, Type: "text/plain", Body: strings.NewReader("x")})
		if !errors.Is(err, ErrNameInvalid) {
			t.Errorf("upload %q err = %v, want ErrNameInvalid", name[:8], err)
		}
	}
	if blobs, _ := env.blobs.List(); len(blobs) != 0 {
		t.Errorf("blob written for rejected name: %+v", blobs)
	}

	id := env.upload(t, "alice", "a.txt", "a", "")
	if _, err := env.files.Rename(ctx, "alice", id, long); !errors.Is(err, ErrNameInvalid) {
		t.Errorf("long rename err = %v", err)
	}
	if _, err := env.folders.Create(ctx, "alice", long); !errors.Is(err, ErrNameInvalid) {
		t.Errorf("long folder err = %v", err)
	}

	edge := strings.Repeat("b", maxNameBytes)
	if _, err := env.files.Rename(ctx, "alice", id, edge); err != nil {
		t.Errorf("rename at limit: %v", err)
	}
}

// lateUpload finishes an upload right after the blob listing is taken.
type lateUpload struct {
	storage.BlobStore
	after func()
}

func (l lateUpload) List() ([]storage.BlobInfo, error) {
	blobs, err := l.BlobStore.List()
	l.after()
	return blobs, err
}

func TestReconcileIgnoresUploadFinishingMidPass(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.upload(t, "alice", "early.txt", "e", "")

	var lateID string
	store := lateUpload{BlobStore: env.blobs, after: func() {
		if lateID == "" {
			lateID = env.upload(t, "alice", "late.txt", "l", "")
		}
	}}

	report, err := NewReconciler(env.db, store, 10*time.Minute).Reconcile(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(report.MissingBlobs) != 0 {
		t.Errorf("missing = %v, want none", report.MissingBlobs)
	}

	late, err := env.files.Get(ctx, "alice", lateID)
	if err != nil {
		t.Fatalf("get late file: %v", err)
	}
	if !env.blobExists(late.Path) {
		t.Error("late blob removed")
	}
}
