package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func setupTestDB(t *testing.T) *SQLiteDB {
	db, err := NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	return db
}

func TestSQLiteDB_AddAndList(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	id, err := db.Add(ctx, "alerts", json.RawMessage(`{"title":"Power cut on 5th","lat":12.9,"lng":77.6}`))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected store-assigned id")
	}

	docs, err := db.List(ctx, "alerts")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].ID != id {
		t.Errorf("expected id %s, got %s", id, docs[0].ID)
	}

	merged, err := docs[0].Merged()
	if err != nil {
		t.Fatalf("Merged failed: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(merged, &fields); err != nil {
		t.Fatalf("failed to decode merged document: %v", err)
	}
	if fields["id"] != id {
		t.Errorf("expected merged id %s, got %v", id, fields["id"])
	}
	if fields["title"] != "Power cut on 5th" {
		t.Errorf("expected title 'Power cut on 5th', got '%v'", fields["title"])
	}
}

func TestSQLiteDB_ListInsertionOrder(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	var ids []string
	for _, title := range []string{"first", "second", "third"} {
		id, err := db.Add(ctx, "alerts", json.RawMessage(`{"title":"`+title+`"}`))
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		ids = append(ids, id)
	}

	docs, err := db.List(ctx, "alerts")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	for i, d := range docs {
		if d.ID != ids[i] {
			t.Errorf("position %d: expected %s, got %s", i, ids[i], d.ID)
		}
	}
}

func TestSQLiteDB_CollectionsAreIsolated(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	db.Add(ctx, "alerts", json.RawMessage(`{"title":"a"}`))
	db.Add(ctx, "other", json.RawMessage(`{"title":"b"}`))

	docs, err := db.List(ctx, "alerts")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("expected 1 document in alerts, got %d", len(docs))
	}

	docs, err = db.List(ctx, "empty")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", docs)
	}
}

func TestSQLiteDB_Delete(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	id, err := db.Add(ctx, "alerts", json.RawMessage(`{"title":"flood"}`))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := db.Delete(ctx, "alerts", id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	docs, _ := db.List(ctx, "alerts")
	if len(docs) != 0 {
		t.Errorf("expected 0 documents after delete, got %d", len(docs))
	}

	// Deleting again reports not found
	err = db.Delete(ctx, "alerts", id)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteDB_RejectsNonObject(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	for _, body := range []string{`[1,2]`, `"text"`, `null`, `{broken`} {
		_, err := db.Add(ctx, "alerts", json.RawMessage(body))
		if !errors.Is(err, ErrInvalidDocument) {
			t.Errorf("body %s: expected ErrInvalidDocument, got %v", body, err)
		}
	}
}

func TestSQLiteDB_ClientIDIgnored(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	id, err := db.Add(ctx, "alerts", json.RawMessage(`{"id":"forged","title":"x"}`))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if id == "forged" {
		t.Error("expected store to assign its own id")
	}

	docs, _ := db.List(ctx, "alerts")
	merged, _ := docs[0].Merged()
	var fields map[string]any
	json.Unmarshal(merged, &fields)
	if fields["id"] != id {
		t.Errorf("expected id %s, got %v", id, fields["id"])
	}
}

func TestNewSQLiteDB_OpenFails(t *testing.T) {
	path := t.TempDir() + "/missing/dir/alerts.db"

	db, err := NewSQLiteDB(path)
	if err == nil {
		db.Close()
		t.Fatal("expected error for a database in a missing directory")
	}
	if db != nil {
		t.Errorf("expected nil db on error, got %v", db)
	}
}
