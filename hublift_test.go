package hublift_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hublift/hublift"
)

func TestOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hublift.db")

	ctx := context.Background()
	store, err := hublift.Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	owner := &hublift.User{Username: "owner", Email: "owner@example.com"}
	if err := store.CreateUser(ctx, owner); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	project := &hublift.Project{Namespace: "acme", Name: "hello", CreatorID: owner.ID}
	if err := store.CreateProject(ctx, project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	loaded, err := store.ProjectByPath(ctx, "acme", "hello")
	if err != nil {
		t.Fatalf("ProjectByPath failed: %v", err)
	}
	if loaded.ID != project.ID {
		t.Errorf("ProjectByPath returned id %d, want %d", loaded.ID, project.ID)
	}
}
