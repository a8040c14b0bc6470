package services

import (
	"context"
	"errors"
	"testing"
)

func TestFavoriteService(t *testing.T) {
	svc := NewFavoriteService(&fakeFavoriteStore{}, newFakeJobStore(activeJob()))
	svc.newID = sequentialIDs("fav")
	ctx := context.Background()

	fav, err := svc.Add(ctx, "u1", "job-1")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if fav.ID != "fav-1" || fav.JobID != "job-1" {
		t.Fatalf("unexpected favorite: %+v", fav)
	}

	if _, err := svc.Add(ctx, "u1", "job-1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := svc.Add(ctx, "u1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Add(ctx, "u1", " "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	ok, err := svc.IsFavorite(ctx, "u1", "job-1")
	if err != nil || !ok {
		t.Fatalf("IsFavorite = %v, %v", ok, err)
	}
	list, err := svc.List(ctx, "u1")
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %+v, %v", list, err)
	}

	if err := svc.Remove(ctx, "u1", "job-1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := svc.Remove(ctx, "u1", "job-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if ok, _ := svc.IsFavorite(ctx, "u1", "job-1"); ok {
		t.Fatal("favorite should be gone")
	}
}
