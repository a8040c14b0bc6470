package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/talentline/apiserver/internal/logging"
)

func newTestResumeService(objects ObjectStore) (*ResumeService, *fakeResumeStore) {
	resumes := newFakeResumeStore()
	svc := NewResumeService(resumes, objects, 1024)
	svc.newID = sequentialIDs("res")
	tick := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	return svc, resumes
}

func upload(name, body string) ResumeUpload {
	return ResumeUpload{Filename: name, Size: int64(len(body)), Body: strings.NewReader(body)}
}

func TestResumeService_Upload(t *testing.T) {
	objects := newFakeObjectStore()
	svc, _ := newTestResumeService(objects)
	ctx := context.Background()

	first, err := svc.Upload(ctx, "u1", upload("../../CV.PDF", "%PDF-1.4"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if first.Filename != "CV.PDF" || first.ContentType != "application/pdf" {
		t.Fatalf("unexpected metadata: %+v", first)
	}
	if !first.IsPrimary {
		t.Fatal("first resume should be primary")
	}
	if first.ObjectKey != "resumes/u1/res-1.pdf" {
		t.Fatalf("unexpected object key %q", first.ObjectKey)
	}
	if string(objects.objects[first.ObjectKey]) != "%PDF-1.4" {
		t.Fatal("object contents not stored")
	}

	second, err := svc.Upload(ctx, "u1", upload("cv.txt", "plain"))
	if err != nil {
		t.Fatalf("second Upload: %v", err)
	}
	if second.IsPrimary {
		t.Fatal("second resume should not be primary")
	}
}

func TestResumeService_Upload_Rejects(t *testing.T) {
	svc, _ := newTestResumeService(newFakeObjectStore())
	ctx := context.Background()

	tests := []struct {
		name string
		in   ResumeUpload
	}{
		{"bad extension", upload("cv.exe", "MZ")},
		{"no extension", upload("cv", "data")},
		{"empty", upload("cv.pdf", "")},
		{"too large", upload("cv.pdf", strings.Repeat("x", 1025))},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Upload(ctx, "u1", tc.in); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestResumeService_Unavailable(t *testing.T) {
	svc, _ := newTestResumeService(nil)

	if _, err := svc.Upload(context.Background(), "u1", upload("cv.pdf", "x")); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if _, _, err := svc.Open(context.Background(), "u1", "res-1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestResumeService_Upload_PutFailure(t *testing.T) {
	objects := newFakeObjectStore()
	objects.putErr = errors.New("bucket missing")
	svc, resumes := newTestResumeService(objects)

	if _, err := svc.Upload(context.Background(), "u1", upload("cv.pdf", "x")); !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	if len(resumes.resumes) != 0 {
		t.Fatal("no record should be written when the upload fails")
	}
}

func TestResumeService_OwnershipAndDownload(t *testing.T) {
	svc, _ := newTestResumeService(newFakeObjectStore())
	ctx := context.Background()

	resume, err := svc.Upload(ctx, "u1", upload("cv.txt", "hello"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if _, err := svc.Get(ctx, "u2", resume.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}

	meta, body, err := svc.Open(ctx, "u1", resume.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if string(data) != "hello" || meta.ID != resume.ID {
		t.Fatalf("unexpected download %q %+v", data, meta)
	}
}

func TestResumeService_PrimaryAndDelete(t *testing.T) {
	objects := newFakeObjectStore()
	svc, resumes := newTestResumeService(objects)
	ctx := context.Background()

	first, _ := svc.Upload(ctx, "u1", upload("a.pdf", "a"))
	second, _ := svc.Upload(ctx, "u1", upload("b.pdf", "b"))
	third, _ := svc.Upload(ctx, "u1", upload("c.pdf", "c"))

	updated, err := svc.SetPrimary(ctx, "u1", second.ID)
	if err != nil {
		t.Fatalf("SetPrimary: %v", err)
	}
	if !updated.IsPrimary || resumes.resumes[first.ID].IsPrimary {
		t.Fatal("primary flag not moved")
	}
	if _, err := svc.SetPrimary(ctx, "u2", second.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := svc.Delete(ctx, "u1", second.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := objects.objects[second.ObjectKey]; ok {
		t.Fatal("object not removed")
	}
	if !resumes.resumes[third.ID].IsPrimary {
		t.Fatal("most recent remaining resume should be promoted")
	}

	primaries := 0
	for _, r := range resumes.resumes {
		if r.IsPrimary {
			primaries++
		}
	}
	if primaries != 1 {
		t.Fatalf("expected exactly one primary, got %d", primaries)
	}
}

func TestResumeService_DeletePrimaryListFailureIsLogged(t *testing.T) {
	objects := newFakeObjectStore()
	svc, resumes := newTestResumeService(objects)

	var logs bytes.Buffer
	ctx := logging.WithContext(context.Background(), slog.New(slog.NewTextHandler(&logs, nil)))

	first, _ := svc.Upload(ctx, "u1", upload("a.pdf", "a"))
	second, _ := svc.Upload(ctx, "u1", upload("b.pdf", "b"))

	resumes.listErr = errors.New("connection reset")
	if err := svc.Delete(ctx, "u1", first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := resumes.resumes[first.ID]; ok {
		t.Fatal("resume record not removed")
	}
	if resumes.resumes[second.ID].IsPrimary {
		t.Fatal("no resume should be promoted when listing fails")
	}
	if !strings.Contains(logs.String(), "level=WARN") || !strings.Contains(logs.String(), "connection reset") {
		t.Fatalf("expected a warning with the cause, got %q", logs.String())
	}
}
