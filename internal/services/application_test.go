package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/talentline/apiserver/types"
)

func newTestApplicationService(publisher EventPublisher, jobs ...types.Job) (*ApplicationService, *fakeApplicationStore) {
	apps := newFakeApplicationStore()
	svc := NewApplicationService(apps, newFakeJobStore(jobs...), publisher, "application-events")
	svc.newID = sequentialIDs("app")
	return svc, apps
}

func activeJob() types.Job {
	return types.Job{ID: "job-1", Title: "Backend Engineer", Company: "Acme", Status: types.JobActive, EmployerID: testEmployer.ID}
}

func TestApplicationService_Apply(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newTestApplicationService(pub, activeJob())

	app, err := svc.Apply(context.Background(), testCandidate, ApplicationInput{JobID: "job-1", CoverLetter: "hi"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if app.Status != types.ApplicationSubmitted || app.CandidateID != testCandidate.ID {
		t.Fatalf("unexpected application: %+v", app)
	}
	if app.JobTitle != "Backend Engineer" || app.CompanyName != "Acme" {
		t.Fatalf("job details not attached: %+v", app)
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected one event, got %d", len(pub.events))
	}
	var event types.ApplicationEvent
	if err := json.Unmarshal(pub.events[0].data, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.Type != types.EventApplicationSubmitted || event.ApplicationID != app.ID {
		t.Fatalf("unexpected event: %+v", event)
	}
	if pub.events[0].channel != "application-events" || pub.events[0].attrs["type"] != types.EventApplicationSubmitted {
		t.Fatalf("unexpected routing: %+v", pub.events[0])
	}

	if _, err := svc.Apply(context.Background(), testCandidate, ApplicationInput{JobID: "job-1"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on second application, got %v", err)
	}
}

func TestApplicationService_Apply_Rejects(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	closed := activeJob()
	closed.ID = "closed"
	closed.Status = types.JobClosed
	expired := activeJob()
	expired.ID = "expired"
	expired.ApplicationDeadline = &past

	svc, _ := newTestApplicationService(nil, activeJob(), closed, expired)
	ctx := context.Background()

	tests := []struct {
		name string
		user types.PublicUser
		job  string
		want error
	}{
		{"employer", testEmployer, "job-1", ErrForbidden},
		{"no job id", testCandidate, "", ErrValidation},
		{"unknown job", testCandidate, "missing", ErrNotFound},
		{"closed job", testCandidate, "closed", ErrValidation},
		{"deadline passed", testCandidate, "expired", ErrValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Apply(ctx, tc.user, ApplicationInput{JobID: tc.job}); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestApplicationService_Apply_PublishFailureIsNotFatal(t *testing.T) {
	svc, apps := newTestApplicationService(&fakePublisher{err: errors.New("broker down")}, activeJob())

	if _, err := svc.Apply(context.Background(), testCandidate, ApplicationInput{JobID: "job-1"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(apps.apps) != 1 {
		t.Fatal("application should be stored despite publish failure")
	}
}

func TestApplicationService_Access(t *testing.T) {
	svc, _ := newTestApplicationService(nil, activeJob())
	ctx := context.Background()

	app, err := svc.Apply(ctx, testCandidate, ApplicationInput{JobID: "job-1"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if _, err := svc.Get(ctx, testCandidate, app.ID); err != nil {
		t.Fatalf("applicant Get: %v", err)
	}
	if _, err := svc.Get(ctx, testEmployer, app.ID); err != nil {
		t.Fatalf("owner Get: %v", err)
	}
	if _, err := svc.Get(ctx, otherEmployer, app.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Get(ctx, testCandidate, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, err := svc.ForJob(ctx, testEmployer, "job-1")
	if err != nil || len(list) != 1 {
		t.Fatalf("ForJob = %+v, %v", list, err)
	}
	if _, err := svc.ForJob(ctx, otherEmployer, "job-1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	mine, err := svc.Mine(ctx, testCandidate)
	if err != nil || len(mine) != 1 {
		t.Fatalf("Mine = %+v, %v", mine, err)
	}
	if _, err := svc.Mine(ctx, testEmployer); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestApplicationService_UpdateStatus(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newTestApplicationService(pub, activeJob())
	ctx := context.Background()

	app, err := svc.Apply(ctx, testCandidate, ApplicationInput{JobID: "job-1"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	review := "under_review"
	notes := "strong profile"
	updated, err := svc.UpdateStatus(ctx, testEmployer, app.ID, ApplicationPatch{Status: &review, Notes: &notes})
	if err != nil {
		t.Fatalf("owner UpdateStatus: %v", err)
	}
	if updated.Status != types.ApplicationUnderReview || updated.AdditionalNotes != notes {
		t.Fatalf("unexpected update: %+v", updated)
	}
	if len(pub.events) != 2 || pub.events[1].attrs["type"] != types.EventApplicationStatusChanged {
		t.Fatalf("expected status change event, got %+v", pub.events)
	}

	accepted := "accepted"
	if _, err := svc.UpdateStatus(ctx, testCandidate, app.ID, ApplicationPatch{Status: &accepted}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for applicant accepting, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, otherEmployer, app.ID, ApplicationPatch{Status: &accepted}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for other employer, got %v", err)
	}

	bogus := "hired"
	if _, err := svc.UpdateStatus(ctx, testEmployer, app.ID, ApplicationPatch{Status: &bogus}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	withdrawn := "withdrawn"
	updated, err = svc.UpdateStatus(ctx, testCandidate, app.ID, ApplicationPatch{Status: &withdrawn})
	if err != nil {
		t.Fatalf("applicant withdraw: %v", err)
	}
	if updated.Status != types.ApplicationWithdrawn || updated.AdditionalNotes != notes {
		t.Fatalf("unexpected withdraw result: %+v", updated)
	}

	onlyNotes := "follow up"
	if _, err := svc.UpdateStatus(ctx, testEmployer, app.ID, ApplicationPatch{Notes: &onlyNotes}); err != nil {
		t.Fatalf("notes-only update: %v", err)
	}
	if len(pub.events) != 3 {
		t.Fatalf("notes-only update must not publish, got %d events", len(pub.events))
	}
}
