// File: internal/usecase/job_uc_test.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"shorts-factory/internal/domain"
	"shorts-factory/internal/domain/model"
	"shorts-factory/internal/domain/ports/repository"
)

func validSpec() model.JobSpec {
	return model.JobSpec{
		Title:       "Ocean trivia",
		Transcript:  "Most of the ocean is unexplored.",
		VideoSource: "s3://shorts/source/ocean.mp4",
		Mode:        model.JobModeMock,
	}
}

func newJobUCForTest(jobs *memJobRepo, d *mockDispatcher) *jobUC {
	logger := zerolog.Nop()
	return NewJobUseCase(jobs, d, &logger)
}

func TestJobCreate_DispatchesAfterPersist(t *testing.T) {
	jobs := newMemJobRepo()
	d := &mockDispatcher{}
	uc := newJobUCForTest(jobs, d)

	job, err := uc.Create(context.Background(), "user-1", validSpec())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.Status != model.JobStatusPending || job.Progress != model.ProgressDispatched {
		t.Fatalf("new job state: %s/%d", job.Status, job.Progress)
	}
	if len(d.dispatched) != 1 || d.dispatched[0] != job.ID {
		t.Fatalf("dispatched: %v", d.dispatched)
	}
	if _, err := jobs.FindByID(context.Background(), nil, job.ID); err != nil {
		t.Fatalf("job not persisted: %v", err)
	}
}

func TestJobCreate_ValidationLeavesNoLedgerEntry(t *testing.T) {
	jobs := newMemJobRepo()
	d := &mockDispatcher{}
	uc := newJobUCForTest(jobs, d)

	spec := validSpec()
	spec.Transcript = ""
	if _, err := uc.Create(context.Background(), "user-1", spec); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	if len(jobs.store) != 0 {
		t.Fatal("rejected spec must not create a job")
	}
	if len(d.dispatched) != 0 {
		t.Fatal("rejected spec must not dispatch")
	}
}

func TestJobCreate_DispatchFailureIsNotFatal(t *testing.T) {
	jobs := newMemJobRepo()
	d := &mockDispatcher{DispatchFn: func(jobID string) error {
		return fmt.Errorf("queue saturated")
	}}
	uc := newJobUCForTest(jobs, d)

	job, err := uc.Create(context.Background(), "user-1", validSpec())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// The job stays pending for the recovery poller.
	stored, _ := jobs.FindByID(context.Background(), nil, job.ID)
	if stored.Status != model.JobStatusPending {
		t.Fatalf("status: %s", stored.Status)
	}
}

func TestJobGet_OwnershipEnforced(t *testing.T) {
	jobs := newMemJobRepo()
	uc := newJobUCForTest(jobs, &mockDispatcher{})

	job, _ := uc.Create(context.Background(), "user-1", validSpec())

	if _, err := uc.Get(context.Background(), "user-1", job.ID); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := uc.Get(context.Background(), "user-2", job.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign read: want ErrNotFound, got %v", err)
	}
	if _, err := uc.Status(context.Background(), "user-2", job.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign status: want ErrNotFound, got %v", err)
	}
}

func TestJobList_FilterDefaults(t *testing.T) {
	jobs := newMemJobRepo()
	uc := newJobUCForTest(jobs, &mockDispatcher{})

	for i := 0; i < 3; i++ {
		if _, err := uc.Create(context.Background(), "user-1", validSpec()); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if _, err := uc.Create(context.Background(), "user-2", validSpec()); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, total, err := uc.List(context.Background(), "user-1", repository.JobFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 || total != 3 {
		t.Fatalf("want 3 jobs for user-1, got %d/%d", len(got), total)
	}
	for _, j := range got {
		if j.UserID != "user-1" {
			t.Fatalf("leaked job of %s", j.UserID)
		}
	}
}

func TestJobStatus_View(t *testing.T) {
	jobs := newMemJobRepo()
	uc := newJobUCForTest(jobs, &mockDispatcher{})

	job, _ := uc.Create(context.Background(), "user-1", validSpec())
	failed := model.JobStatusFailed
	if err := jobs.UpdateProgress(context.Background(), nil, job.ID, model.ProgressFailed, "speech stage: boom", &failed); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	view, err := uc.Status(context.Background(), "user-1", job.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if view.Progress != model.ProgressFailed || view.Status != model.JobStatusFailed {
		t.Fatalf("view: %+v", view)
	}
	if view.CurrentStep != "Failed" {
		t.Fatalf("current step: %q", view.CurrentStep)
	}
	if view.ErrorMessage != "speech stage: boom" {
		t.Fatalf("error message: %q", view.ErrorMessage)
	}
}
