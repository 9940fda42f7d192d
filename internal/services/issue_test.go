package services

import (
	"context"
	"testing"
	"time"

	"github.com/campusdesk/apiserver/internal/apperr"
	"github.com/campusdesk/apiserver/types"
)

func newIssueService(strict bool) (*IssueService, *fakeIssueRepo) {
	repo := newFakeIssueRepo()
	return NewIssueService(repo, testUsers(), nil, strict), repo
}

func TestCreateIssueDefaults(t *testing.T) {
	svc, _ := newIssueService(false)

	issue, err := svc.Create(context.Background(), validIssueInput(), reporterCaller)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if issue.Status != types.IssueStatusPending {
		t.Errorf("status = %q, want pending", issue.Status)
	}
	if issue.Priority != types.IssuePriorityMedium {
		t.Errorf("priority = %q, want medium", issue.Priority)
	}
	if len(issue.Upvotes) != 0 || issue.UpvoteCount != 0 {
		t.Errorf("upvotes = %v count = %d, want empty", issue.Upvotes, issue.UpvoteCount)
	}
	if issue.ReporterID != reporterCaller.ID {
		t.Errorf("reporter = %d, want %d", issue.ReporterID, reporterCaller.ID)
	}
}

func TestCreateIssueExplicitPriority(t *testing.T) {
	svc, _ := newIssueService(false)

	in := validIssueInput()
	in.Priority = "urgent"
	issue, err := svc.Create(context.Background(), in, reporterCaller)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if issue.Priority != types.IssuePriorityUrgent {
		t.Errorf("priority = %q, want urgent", issue.Priority)
	}

	in.Priority = "critical"
	if _, err := svc.Create(context.Background(), in, reporterCaller); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("bad priority kind = %q, want validation", apperr.KindOf(err))
	}
}

func TestToggleUpvoteIsInvolution(t *testing.T) {
	svc, _ := newIssueService(false)
	ctx := context.Background()

	created, err := svc.Create(ctx, validIssueInput(), reporterCaller)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Two different users upvote.
	first, err := svc.ToggleUpvote(ctx, created.ID, reporterCaller)
	if err != nil {
		t.Fatalf("first upvote: %v", err)
	}
	second, err := svc.ToggleUpvote(ctx, created.ID, otherCaller)
	if err != nil {
		t.Fatalf("second upvote: %v", err)
	}
	if second.UpvoteCount != 2 || len(second.Upvotes) != 2 {
		t.Fatalf("count = %d set = %v, want 2", second.UpvoteCount, second.Upvotes)
	}

	// One un-upvotes: back to a single member, their id gone.
	third, err := svc.ToggleUpvote(ctx, created.ID, otherCaller)
	if err != nil {
		t.Fatalf("un-upvote: %v", err)
	}
	if third.UpvoteCount != 1 {
		t.Errorf("count = %d, want 1", third.UpvoteCount)
	}
	if third.HasUpvote(otherCaller.ID) {
		t.Error("toggled user still present in upvote set")
	}
	if !third.HasUpvote(reporterCaller.ID) {
		t.Error("remaining upvote disappeared")
	}
	if third.UpvoteCount != first.UpvoteCount {
		t.Errorf("double toggle did not restore count: %d vs %d", third.UpvoteCount, first.UpvoteCount)
	}
}

func TestUpvoteCountMatchesSetAfterEveryMutation(t *testing.T) {
	svc, repo := newIssueService(false)
	ctx := context.Background()

	created, _ := svc.Create(ctx, validIssueInput(), reporterCaller)
	_, _ = svc.ToggleUpvote(ctx, created.ID, reporterCaller)
	_, _ = svc.ToggleUpvote(ctx, created.ID, otherCaller)

	title := "Leaking tap in block B"
	if _, err := svc.Update(ctx, created.ID, IssueUpdateInput{Title: &title}, reporterCaller); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := svc.Assign(ctx, created.ID, 2, adminCaller); err != nil {
		t.Fatalf("assign: %v", err)
	}

	stored := repo.issues[created.ID]
	if stored.UpvoteCount != len(stored.Upvotes) {
		t.Fatalf("count %d != set size %d after mutations", stored.UpvoteCount, len(stored.Upvotes))
	}
	if stored.UpvoteCount != 2 {
		t.Fatalf("count = %d, want 2", stored.UpvoteCount)
	}
}

func TestUpvoteRequiresAuthentication(t *testing.T) {
	svc, _ := newIssueService(false)
	ctx := context.Background()

	created, _ := svc.Create(ctx, validIssueInput(), reporterCaller)
	if _, err := svc.ToggleUpvote(ctx, created.ID, nil); apperr.KindOf(err) != apperr.KindUnauthenticated {
		t.Fatalf("kind = %q, want unauthenticated", apperr.KindOf(err))
	}
}

func TestAssignForcesInProgress(t *testing.T) {
	svc, _ := newIssueService(false)
	ctx := context.Background()

	created, _ := svc.Create(ctx, validIssueInput(), reporterCaller)

	if _, err := svc.Assign(ctx, created.ID, 2, reporterCaller); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("student assign kind = %q, want forbidden", apperr.KindOf(err))
	}

	assigned, err := svc.Assign(ctx, created.ID, 2, adminCaller)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assigned.Status != types.IssueStatusInProgress {
		t.Errorf("status = %q, want in-progress", assigned.Status)
	}
	if assigned.AssigneeID == nil || *assigned.AssigneeID != 2 {
		t.Errorf("assignee = %v, want 2", assigned.AssigneeID)
	}
	if assigned.Assignee == nil || assigned.Assignee.Name != "Bob" {
		t.Errorf("expanded assignee = %v, want Bob", assigned.Assignee)
	}

	// Assignment forces in-progress even from resolved.
	if _, err := svc.UpdateStatus(ctx, created.ID, IssueStatusInput{Status: "resolved"}, adminCaller); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	reassigned, err := svc.Assign(ctx, created.ID, 1, adminCaller)
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if reassigned.Status != types.IssueStatusInProgress {
		t.Errorf("status after reassign = %q, want in-progress", reassigned.Status)
	}
}

func TestAssignUnknownUser(t *testing.T) {
	svc, _ := newIssueService(false)
	ctx := context.Background()

	created, _ := svc.Create(ctx, validIssueInput(), reporterCaller)
	if _, err := svc.Assign(ctx, created.ID, 404, adminCaller); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("kind = %q, want validation", apperr.KindOf(err))
	}
}

func TestUpdateStatusResolved(t *testing.T) {
	svc, _ := newIssueService(false)
	ctx := context.Background()

	created, _ := svc.Create(ctx, validIssueInput(), reporterCaller)

	if _, err := svc.UpdateStatus(ctx, created.ID, IssueStatusInput{Status: "resolved"}, reporterCaller); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("student status kind = %q, want forbidden", apperr.KindOf(err))
	}

	resolved, err := svc.UpdateStatus(ctx, created.ID, IssueStatusInput{Status: "resolved"}, adminCaller)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.ResolvedAt == nil || resolved.ResolvedByID == nil || *resolved.ResolvedByID != adminCaller.ID {
		t.Errorf("resolution fields not set: %+v", resolved.Issue)
	}
	if resolved.ResolvedBy == nil || resolved.ResolvedBy.Name != "Root" {
		t.Errorf("expanded resolved_by = %v, want Root", resolved.ResolvedBy)
	}
}

func TestUpdateStatusNotesIndependentOfStatus(t *testing.T) {
	svc, _ := newIssueService(false)
	ctx := context.Background()

	created, _ := svc.Create(ctx, validIssueInput(), reporterCaller)

	updated, err := svc.UpdateStatus(ctx, created.ID, IssueStatusInput{Status: "in-progress", Notes: "plumber scheduled"}, adminCaller)
	if err != nil {
		t.Fatalf("status update: %v", err)
	}
	if updated.ResolutionNotes != "plumber scheduled" {
		t.Errorf("notes = %q, want stored regardless of status", updated.ResolutionNotes)
	}
	if updated.ResolvedAt != nil {
		t.Error("resolved_at set without a resolved transition")
	}

	eta := time.Now().Add(48 * time.Hour)
	withETA, err := svc.UpdateStatus(ctx, created.ID, IssueStatusInput{Status: "in-progress", EstimatedResolution: &eta}, adminCaller)
	if err != nil {
		t.Fatalf("status update with eta: %v", err)
	}
	if withETA.EstimatedResolution == nil {
		t.Error("estimated_resolution not stored")
	}
}

func TestUpdateStatusLaxByDefault(t *testing.T) {
	svc, _ := newIssueService(false)
	ctx := context.Background()

	created, _ := svc.Create(ctx, validIssueInput(), reporterCaller)

	// Without strict transitions any value can follow any value,
	// including moving a resolved issue back to pending.
	if _, err := svc.UpdateStatus(ctx, created.ID, IssueStatusInput{Status: "resolved"}, adminCaller); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	back, err := svc.UpdateStatus(ctx, created.ID, IssueStatusInput{Status: "pending"}, adminCaller)
	if err != nil {
		t.Fatalf("resolved to pending should pass in lax mode: %v", err)
	}
	if back.Status != types.IssueStatusPending {
		t.Errorf("status = %q, want pending", back.Status)
	}
}

func TestUpdateStatusStrictMode(t *testing.T) {
	svc, _ := newIssueService(true)
	ctx := context.Background()

	created, _ := svc.Create(ctx, validIssueInput(), reporterCaller)

	if _, err := svc.UpdateStatus(ctx, created.ID, IssueStatusInput{Status: "in-progress"}, adminCaller); err != nil {
		t.Fatalf("pending to in-progress: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, created.ID, IssueStatusInput{Status: "resolved"}, adminCaller); err != nil {
		t.Fatalf("in-progress to resolved: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, created.ID, IssueStatusInput{Status: "pending"}, adminCaller); apperr.KindOf(err) != apperr.KindInvalidTransition {
		t.Fatalf("resolved to pending kind = %q, want invalid_transition in strict mode", apperr.KindOf(err))
	}
}

func TestUpdateIssueOwnership(t *testing.T) {
	svc, _ := newIssueService(false)
	ctx := context.Background()

	created, _ := svc.Create(ctx, validIssueInput(), reporterCaller)

	title := "Leaking tap near entrance"
	if _, err := svc.Update(ctx, created.ID, IssueUpdateInput{Title: &title}, otherCaller); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("stranger update kind = %q, want forbidden", apperr.KindOf(err))
	}

	updated, err := svc.Update(ctx, created.ID, IssueUpdateInput{Title: &title}, reporterCaller)
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.ID != created.ID || updated.ReporterID != created.ReporterID || updated.Status != created.Status {
		t.Error("update changed id, reporter, or status")
	}
}

func TestDeleteIssue(t *testing.T) {
	svc, repo := newIssueService(false)
	ctx := context.Background()

	created, _ := svc.Create(ctx, validIssueInput(), reporterCaller)

	if err := svc.Delete(ctx, created.ID, otherCaller); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("stranger delete kind = %q, want forbidden", apperr.KindOf(err))
	}
	if err := svc.Delete(ctx, created.ID, adminCaller); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if len(repo.issues) != 0 {
		t.Errorf("expected record removed, %d left", len(repo.issues))
	}
}
