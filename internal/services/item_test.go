package services

import (
	"context"
	"errors"
	"testing"

	"github.com/campusdesk/apiserver/internal/apperr"
	"github.com/campusdesk/apiserver/types"
)

func newItemService() (*ItemService, *fakeItemRepo) {
	repo := newFakeItemRepo()
	return NewItemService(repo, testUsers(), nil), repo
}

func TestCreateItem(t *testing.T) {
	svc, _ := newItemService()

	item, err := svc.Create(context.Background(), validItemInput(), reporterCaller)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.Status != types.ItemStatusActive {
		t.Errorf("status = %q, want active", item.Status)
	}
	if item.ReporterID != reporterCaller.ID {
		t.Errorf("reporter = %d, want %d", item.ReporterID, reporterCaller.ID)
	}
	if item.ClaimantID != nil {
		t.Error("claimant should be unset on creation")
	}
	if item.Verified {
		t.Error("item should not be verified on creation")
	}
	if item.Reporter.Name != "Alice" {
		t.Errorf("expanded reporter = %q, want Alice", item.Reporter.Name)
	}
}

func TestCreateItemValidationListsEveryViolation(t *testing.T) {
	svc, _ := newItemService()

	_, err := svc.Create(context.Background(), ItemCreateInput{
		Title:        "abc",
		Description:  "too short",
		Category:     "vehicles",
		Type:         "stolen",
		Location:     "ab",
		Date:         "not-a-date",
		Images:       nil,
		ContactPhone: "123",
		ContactEmail: "nope",
	}, reporterCaller)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("kind = %q, want validation", apperr.KindOf(err))
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error, got %T", err)
	}
	if len(appErr.Fields) != 9 {
		t.Fatalf("expected 9 violations, got %d: %v", len(appErr.Fields), appErr.Fields)
	}
}

func TestCreateItemUnauthenticated(t *testing.T) {
	svc, _ := newItemService()

	if _, err := svc.Create(context.Background(), validItemInput(), nil); apperr.KindOf(err) != apperr.KindUnauthenticated {
		t.Fatalf("kind = %q, want unauthenticated", apperr.KindOf(err))
	}

	disabled := *reporterCaller
	disabled.Active = false
	if _, err := svc.Create(context.Background(), validItemInput(), &disabled); apperr.KindOf(err) != apperr.KindAccountDisabled {
		t.Fatalf("kind = %q, want account_disabled", apperr.KindOf(err))
	}
}

func TestClaimLifecycle(t *testing.T) {
	svc, _ := newItemService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validItemInput(), reporterCaller)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Reporter cannot claim their own item.
	if _, err := svc.Claim(ctx, created.ID, reporterCaller); apperr.KindOf(err) != apperr.KindSelfAction {
		t.Fatalf("self claim kind = %q, want self_action", apperr.KindOf(err))
	}

	claimed, err := svc.Claim(ctx, created.ID, otherCaller)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.Status != types.ItemStatusClaimed {
		t.Errorf("status = %q, want claimed", claimed.Status)
	}
	if claimed.ClaimantID == nil || *claimed.ClaimantID != otherCaller.ID {
		t.Errorf("claimant = %v, want %d", claimed.ClaimantID, otherCaller.ID)
	}
	if claimed.ClaimedAt == nil {
		t.Error("claimed_at not set")
	}
	if claimed.Claimant == nil || claimed.Claimant.Name != "Bob" {
		t.Errorf("expanded claimant = %v, want Bob", claimed.Claimant)
	}

	// A second claim by anyone fails: the item is no longer active.
	if _, err := svc.Claim(ctx, created.ID, otherCaller); apperr.KindOf(err) != apperr.KindInvalidTransition {
		t.Fatalf("second claim kind = %q, want invalid_transition", apperr.KindOf(err))
	}
	if _, err := svc.Claim(ctx, created.ID, adminCaller); apperr.KindOf(err) != apperr.KindInvalidTransition {
		t.Fatalf("admin claim kind = %q, want invalid_transition", apperr.KindOf(err))
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	svc, _ := newItemService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validItemInput(), reporterCaller)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	closed, err := svc.Close(ctx, created.ID, reporterCaller)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status != types.ItemStatusClosed {
		t.Errorf("status = %q, want closed", closed.Status)
	}

	// Closing again is a no-op success, not an error.
	again, err := svc.Close(ctx, created.ID, reporterCaller)
	if err != nil {
		t.Fatalf("second close: %v", err)
	}
	if again.Status != types.ItemStatusClosed {
		t.Errorf("status after second close = %q, want closed", again.Status)
	}

	// A closed item can never be claimed.
	if _, err := svc.Claim(ctx, created.ID, otherCaller); apperr.KindOf(err) != apperr.KindInvalidTransition {
		t.Fatalf("claim closed kind = %q, want invalid_transition", apperr.KindOf(err))
	}
}

func TestCloseForbiddenForStranger(t *testing.T) {
	svc, _ := newItemService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, validItemInput(), reporterCaller)

	if _, err := svc.Close(ctx, created.ID, otherCaller); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("stranger close kind = %q, want forbidden", apperr.KindOf(err))
	}
	if _, err := svc.Close(ctx, created.ID, adminCaller); err != nil {
		t.Fatalf("admin close: %v", err)
	}
}

func TestVerify(t *testing.T) {
	svc, _ := newItemService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, validItemInput(), reporterCaller)

	if _, err := svc.Verify(ctx, created.ID, reporterCaller); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("student verify kind = %q, want forbidden", apperr.KindOf(err))
	}

	verified, err := svc.Verify(ctx, created.ID, adminCaller)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !verified.Verified || verified.VerifierID == nil || *verified.VerifierID != adminCaller.ID {
		t.Errorf("verification fields not set: %+v", verified.Item)
	}
	if verified.Status != types.ItemStatusActive {
		t.Errorf("verify changed status to %q", verified.Status)
	}

	// Verification is independent of status: verifying after close works.
	if _, err := svc.Close(ctx, created.ID, adminCaller); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := svc.Verify(ctx, created.ID, adminCaller); err != nil {
		t.Fatalf("verify closed item: %v", err)
	}
}

func TestUpdateItem(t *testing.T) {
	svc, _ := newItemService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, validItemInput(), reporterCaller)

	title := "Dark Blue Backpack"
	if _, err := svc.Update(ctx, created.ID, ItemUpdateInput{Title: &title}, otherCaller); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("stranger update kind = %q, want forbidden", apperr.KindOf(err))
	}

	updated, err := svc.Update(ctx, created.ID, ItemUpdateInput{Title: &title}, reporterCaller)
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Title != title {
		t.Errorf("title = %q, want %q", updated.Title, title)
	}
	if updated.ID != created.ID || updated.ReporterID != created.ReporterID || updated.Status != created.Status {
		t.Error("update changed id, reporter, or status")
	}

	if _, err := svc.Update(ctx, created.ID, ItemUpdateInput{Title: &title}, adminCaller); err != nil {
		t.Fatalf("admin update: %v", err)
	}

	bad := "abc"
	if _, err := svc.Update(ctx, created.ID, ItemUpdateInput{Title: &bad}, reporterCaller); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("bad patch kind = %q, want validation", apperr.KindOf(err))
	}
}

func TestUpdateItemNotFound(t *testing.T) {
	svc, _ := newItemService()
	title := "Dark Blue Backpack"
	if _, err := svc.Update(context.Background(), 404, ItemUpdateInput{Title: &title}, reporterCaller); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("kind = %q, want not_found", apperr.KindOf(err))
	}
}

func TestDeleteItem(t *testing.T) {
	svc, repo := newItemService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, validItemInput(), reporterCaller)

	if err := svc.Delete(ctx, created.ID, otherCaller); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("stranger delete kind = %q, want forbidden", apperr.KindOf(err))
	}
	if err := svc.Delete(ctx, created.ID, reporterCaller); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if len(repo.items) != 0 {
		t.Errorf("expected record removed, %d left", len(repo.items))
	}
}

func TestStatusCountsAdminOnly(t *testing.T) {
	svc, _ := newItemService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, validItemInput(), reporterCaller); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.StatusCounts(ctx, reporterCaller); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("student stats kind = %q, want forbidden", apperr.KindOf(err))
	}
	counts, err := svc.StatusCounts(ctx, adminCaller)
	if err != nil {
		t.Fatalf("admin stats: %v", err)
	}
	if counts["active"] != 1 {
		t.Errorf("active count = %d, want 1", counts["active"])
	}
}
