package services

import (
	"context"
	"time"

	"github.com/campusdesk/apiserver/internal/auth"
	"github.com/campusdesk/apiserver/internal/store"
	"github.com/campusdesk/apiserver/types"
)

type fakeUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newFakeUserRepo(users ...types.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[int]types.User), nextID: 1}
	for _, u := range users {
		if u.ID >= repo.nextID {
			repo.nextID = u.ID + 1
		}
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) List(_ context.Context, offset, limit int) ([]types.User, int, error) {
	all := make([]types.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	return all, len(all), nil
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

type fakeItemRepo struct {
	items  map[int]types.Item
	nextID int
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[int]types.Item), nextID: 1}
}

func (r *fakeItemRepo) List(_ context.Context, _ store.ItemFilter) ([]types.Item, int, error) {
	all := make([]types.Item, 0, len(r.items))
	for _, item := range r.items {
		all = append(all, item)
	}
	return all, len(all), nil
}

func (r *fakeItemRepo) Get(_ context.Context, id int) (types.Item, error) {
	item, ok := r.items[id]
	if !ok {
		return types.Item{}, store.ErrNotFound
	}
	return item, nil
}

func (r *fakeItemRepo) Create(_ context.Context, item types.Item) (types.Item, error) {
	item.ID = r.nextID
	r.nextID++
	r.items[item.ID] = item
	return item, nil
}

func (r *fakeItemRepo) Update(_ context.Context, item types.Item) (types.Item, error) {
	if _, ok := r.items[item.ID]; !ok {
		return types.Item{}, store.ErrNotFound
	}
	r.items[item.ID] = item
	return item, nil
}

func (r *fakeItemRepo) ClaimIfActive(_ context.Context, id, claimantID int, at time.Time) error {
	item, ok := r.items[id]
	if !ok || item.Status != types.ItemStatusActive {
		return store.ErrConflict
	}
	item.Status = types.ItemStatusClaimed
	item.ClaimantID = &claimantID
	item.ClaimedAt = &at
	r.items[id] = item
	return nil
}

func (r *fakeItemRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeItemRepo) CountByStatus(_ context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, item := range r.items {
		counts[string(item.Status)]++
	}
	return counts, nil
}

type fakeIssueRepo struct {
	issues map[int]types.Issue
	nextID int
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{issues: make(map[int]types.Issue), nextID: 1}
}

func (r *fakeIssueRepo) List(_ context.Context, _ store.IssueFilter) ([]types.Issue, int, error) {
	all := make([]types.Issue, 0, len(r.issues))
	for _, issue := range r.issues {
		all = append(all, issue)
	}
	return all, len(all), nil
}

func (r *fakeIssueRepo) Get(_ context.Context, id int) (types.Issue, error) {
	issue, ok := r.issues[id]
	if !ok {
		return types.Issue{}, store.ErrNotFound
	}
	return issue, nil
}

func (r *fakeIssueRepo) Create(_ context.Context, issue types.Issue) (types.Issue, error) {
	issue.ID = r.nextID
	r.nextID++
	r.issues[issue.ID] = issue
	return issue, nil
}

func (r *fakeIssueRepo) Update(_ context.Context, issue types.Issue) (types.Issue, error) {
	if _, ok := r.issues[issue.ID]; !ok {
		return types.Issue{}, store.ErrNotFound
	}
	r.issues[issue.ID] = issue
	return issue, nil
}

func (r *fakeIssueRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.issues[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.issues, id)
	return nil
}

func (r *fakeIssueRepo) CountByStatus(_ context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, issue := range r.issues {
		counts[string(issue.Status)]++
	}
	return counts, nil
}

// Shared test fixtures.
var (
	reporterCaller = &auth.Caller{ID: 1, Role: types.RoleStudent, Active: true}
	otherCaller    = &auth.Caller{ID: 2, Role: types.RoleStudent, Active: true}
	adminCaller    = &auth.Caller{ID: 3, Role: types.RoleAdmin, Active: true}
)

func testUsers() *fakeUserRepo {
	return newFakeUserRepo(
		types.User{ID: 1, Name: "Alice", Email: "alice@campus.edu", Role: types.RoleStudent, Active: true},
		types.User{ID: 2, Name: "Bob", Email: "bob@campus.edu", Role: types.RoleStudent, Active: true},
		types.User{ID: 3, Name: "Root", Email: "root@campus.edu", Role: types.RoleAdmin, Active: true},
	)
}

func validItemInput() ItemCreateInput {
	return ItemCreateInput{
		Title:        "Blue Backpack",
		Description:  "Navy blue backpack with laptop sleeve",
		Category:     "bags",
		Type:         "lost",
		Location:     "Main Library",
		Date:         "2025-03-10",
		Images:       []string{"https://cdn.example.com/img/1.jpg"},
		ContactPhone: "9876543210",
		ContactEmail: "alice@campus.edu",
	}
}

func validIssueInput() IssueCreateInput {
	return IssueCreateInput{
		Title:       "Leaking tap",
		Description: "Tap in hostel block B leaks continuously",
		Category:    "plumbing",
		Location:    "Hostel Block B",
	}
}
