package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campusdesk/apiserver/types"
)

// IssueFilter narrows, orders, and pages an issue listing. Zero values
// mean "no constraint".
type IssueFilter struct {
	Category  string
	Status    string
	Priority  string
	Search    string
	SortBy    string
	SortOrder string
	Offset    int
	Limit     int
}

// issueSortColumns whitelists client-supplied sort keys.
var issueSortColumns = map[string]string{
	"created_at":   "created_at",
	"priority":     "priority",
	"status":       "status",
	"title":        "title",
	"upvote_count": "upvote_count",
}

// IssueRepository handles persistence for facility issues.
type IssueRepository struct {
	db *sql.DB
}

func NewIssueRepository(db *sql.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

const issueColumns = `id, title, description, category, priority, location, images, status,
		reporter_id, assignee_id, upvotes, upvote_count,
		resolved_at, resolved_by_id, resolution_notes, estimated_resolution,
		created_at, updated_at`

func scanIssue(row interface{ Scan(...any) error }) (types.Issue, error) {
	var issue types.Issue
	var imagesJSON, upvotesJSON []byte
	var notes sql.NullString
	err := row.Scan(
		&issue.ID,
		&issue.Title,
		&issue.Description,
		&issue.Category,
		&issue.Priority,
		&issue.Location,
		&imagesJSON,
		&issue.Status,
		&issue.ReporterID,
		&issue.AssigneeID,
		&upvotesJSON,
		&issue.UpvoteCount,
		&issue.ResolvedAt,
		&issue.ResolvedByID,
		&notes,
		&issue.EstimatedResolution,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	)
	if err != nil {
		return types.Issue{}, err
	}
	_ = json.Unmarshal(imagesJSON, &issue.Images)
	_ = json.Unmarshal(upvotesJSON, &issue.Upvotes)
	issue.ResolutionNotes = notes.String
	return issue, nil
}

func (r *IssueRepository) List(ctx context.Context, filter IssueFilter) ([]types.Issue, int, error) {
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}

	conditions := make([]string, 0, 4)
	args := make([]any, 0, 6)
	addCondition := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.Category != "" {
		addCondition("category = $%d", filter.Category)
	}
	if filter.Status != "" {
		addCondition("status = $%d", filter.Status)
	}
	if filter.Priority != "" {
		addCondition("priority = $%d", filter.Priority)
	}
	if filter.Search != "" {
		addCondition("(title ILIKE $%[1]d OR description ILIKE $%[1]d OR location ILIKE $%[1]d)",
			"%"+filter.Search+"%")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := `SELECT COUNT(1) FROM issues ` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortColumn, ok := issueSortColumns[filter.SortBy]
	if !ok {
		sortColumn = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}

	args = append(args, filter.Offset, filter.Limit)
	listQuery := fmt.Sprintf(`
		SELECT `+issueColumns+`
		FROM issues
		%s
		ORDER BY %s %s
		OFFSET $%d LIMIT $%d`, where, sortColumn, direction, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	issues := make([]types.Issue, 0, filter.Limit)
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, 0, err
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return issues, total, nil
}

func (r *IssueRepository) Get(ctx context.Context, id int) (types.Issue, error) {
	const query = `
		SELECT ` + issueColumns + `
		FROM issues
		WHERE id = $1`
	issue, err := scanIssue(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Issue{}, ErrNotFound
		}
		return types.Issue{}, err
	}
	return issue, nil
}

func (r *IssueRepository) Create(ctx context.Context, issue types.Issue) (types.Issue, error) {
	now := time.Now()
	issue.CreatedAt = now
	issue.UpdatedAt = now

	imagesJSON, err := json.Marshal(issue.Images)
	if err != nil {
		return types.Issue{}, err
	}
	upvotesJSON, err := json.Marshal(issue.Upvotes)
	if err != nil {
		return types.Issue{}, err
	}

	const query = `
		INSERT INTO issues (title, description, category, priority, location, images, status,
			reporter_id, assignee_id, upvotes, upvote_count,
			resolved_at, resolved_by_id, resolution_notes, estimated_resolution,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Priority,
		issue.Location,
		imagesJSON,
		issue.Status,
		issue.ReporterID,
		issue.AssigneeID,
		upvotesJSON,
		issue.UpvoteCount,
		issue.ResolvedAt,
		issue.ResolvedByID,
		issue.ResolutionNotes,
		issue.EstimatedResolution,
		issue.CreatedAt,
		issue.UpdatedAt,
	).Scan(&issue.ID); err != nil {
		return types.Issue{}, err
	}
	return issue, nil
}

func (r *IssueRepository) Update(ctx context.Context, issue types.Issue) (types.Issue, error) {
	issue.UpdatedAt = time.Now()

	imagesJSON, err := json.Marshal(issue.Images)
	if err != nil {
		return types.Issue{}, err
	}
	upvotesJSON, err := json.Marshal(issue.Upvotes)
	if err != nil {
		return types.Issue{}, err
	}

	const query = `
		UPDATE issues
		SET title = $1,
			description = $2,
			category = $3,
			priority = $4,
			location = $5,
			images = $6,
			status = $7,
			assignee_id = $8,
			upvotes = $9,
			upvote_count = $10,
			resolved_at = $11,
			resolved_by_id = $12,
			resolution_notes = $13,
			estimated_resolution = $14,
			updated_at = $15
		WHERE id = $16`
	result, err := r.db.ExecContext(
		ctx,
		query,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Priority,
		issue.Location,
		imagesJSON,
		issue.Status,
		issue.AssigneeID,
		upvotesJSON,
		issue.UpvoteCount,
		issue.ResolvedAt,
		issue.ResolvedByID,
		issue.ResolutionNotes,
		issue.EstimatedResolution,
		issue.UpdatedAt,
		issue.ID,
	)
	if err != nil {
		return types.Issue{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Issue{}, err
	}
	if affected == 0 {
		return types.Issue{}, ErrNotFound
	}
	return issue, nil
}

func (r *IssueRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM issues WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByStatus returns the number of issues per status.
func (r *IssueRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	const query = `SELECT status, COUNT(1) FROM issues GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
