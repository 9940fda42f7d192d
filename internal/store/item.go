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

// ItemFilter narrows, orders, and pages an item listing. Zero values
// mean "no constraint".
type ItemFilter struct {
	Category  string
	Status    string
	Type      string
	Search    string
	SortBy    string
	SortOrder string
	Offset    int
	Limit     int
}

// itemSortColumns whitelists client-supplied sort keys.
var itemSortColumns = map[string]string{
	"created_at": "created_at",
	"date":       "date",
	"title":      "title",
	"status":     "status",
}

// ItemRepository handles persistence for lost/found items.
type ItemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = `id, title, description, category, type, location, date, images, status,
		reporter_id, claimant_id, claimed_at, contact_phone, contact_email,
		verified, verifier_id, verified_at, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (types.Item, error) {
	var item types.Item
	var imagesJSON []byte
	err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Description,
		&item.Category,
		&item.Type,
		&item.Location,
		&item.Date,
		&imagesJSON,
		&item.Status,
		&item.ReporterID,
		&item.ClaimantID,
		&item.ClaimedAt,
		&item.ContactPhone,
		&item.ContactEmail,
		&item.Verified,
		&item.VerifierID,
		&item.VerifiedAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return types.Item{}, err
	}
	_ = json.Unmarshal(imagesJSON, &item.Images)
	return item, nil
}

func (r *ItemRepository) List(ctx context.Context, filter ItemFilter) ([]types.Item, int, error) {
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
	if filter.Type != "" {
		addCondition("type = $%d", filter.Type)
	}
	if filter.Search != "" {
		addCondition("(title ILIKE $%[1]d OR description ILIKE $%[1]d OR location ILIKE $%[1]d)",
			"%"+filter.Search+"%")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := `SELECT COUNT(1) FROM items ` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortColumn, ok := itemSortColumns[filter.SortBy]
	if !ok {
		sortColumn = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}

	args = append(args, filter.Offset, filter.Limit)
	listQuery := fmt.Sprintf(`
		SELECT `+itemColumns+`
		FROM items
		%s
		ORDER BY %s %s
		OFFSET $%d LIMIT $%d`, where, sortColumn, direction, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]types.Item, 0, filter.Limit)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *ItemRepository) Get(ctx context.Context, id int) (types.Item, error) {
	const query = `
		SELECT ` + itemColumns + `
		FROM items
		WHERE id = $1`
	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Item{}, ErrNotFound
		}
		return types.Item{}, err
	}
	return item, nil
}

func (r *ItemRepository) Create(ctx context.Context, item types.Item) (types.Item, error) {
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	imagesJSON, err := json.Marshal(item.Images)
	if err != nil {
		return types.Item{}, err
	}

	const query = `
		INSERT INTO items (title, description, category, type, location, date, images, status,
			reporter_id, claimant_id, claimed_at, contact_phone, contact_email,
			verified, verifier_id, verified_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		item.Title,
		item.Description,
		item.Category,
		item.Type,
		item.Location,
		item.Date,
		imagesJSON,
		item.Status,
		item.ReporterID,
		item.ClaimantID,
		item.ClaimedAt,
		item.ContactPhone,
		item.ContactEmail,
		item.Verified,
		item.VerifierID,
		item.VerifiedAt,
		item.CreatedAt,
		item.UpdatedAt,
	).Scan(&item.ID); err != nil {
		return types.Item{}, err
	}
	return item, nil
}

func (r *ItemRepository) Update(ctx context.Context, item types.Item) (types.Item, error) {
	item.UpdatedAt = time.Now()

	imagesJSON, err := json.Marshal(item.Images)
	if err != nil {
		return types.Item{}, err
	}

	const query = `
		UPDATE items
		SET title = $1,
			description = $2,
			category = $3,
			type = $4,
			location = $5,
			date = $6,
			images = $7,
			status = $8,
			claimant_id = $9,
			claimed_at = $10,
			contact_phone = $11,
			contact_email = $12,
			verified = $13,
			verifier_id = $14,
			verified_at = $15,
			updated_at = $16
		WHERE id = $17`
	result, err := r.db.ExecContext(
		ctx,
		query,
		item.Title,
		item.Description,
		item.Category,
		item.Type,
		item.Location,
		item.Date,
		imagesJSON,
		item.Status,
		item.ClaimantID,
		item.ClaimedAt,
		item.ContactPhone,
		item.ContactEmail,
		item.Verified,
		item.VerifierID,
		item.VerifiedAt,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		return types.Item{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Item{}, err
	}
	if affected == 0 {
		return types.Item{}, ErrNotFound
	}
	return item, nil
}

// ClaimIfActive transitions an item to claimed with a single
// conditional write, so two racing claimants cannot both succeed.
// Returns ErrConflict when the item is no longer active.
func (r *ItemRepository) ClaimIfActive(ctx context.Context, id, claimantID int, at time.Time) error {
	const query = `
		UPDATE items
		SET status = $1,
			claimant_id = $2,
			claimed_at = $3,
			updated_at = $3
		WHERE id = $4 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, types.ItemStatusClaimed, claimantID, at, id, types.ItemStatusActive)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *ItemRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM items WHERE id = $1`
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

// CountByStatus returns the number of items per status.
func (r *ItemRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	const query = `SELECT status, COUNT(1) FROM items GROUP BY status`
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
