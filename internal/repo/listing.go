package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tbardin/equiprent/internal/domain"
)

// ListingRepo defines the persistence operations for equipment listings.
// The listing row is the single source of truth for total_quantity; the
// booking engine reads it but never writes it.
type ListingRepo interface {
	// Create inserts a new listing and returns the persisted record (with
	// DB-generated id, created_at, and updated_at populated).
	Create(ctx context.Context, listing domain.Listing) (domain.Listing, error)

	// GetByID retrieves a single listing by its UUID primary key.
	// Returns domain.ErrNotFound if no listing with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Listing, error)

	// Search returns one page of listings matching the filter, plus the total
	// match count. SearchTerm matches name and location case-insensitively.
	Search(ctx context.Context, f domain.ListingFilter, p domain.PaginationParams) ([]domain.Listing, int64, error)

	// Update overwrites the mutable fields of an existing listing and returns
	// the updated record. Returns domain.ErrNotFound if it does not exist.
	Update(ctx context.Context, listing domain.Listing) (domain.Listing, error)

	// Delete removes a listing by ID. Returns domain.ErrNotFound if it does
	// not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgListingRepo is the Postgres implementation of ListingRepo.
type pgListingRepo struct {
	db db
}

// NewListingRepo constructs a ListingRepo backed by the provided db connection.
func NewListingRepo(db db) ListingRepo {
	return &pgListingRepo{db: db}
}

const listingColumns = `id, owner_id, name, description, equipment_type,
	daily_rate, weekly_rate, monthly_rate, total_quantity, condition,
	manufacturer, model_year, location, rental_terms, is_available, image_urls,
	created_at, updated_at`

// Create inserts a new listing row and returns the full persisted record.
func (r *pgListingRepo) Create(ctx context.Context, listing domain.Listing) (domain.Listing, error) {
	const q = `
		INSERT INTO listings (owner_id, name, description, equipment_type,
			daily_rate, weekly_rate, monthly_rate, total_quantity, condition,
			manufacturer, model_year, location, rental_terms, is_available, image_urls)
		VALUES (@owner_id, @name, @description, @equipment_type,
			@daily_rate, @weekly_rate, @monthly_rate, @total_quantity, @condition,
			@manufacturer, @model_year, @location, @rental_terms, @is_available, @image_urls)
		RETURNING ` + listingColumns

	row := r.db.QueryRow(ctx, q, listingArgs(listing))
	result, err := scanListing(row)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("repo.ListingRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a listing by primary key.
func (r *pgListingRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Listing, error) {
	const q = `SELECT ` + listingColumns + ` FROM listings WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanListing(row)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("repo.ListingRepo.GetByID: %w", err)
	}
	return result, nil
}

// Search returns one filtered, sorted page of listings plus the total count.
// A nil f.Available means "any availability"; only an explicit true or false
// filters on the advisory flag.
func (r *pgListingRepo) Search(ctx context.Context, f domain.ListingFilter, p domain.PaginationParams) ([]domain.Listing, int64, error) {
	const where = `
		WHERE (name ILIKE @pattern OR location ILIKE @pattern)
		  AND (@available::boolean IS NULL OR is_available = @available)`

	args := pgx.NamedArgs{
		"pattern":   "%" + escapeLike(f.SearchTerm) + "%",
		"available": f.Available, // nil becomes NULL, disabling the filter
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM listings`+where, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.ListingRepo.Search: count: %w", err)
	}

	// ORDER BY cannot be parameterized; the column is whitelisted here rather
	// than interpolated from user input.
	q := `SELECT ` + listingColumns + ` FROM listings` + where +
		` ORDER BY ` + sortColumn(f.SortBy) + sortDirection(f.SortDesc) +
		` LIMIT @limit OFFSET @offset`
	args["limit"] = p.Limit
	args["offset"] = p.Offset()

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ListingRepo.Search: %w", err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.ListingRepo.Search: scan: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.ListingRepo.Search: rows: %w", err)
	}
	return listings, total, nil
}

// Update overwrites the mutable fields of a listing and returns the updated record.
func (r *pgListingRepo) Update(ctx context.Context, listing domain.Listing) (domain.Listing, error) {
	const q = `
		UPDATE listings
		SET name           = @name,
		    description    = @description,
		    equipment_type = @equipment_type,
		    daily_rate     = @daily_rate,
		    weekly_rate    = @weekly_rate,
		    monthly_rate   = @monthly_rate,
		    total_quantity = @total_quantity,
		    condition      = @condition,
		    manufacturer   = @manufacturer,
		    model_year     = @model_year,
		    location       = @location,
		    rental_terms   = @rental_terms,
		    is_available   = @is_available,
		    image_urls     = @image_urls,
		    updated_at     = now()
		WHERE id = @id
		RETURNING ` + listingColumns

	args := listingArgs(listing)
	args["id"] = listing.ID

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanListing(row)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("repo.ListingRepo.Update: %w", err)
	}
	return result, nil
}

// Delete removes a listing by primary key.
func (r *pgListingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM listings WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.ListingRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ListingRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// likeEscaper neutralizes the LIKE metacharacters in a user-supplied search
// term so "100%" matches the literal string, not everything starting with
// "100". Backslash is Postgres's default LIKE escape character.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// sortColumn whitelists the search sort key to a real column name.
func sortColumn(sortBy string) string {
	switch sortBy {
	case "daily_rate":
		return "daily_rate"
	case "name":
		return "name"
	default:
		return "created_at"
	}
}

func sortDirection(desc bool) string {
	if desc {
		return " DESC"
	}
	return " ASC"
}

// listingArgs maps the mutable listing fields to named SQL arguments,
// shared by Create and Update.
func listingArgs(l domain.Listing) pgx.NamedArgs {
	return pgx.NamedArgs{
		"owner_id":       l.OwnerID,
		"name":           l.Name,
		"description":    l.Description,
		"equipment_type": l.EquipmentType,
		"daily_rate":     l.DailyRate,
		"weekly_rate":    l.WeeklyRate,
		"monthly_rate":   l.MonthlyRate,
		"total_quantity": l.TotalQuantity,
		"condition":      l.Condition,
		"manufacturer":   l.Manufacturer,
		"model_year":     l.ModelYear,
		"location":       l.Location,
		"rental_terms":   l.RentalTerms,
		"is_available":   l.IsAvailable,
		"image_urls":     l.ImageURLs,
	}
}

// scanListing maps a single database row into a domain.Listing.
func scanListing(s scanner) (domain.Listing, error) {
	var (
		l   domain.Listing
		id  pgtype.UUID
		oid pgtype.UUID
	)

	err := s.Scan(&id, &oid, &l.Name, &l.Description, &l.EquipmentType,
		&l.DailyRate, &l.WeeklyRate, &l.MonthlyRate, &l.TotalQuantity, &l.Condition,
		&l.Manufacturer, &l.ModelYear, &l.Location, &l.RentalTerms, &l.IsAvailable,
		&l.ImageURLs, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Listing{}, domain.ErrNotFound
		}
		return domain.Listing{}, err
	}

	l.ID = uuid.UUID(id.Bytes)
	l.OwnerID = uuid.UUID(oid.Bytes)
	return l, nil
}
