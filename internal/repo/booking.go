package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tbardin/equiprent/internal/domain"
)

// BookingRepo defines the persistence operations for the booking ledger.
// The ledger is append-only apart from status transitions: Create inserts,
// Transition updates status and updated_at only, and DeleteTerminal is the
// single destructive operation, restricted to terminal statuses.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with the
// in-memory twin in repo/memory.
type BookingRepo interface {
	// Create inserts a new booking with status requested and returns the
	// persisted record. The implementation must re-validate capacity for the
	// booking's window atomically with the insert and return
	// domain.ErrCapacityConflict when a concurrent booking consumed the
	// remaining units first. Returns domain.ErrNotFound if the listing does
	// not exist.
	Create(ctx context.Context, booking domain.Booking) (domain.Booking, error)

	// GetByID retrieves a single booking by its UUID primary key.
	// Returns domain.ErrNotFound if no booking with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Booking, error)

	// Transition atomically moves a booking to status "to", permitting only
	// source statuses from which the state machine allows that edge.
	// Returns domain.ErrNotFound if the booking does not exist and
	// domain.ErrInvalidTransition if its current status forbids the edge
	// (e.g. cancelling an already-cancelled booking).
	Transition(ctx context.Context, id uuid.UUID, to domain.BookingStatus) (domain.Booking, error)

	// DeleteTerminal permanently removes a booking that has reached a
	// terminal status. Returns domain.ErrNotFound if absent,
	// domain.ErrInvalidTransition if the booking is still requested or active.
	DeleteTerminal(ctx context.Context, id uuid.UUID) error

	// ListOverlapping returns all non-terminal bookings for the listing whose
	// inclusive date range overlaps [start, end], for availability sums.
	ListOverlapping(ctx context.Context, listingID uuid.UUID, start, end time.Time) ([]domain.Booking, error)

	// ListByRenter returns every booking for a renter, history included,
	// ordered by created_at descending.
	ListByRenter(ctx context.Context, renterID uuid.UUID) ([]domain.Booking, error)

	// ListCurrentByRenter returns the renter's non-terminal bookings,
	// ordered by created_at descending.
	ListCurrentByRenter(ctx context.Context, renterID uuid.UUID) ([]domain.Booking, error)

	// ListPaged returns one page of all bookings (admin view) ordered by
	// created_at descending, plus the total row count for pagination.
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Booking, int64, error)

	// ListRequestsForOwner returns bookings against any listing owned by
	// ownerID, joined with the renter's identity, ordered by created_at
	// descending. Feeds the listing owner's dashboard.
	ListRequestsForOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.BookingWithRenter, error)

	// ActivateDue moves requested bookings whose window has begun to active.
	// Returns the number of rows changed.
	ActivateDue(ctx context.Context, today time.Time) (int64, error)

	// CompleteElapsed moves active bookings whose window has fully elapsed to
	// completed. Returns the number of rows changed.
	CompleteElapsed(ctx context.Context, today time.Time) (int64, error)
}

// pgBookingRepo is the Postgres implementation of BookingRepo.
type pgBookingRepo struct {
	db db
}

// NewBookingRepo constructs a BookingRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewBookingRepo(db db) BookingRepo {
	return &pgBookingRepo{db: db}
}

const bookingColumns = `id, listing_id, renter_id, quantity, start_date, end_date, status, created_at, updated_at`

// Create inserts a booking inside a transaction that re-validates capacity at
// commit time. The listing row is locked with FOR UPDATE, so for a fixed
// listing all check-then-insert sections are serialized by Postgres: two
// concurrent requests can never both observe sufficient free units and both
// commit. This is the storage-level half of the oversell guarantee; the
// service's per-listing mutex avoids most conflicts before they reach here.
func (r *pgBookingRepo) Create(ctx context.Context, booking domain.Booking) (domain.Booking, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Create: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const lockQ = `SELECT total_quantity FROM listings WHERE id = @listing_id FOR UPDATE`

	var total int
	err = tx.QueryRow(ctx, lockQ, pgx.NamedArgs{"listing_id": booking.ListingID}).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Create: %w", domain.ErrNotFound)
		}
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Create: lock listing: %w", err)
	}

	const sumQ = `
		SELECT COALESCE(SUM(quantity), 0)
		FROM bookings
		WHERE listing_id = @listing_id
		  AND status = ANY(@statuses)
		  AND start_date <= @end_date
		  AND end_date >= @start_date`

	var reserved int
	err = tx.QueryRow(ctx, sumQ, pgx.NamedArgs{
		"listing_id": booking.ListingID,
		"statuses":   statusStrings(domain.NonTerminalStatuses),
		"start_date": booking.StartDate,
		"end_date":   booking.EndDate,
	}).Scan(&reserved)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Create: sum overlap: %w", err)
	}

	if reserved+booking.Quantity > total {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Create: %w", domain.ErrCapacityConflict)
	}

	const insertQ = `
		INSERT INTO bookings (listing_id, renter_id, quantity, start_date, end_date, status)
		VALUES (@listing_id, @renter_id, @quantity, @start_date, @end_date, @status)
		RETURNING ` + bookingColumns

	row := tx.QueryRow(ctx, insertQ, pgx.NamedArgs{
		"listing_id": booking.ListingID,
		"renter_id":  booking.RenterID,
		"quantity":   booking.Quantity,
		"start_date": booking.StartDate,
		"end_date":   booking.EndDate,
		"status":     string(domain.StatusRequested),
	})
	result, err := scanBooking(row)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Create: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Create: commit: %w", err)
	}
	return result, nil
}

// GetByID retrieves a booking by primary key.
func (r *pgBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanBooking(row)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.GetByID: %w", err)
	}
	return result, nil
}

// Transition performs a conditional status update: the WHERE clause only
// matches rows whose current status permits the edge, so concurrent
// double-cancels resolve cleanly — the second one matches zero rows and is
// diagnosed as ErrInvalidTransition.
func (r *pgBookingRepo) Transition(ctx context.Context, id uuid.UUID, to domain.BookingStatus) (domain.Booking, error) {
	from := transitionSources(to)
	if len(from) == 0 {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Transition: %w", domain.ErrInvalidTransition)
	}

	const q = `
		UPDATE bookings
		SET status = @to, updated_at = now()
		WHERE id = @id AND status = ANY(@from)
		RETURNING ` + bookingColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"id":   id,
		"to":   string(to),
		"from": statusStrings(from),
	})
	result, err := scanBooking(row)
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Transition: %w", err)
	}

	// Zero rows matched: either the booking is absent or its status forbids
	// the edge. Look it up to report the right error.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Transition: %w", domain.ErrNotFound)
	}
	return domain.Booking{}, fmt.Errorf("repo.BookingRepo.Transition: %w", domain.ErrInvalidTransition)
}

// DeleteTerminal removes a booking only once it has reached a terminal status.
func (r *pgBookingRepo) DeleteTerminal(ctx context.Context, id uuid.UUID) error {
	const q = `
		DELETE FROM bookings
		WHERE id = @id
		  AND status = ANY(@terminal)`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"id":       id,
		"terminal": []string{string(domain.StatusCompleted), string(domain.StatusCancelled)},
	})
	if err != nil {
		return fmt.Errorf("repo.BookingRepo.DeleteTerminal: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return fmt.Errorf("repo.BookingRepo.DeleteTerminal: %w", domain.ErrNotFound)
	}
	return fmt.Errorf("repo.BookingRepo.DeleteTerminal: %w", domain.ErrInvalidTransition)
}

// ListOverlapping returns non-terminal bookings competing with [start, end].
// Boundaries are inclusive on both sides (daily-granularity accounting).
func (r *pgBookingRepo) ListOverlapping(ctx context.Context, listingID uuid.UUID, start, end time.Time) ([]domain.Booking, error) {
	const q = `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE listing_id = @listing_id
		  AND status = ANY(@statuses)
		  AND start_date <= @end_date
		  AND end_date >= @start_date
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"listing_id": listingID,
		"statuses":   statusStrings(domain.NonTerminalStatuses),
		"start_date": start,
		"end_date":   end,
	})
	if err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.ListOverlapping: %w", err)
	}
	return collectBookings(rows, "repo.BookingRepo.ListOverlapping")
}

// ListByRenter returns all bookings for a renter, most recent first.
func (r *pgBookingRepo) ListByRenter(ctx context.Context, renterID uuid.UUID) ([]domain.Booking, error) {
	const q = `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE renter_id = @renter_id
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"renter_id": renterID})
	if err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.ListByRenter: %w", err)
	}
	return collectBookings(rows, "repo.BookingRepo.ListByRenter")
}

// ListCurrentByRenter returns the renter's non-terminal bookings, most recent first.
func (r *pgBookingRepo) ListCurrentByRenter(ctx context.Context, renterID uuid.UUID) ([]domain.Booking, error) {
	const q = `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE renter_id = @renter_id
		  AND status = ANY(@statuses)
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"renter_id": renterID,
		"statuses":  statusStrings(domain.NonTerminalStatuses),
	})
	if err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.ListCurrentByRenter: %w", err)
	}
	return collectBookings(rows, "repo.BookingRepo.ListCurrentByRenter")
}

// ListPaged returns one page of all bookings plus the total count.
func (r *pgBookingRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Booking, int64, error) {
	const countQ = `SELECT count(*) FROM bookings`

	var total int64
	if err := r.db.QueryRow(ctx, countQ).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.BookingRepo.ListPaged: count: %w", err)
	}

	const q = `
		SELECT ` + bookingColumns + `
		FROM bookings
		ORDER BY created_at DESC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.BookingRepo.ListPaged: %w", err)
	}
	bookings, err := collectBookings(rows, "repo.BookingRepo.ListPaged")
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// ListRequestsForOwner joins bookings against the owner's listings with the
// renter's identity for the dashboard view.
func (r *pgBookingRepo) ListRequestsForOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.BookingWithRenter, error) {
	const q = `
		SELECT b.id, b.listing_id, b.renter_id, b.quantity, b.start_date, b.end_date,
		       b.status, b.created_at, b.updated_at, u.name, u.email
		FROM bookings b
		JOIN listings l ON l.id = b.listing_id
		JOIN users u    ON u.id = b.renter_id
		WHERE l.owner_id = @owner_id
		ORDER BY b.created_at DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.ListRequestsForOwner: %w", err)
	}
	defer rows.Close()

	var out []domain.BookingWithRenter
	for rows.Next() {
		var (
			bwr    domain.BookingWithRenter
			id     pgtype.UUID
			lid    pgtype.UUID
			rid    pgtype.UUID
			sd, ed pgtype.Date
			status string
		)
		err := rows.Scan(&id, &lid, &rid, &bwr.Quantity, &sd, &ed, &status,
			&bwr.CreatedAt, &bwr.UpdatedAt, &bwr.RenterName, &bwr.RenterEmail)
		if err != nil {
			return nil, fmt.Errorf("repo.BookingRepo.ListRequestsForOwner: scan: %w", err)
		}
		bwr.ID = uuid.UUID(id.Bytes)
		bwr.ListingID = uuid.UUID(lid.Bytes)
		bwr.RenterID = uuid.UUID(rid.Bytes)
		bwr.StartDate = sd.Time
		bwr.EndDate = ed.Time
		bwr.Status = domain.BookingStatus(status)
		out = append(out, bwr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.BookingRepo.ListRequestsForOwner: rows: %w", err)
	}
	return out, nil
}

// ActivateDue bulk-advances requested bookings whose window has begun.
func (r *pgBookingRepo) ActivateDue(ctx context.Context, today time.Time) (int64, error) {
	const q = `
		UPDATE bookings
		SET status = @active, updated_at = now()
		WHERE status = @requested
		  AND start_date <= @today`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"active":    string(domain.StatusActive),
		"requested": string(domain.StatusRequested),
		"today":     today,
	})
	if err != nil {
		return 0, fmt.Errorf("repo.BookingRepo.ActivateDue: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CompleteElapsed bulk-advances active bookings whose window has elapsed.
// Run after ActivateDue so a requested booking whose whole window passed
// between sweeps travels requested → active → completed in one sweep.
func (r *pgBookingRepo) CompleteElapsed(ctx context.Context, today time.Time) (int64, error) {
	const q = `
		UPDATE bookings
		SET status = @completed, updated_at = now()
		WHERE status = @active
		  AND end_date < @today`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"completed": string(domain.StatusCompleted),
		"active":    string(domain.StatusActive),
		"today":     today,
	})
	if err != nil {
		return 0, fmt.Errorf("repo.BookingRepo.CompleteElapsed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// transitionSources returns the statuses from which the state machine permits
// moving to "to".
func transitionSources(to domain.BookingStatus) []domain.BookingStatus {
	var from []domain.BookingStatus
	for _, s := range []domain.BookingStatus{
		domain.StatusRequested, domain.StatusActive,
		domain.StatusCompleted, domain.StatusCancelled,
	} {
		if s.CanTransitionTo(to) {
			from = append(from, s)
		}
	}
	return from
}

// statusStrings converts statuses to plain strings for ANY(...) parameters.
func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// scanBooking maps a single database row into a domain.Booking.
func scanBooking(s scanner) (domain.Booking, error) {
	var (
		b      domain.Booking
		id     pgtype.UUID
		lid    pgtype.UUID
		rid    pgtype.UUID
		sd, ed pgtype.Date
		status string
	)

	err := s.Scan(&id, &lid, &rid, &b.Quantity, &sd, &ed, &status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Booking{}, domain.ErrNotFound
		}
		return domain.Booking{}, err
	}

	b.ID = uuid.UUID(id.Bytes)
	b.ListingID = uuid.UUID(lid.Bytes)
	b.RenterID = uuid.UUID(rid.Bytes)
	b.StartDate = sd.Time
	b.EndDate = ed.Time
	b.Status = domain.BookingStatus(status)
	return b, nil
}

// collectBookings drains rows into a slice, closing them when done.
func collectBookings(rows pgx.Rows, op string) ([]domain.Booking, error) {
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return bookings, nil
}
