package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/stayledger/internal/models"
	"github.com/mmynk/stayledger/internal/storage"
)

const bookingColumns = `id, unit_id, confirmation_code, guest_name, city, guests,
	check_in, check_out, source, payment_method, guest_type, status, days, is_paid,
	payout, cleaning_fee, tax_percent, tax_amount, commission_percent, commission_base,
	net_payout, commission_value, client_income, o2_total, room_fee,
	notes, check_in_notes, check_out_notes, last_updated_via, last_updated_at, created_at`

// notCancelled excludes every status starting with "cancel" in any case.
const notCancelled = "LOWER(status) NOT LIKE 'cancel%'"

// CreateBooking persists a new booking and assigns its ID.
func (q *queries) CreateBooking(ctx context.Context, b *models.Booking) error {
	if b.CreatedAt == 0 {
		b.CreatedAt = time.Now().Unix()
	}

	res, err := q.q.ExecContext(ctx,
		`INSERT INTO bookings (unit_id, confirmation_code, guest_name, city, guests,
			check_in, check_out, source, payment_method, guest_type, status, days, is_paid,
			payout, cleaning_fee, tax_percent, tax_amount, commission_percent, commission_base,
			net_payout, commission_value, client_income, o2_total, room_fee,
			notes, check_in_notes, check_out_notes, last_updated_via, last_updated_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UnitID, b.ConfirmationCode, b.GuestName, b.City, b.Guests,
		q.formatTime(b.CheckIn), q.formatTime(b.CheckOut),
		string(b.Source), string(b.PaymentMethod), string(b.GuestType), string(b.Status), b.Days, b.IsPaid,
		b.Payout, b.CleaningFee, b.TaxPercent, b.TaxAmount, b.CommissionPercent, b.CommissionBase,
		b.NetPayout, b.CommissionValue, b.ClientIncome, b.O2Total, b.RoomFee,
		b.Notes, b.CheckInNotes, b.CheckOutNotes, b.LastUpdatedVia, b.LastUpdatedAt, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read booking id: %w", err)
	}
	b.ID = id
	return nil
}

// UpdateBooking overwrites every column of an existing booking.
func (q *queries) UpdateBooking(ctx context.Context, b *models.Booking) error {
	res, err := q.q.ExecContext(ctx,
		`UPDATE bookings SET unit_id = ?, confirmation_code = ?, guest_name = ?, city = ?, guests = ?,
			check_in = ?, check_out = ?, source = ?, payment_method = ?, guest_type = ?, status = ?,
			days = ?, is_paid = ?,
			payout = ?, cleaning_fee = ?, tax_percent = ?, tax_amount = ?, commission_percent = ?,
			commission_base = ?, net_payout = ?, commission_value = ?, client_income = ?, o2_total = ?,
			room_fee = ?, notes = ?, check_in_notes = ?, check_out_notes = ?,
			last_updated_via = ?, last_updated_at = ?
		 WHERE id = ?`,
		b.UnitID, b.ConfirmationCode, b.GuestName, b.City, b.Guests,
		q.formatTime(b.CheckIn), q.formatTime(b.CheckOut),
		string(b.Source), string(b.PaymentMethod), string(b.GuestType), string(b.Status),
		b.Days, b.IsPaid,
		b.Payout, b.CleaningFee, b.TaxPercent, b.TaxAmount, b.CommissionPercent,
		b.CommissionBase, b.NetPayout, b.CommissionValue, b.ClientIncome, b.O2Total,
		b.RoomFee, b.Notes, b.CheckInNotes, b.CheckOutNotes,
		b.LastUpdatedVia, b.LastUpdatedAt,
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return notFound("booking", b.ID)
	}
	return nil
}

// GetBooking retrieves a booking by ID.
func (q *queries) GetBooking(ctx context.Context, bookingID int64) (*models.Booking, error) {
	row := q.q.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id = ?",
		bookingID,
	)
	b, err := q.scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, notFound("booking", bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// ListBookings returns bookings ordered by check-in.
func (q *queries) ListBookings(ctx context.Context, filter storage.BookingFilter) ([]*models.Booking, error) {
	var (
		where []string
		args  []any
	)
	if filter.UnitID != 0 {
		where = append(where, "unit_id = ?")
		args = append(args, filter.UnitID)
	}
	if !filter.IncludeCancelled {
		where = append(where, notCancelled)
	}

	query := "SELECT " + bookingColumns + " FROM bookings"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY check_in, id"

	return q.queryBookings(ctx, query, args...)
}

// UpdateBookingStatus sets only the status column.
func (q *queries) UpdateBookingStatus(ctx context.Context, bookingID int64, status models.Status) error {
	res, err := q.q.ExecContext(ctx,
		"UPDATE bookings SET status = ? WHERE id = ?",
		string(status), bookingID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return notFound("booking", bookingID)
	}
	return nil
}

// FindOverlappingBookings returns active bookings of a unit whose stay
// intersects [checkIn, checkOut). A stay ending exactly when another starts
// does not overlap it.
func (q *queries) FindOverlappingBookings(ctx context.Context, unitID int64, checkIn, checkOut time.Time, excludeID int64) ([]*models.Booking, error) {
	return q.queryBookings(ctx,
		"SELECT "+bookingColumns+` FROM bookings
		 WHERE unit_id = ? AND check_in < ? AND check_out > ? AND id != ? AND `+notCancelled+`
		 ORDER BY check_in, id`,
		unitID, q.formatTime(checkOut), q.formatTime(checkIn), excludeID,
	)
}

func (q *queries) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := q.scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (q *queries) scanBooking(row scanner) (*models.Booking, error) {
	b := &models.Booking{}
	var (
		checkIn, checkOut                 string
		source, method, guestType, status string
		isPaid                            sql.NullBool
	)
	err := row.Scan(
		&b.ID, &b.UnitID, &b.ConfirmationCode, &b.GuestName, &b.City, &b.Guests,
		&checkIn, &checkOut, &source, &method, &guestType, &status, &b.Days, &isPaid,
		&b.Payout, &b.CleaningFee, &b.TaxPercent, &b.TaxAmount, &b.CommissionPercent, &b.CommissionBase,
		&b.NetPayout, &b.CommissionValue, &b.ClientIncome, &b.O2Total, &b.RoomFee,
		&b.Notes, &b.CheckInNotes, &b.CheckOutNotes, &b.LastUpdatedVia, &b.LastUpdatedAt, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if b.CheckIn, err = q.parseTime(checkIn); err != nil {
		return nil, err
	}
	if b.CheckOut, err = q.parseTime(checkOut); err != nil {
		return nil, err
	}
	b.Source = models.Source(source)
	b.PaymentMethod = models.PaymentMethod(method)
	b.GuestType = models.GuestType(guestType)
	b.Status = models.Status(status)
	if isPaid.Valid {
		paid := isPaid.Bool
		b.IsPaid = &paid
	}
	return b, nil
}
