package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	drv "github.com/go-sql-driver/mysql"

	"experiences/internal/domain"
)

const errDuplicateEntry = 1062

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// likeEscape escapes LIKE metacharacters so user input matches literally.
func likeEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func duplicateUsername(err error) error {
	var me *drv.MySQLError
	if errors.As(err, &me) && me.Number == errDuplicateEntry {
		return &domain.ValidationError{Fields: map[string]string{"username": "A user with that username already exists."}}
	}
	return err
}

type Repo struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Repo {
	return &Repo{db: db, now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }}
}

// inTx runs fn in a transaction, rolling back on any error.
func (r *Repo) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ---- users ----

func (r *Repo) CreateUser(ctx context.Context, u *domain.User, p *domain.Profile) error {
	joined := r.now()
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, insertUserSQL, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, joined)
		if err != nil {
			return duplicateUsername(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertProfileSQL, id, p.Image, p.Bio); err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		u.ID, u.DateJoined, p.UserID = id, joined, id
		return nil
	})
}

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.DateJoined)
	return u, err
}

func (r *Repo) GetUser(ctx context.Context, id int64) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUserSQL+" WHERE id = ?", id))
	return u, notFound(err)
}

func (r *Repo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUserSQL+" WHERE username = ?", username))
	return u, notFound(err)
}

func (r *Repo) GetProfile(ctx context.Context, userID int64) (domain.Profile, error) {
	var p domain.Profile
	err := r.db.QueryRowContext(ctx, selectProfileSQL, userID).Scan(&p.UserID, &p.Image, &p.Bio)
	return p, notFound(err)
}

func (r *Repo) UpdateAccount(ctx context.Context, u domain.User, p domain.Profile) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, updateUserSQL, u.Username, u.Email, u.FirstName, u.LastName, u.ID); err != nil {
			return duplicateUsername(err)
		}
		_, err := tx.ExecContext(ctx, updateProfileSQL, p.Image, p.Bio, u.ID)
		return err
	})
}

// ---- experiences ----

func (r *Repo) CreateExperience(ctx context.Context, e *domain.Experience) error {
	now := r.now()
	res, err := r.db.ExecContext(ctx, insertExperienceSQL,
		e.OwnerID,
		e.Title,
		e.Description,
		e.Price,
		e.Hours,
		e.Minutes,
		e.Language,
		e.City,
		e.Address,
		e.Zipcode,
		now, now,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID, e.CreatedAt, e.UpdatedAt = id, now, now
	return nil
}

func scanExperience(row interface{ Scan(...any) error }) (domain.Experience, error) {
	var e domain.Experience
	err := row.Scan(
		&e.ID,
		&e.OwnerID,
		&e.Title,
		&e.Description,
		&e.Price,
		&e.Hours,
		&e.Minutes,
		&e.Language,
		&e.City,
		&e.Address,
		&e.Zipcode,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}

func (r *Repo) GetExperience(ctx context.Context, id int64) (domain.Experience, error) {
	e, err := scanExperience(r.db.QueryRowContext(ctx, selectExperienceSQL+" WHERE id = ?", id))
	return e, notFound(err)
}

func (r *Repo) ListExperiences(ctx context.Context, f domain.ExperienceFilter) ([]domain.Experience, error) {
	var (
		where []string
		args  []any
	)
	if f.City != "" {
		where = append(where, `LOWER(city) LIKE ? ESCAPE '\\'`)
		args = append(args, "%"+likeEscape(strings.ToLower(f.City))+"%")
	}
	if f.OwnerID != 0 {
		where = append(where, "owner_id = ?")
		args = append(args, f.OwnerID)
	}
	q := selectExperienceSQL
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Experience{}
	for rows.Next() {
		e, err := scanExperience(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateExperience(ctx context.Context, e domain.Experience) error {
	_, err := r.db.ExecContext(ctx, updateExperienceSQL,
		e.Title,
		e.Description,
		e.Price,
		e.Hours,
		e.Minutes,
		e.Language,
		e.City,
		e.Address,
		e.Zipcode,
		r.now(),
		e.ID,
	)
	return err
}

func (r *Repo) DeleteExperience(ctx context.Context, id int64) error {
	return r.deleteOne(ctx, deleteExperienceSQL, id)
}

func (r *Repo) deleteOne(ctx context.Context, q string, id int64) error {
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ---- bookings ----

func (r *Repo) CreateBooking(ctx context.Context, b *domain.Booking) error {
	now := r.now()
	res, err := r.db.ExecContext(ctx, insertBookingSQL,
		b.ExperienceID,
		b.UserID,
		b.Date.Format(domain.DateLayout),
		nullIfEmpty(b.Slot),
		now,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID, b.CreatedAt = id, now
	return nil
}

func scanBooking(row interface{ Scan(...any) error }) (domain.Booking, error) {
	var b domain.Booking
	var slot sql.NullString
	if err := row.Scan(&b.ID, &b.ExperienceID, &b.UserID, &b.Date, &slot, &b.CreatedAt); err != nil {
		return domain.Booking{}, err
	}
	b.Slot = slot.String
	return b, nil
}

func (r *Repo) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, selectBookingSQL+" WHERE id = ?", id))
	return b, notFound(err)
}

func (r *Repo) ListBookingsByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, selectBookingSQL+" WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) DeleteBooking(ctx context.Context, id int64) error {
	return r.deleteOne(ctx, deleteBookingSQL, id)
}

// ---- reviews ----

func (r *Repo) CreateReview(ctx context.Context, rv *domain.Review) error {
	now := r.now()
	res, err := r.db.ExecContext(ctx, insertReviewSQL, rv.ExperienceID, rv.UserID, rv.Rating, rv.Comment, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID, rv.CreatedAt = id, now
	return nil
}

func (r *Repo) ListReviewsByExperience(ctx context.Context, experienceID int64) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, listReviewsSQL, experienceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.ExperienceID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// ---- photos ----

func (r *Repo) CreatePhoto(ctx context.Context, p *domain.Photo) error {
	res, err := r.db.ExecContext(ctx, insertPhotoSQL, p.URL, p.ExperienceID)
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (r *Repo) ListPhotosByExperience(ctx context.Context, experienceID int64) ([]domain.Photo, error) {
	rows, err := r.db.QueryContext(ctx, listPhotosSQL, experienceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Photo{}
	for rows.Next() {
		var p domain.Photo
		if err := rows.Scan(&p.ID, &p.URL, &p.ExperienceID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var _ domain.Store = (*Repo)(nil)
