package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shambachat/internal/app/user"
	"shambachat/internal/pkg/randx"
)

// Postgres implements Store and user.Directory on top of a pgx connection
// pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// FindUserByID resolves a user into the principal attached to their chat
// connections. Returns (nil, nil) when the user does not exist.
func (s *Postgres) FindUserByID(ctx context.Context, id int64) (*user.Principal, error) {
	const q = `
		SELECT id, name, phone, is_farmer, is_staff
		FROM users
		WHERE id = $1`

	var p user.Principal
	err := s.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.Name, &p.Phone, &p.IsFarmer, &p.IsStaff)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}

	return &p, nil
}

// FindThreadByID loads a conversation thread. Returns (nil, nil) when the
// thread does not exist.
func (s *Postgres) FindThreadByID(ctx context.Context, id int64) (*Thread, error) {
	const q = `
		SELECT id, farmer_name, farmer_phone, COALESCE(assigned_staff_id, 0),
		       subject, status, created_at
		FROM threads
		WHERE id = $1`

	var t Thread
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&t.ID, &t.FarmerName, &t.FarmerPhone, &t.AssignedStaffID,
		&t.Subject, &t.Status, &t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find thread %d: %w", id, err)
	}

	return &t, nil
}

// CreateMessage inserts a new message row and returns it with the
// database-assigned timestamp.
func (s *Postgres) CreateMessage(ctx context.Context, p CreateMessageParams) (*Message, error) {
	const q = `
		INSERT INTO messages (id, thread_id, sender_id, text, media_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING created_at`

	m := Message{
		ID:       randx.MessageID(),
		ThreadID: p.ThreadID,
		SenderID: p.SenderID,
		Text:     p.Text,
		MediaID:  p.MediaID,
	}

	err := s.pool.QueryRow(ctx, q, m.ID, m.ThreadID, m.SenderID, m.Text, m.MediaID).Scan(&m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create message in thread %d: %w", p.ThreadID, err)
	}

	return &m, nil
}

// FindMediaByID loads an uploaded media object. Returns (nil, nil) when the
// media does not exist.
func (s *Postgres) FindMediaByID(ctx context.Context, id string) (*Media, error) {
	const q = `
		SELECT id, uploader_id, object_key, COALESCE(url, ''), file_name,
		       mime_type, size, created_at
		FROM media
		WHERE id = $1`

	var m Media
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&m.ID, &m.UploaderID, &m.ObjectKey, &m.URL, &m.FileName,
		&m.MimeType, &m.Size, &m.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find media %s: %w", id, err)
	}

	return &m, nil
}

// CreateMedia inserts a media row for a completed upload.
func (s *Postgres) CreateMedia(ctx context.Context, p CreateMediaParams) (*Media, error) {
	const q = `
		INSERT INTO media (id, uploader_id, object_key, file_name, mime_type, size)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	m := Media{
		ID:         randx.MediaID(),
		UploaderID: p.UploaderID,
		ObjectKey:  p.ObjectKey,
		FileName:   p.FileName,
		MimeType:   p.MimeType,
		Size:       p.Size,
	}

	err := s.pool.QueryRow(ctx, q, m.ID, m.UploaderID, m.ObjectKey, m.FileName, m.MimeType, m.Size).Scan(&m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create media %s: %w", m.ID, err)
	}

	return &m, nil
}
