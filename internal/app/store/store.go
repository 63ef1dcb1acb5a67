/*
Package store owns the persistent chat data consumed by the delivery layer:
conversation threads, messages, media rows and the user directory.

The chat core only ever reaches persistence through the narrow interfaces
declared by its consumers; this package supplies the record types and the
PostgreSQL implementation.
*/
package store

import (
	"context"
	"time"
)

// Thread is one farmer/government conversation. Threads are created by the
// platform's intake surface; the chat core only reads them to decide
// membership.
type Thread struct {
	ID int64

	// FarmerName and FarmerPhone identify the farmer who opened the
	// conversation. Farmers are matched by phone number.
	FarmerName  string
	FarmerPhone string

	// AssignedStaffID is the government staff member handling this
	// conversation, zero when unassigned.
	AssignedStaffID int64

	Subject   string
	Status    string
	CreatedAt time.Time
}

// Message is one persisted chat message.
type Message struct {
	ID       string
	ThreadID int64
	SenderID int64
	Text     string

	// MediaID references an uploaded media object, empty for plain text.
	MediaID string

	CreatedAt time.Time
}

// Media is an uploaded file referenced by chat messages.
type Media struct {
	ID         string
	UploaderID int64

	// ObjectKey locates the file in the S3 bucket.
	ObjectKey string

	// URL is a directly servable address, empty when the file must be
	// fetched through a presigned download.
	URL string

	FileName  string
	MimeType  string
	Size      int64
	CreatedAt time.Time
}

// CreateMessageParams carries the fields needed to persist a new message.
type CreateMessageParams struct {
	ThreadID int64
	SenderID int64
	Text     string
	MediaID  string
}

// CreateMediaParams carries the fields needed to persist an uploaded media
// object.
type CreateMediaParams struct {
	UploaderID int64
	ObjectKey  string
	FileName   string
	MimeType   string
	Size       int64
}

// Store is the full persistence surface. Absent records come back as
// (nil, nil) so callers can distinguish "not found" from storage faults.
type Store interface {
	FindThreadByID(ctx context.Context, id int64) (*Thread, error)
	CreateMessage(ctx context.Context, p CreateMessageParams) (*Message, error)
	FindMediaByID(ctx context.Context, id string) (*Media, error)
	CreateMedia(ctx context.Context, p CreateMediaParams) (*Media, error)
}
