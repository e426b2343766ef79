package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"blinkchat/internal/models"
)

// MessageRepository defines interactions with the retention-bounded message
// table.
type MessageRepository interface {
	// Insert appends a message and returns it with the store-assigned id.
	// The caller must not assume persistence when an error is returned.
	Insert(ctx context.Context, msg models.Message) (models.Message, error)
	// QueryRecent returns all messages for room with timestamp >= since,
	// ordered by timestamp then id ascending.
	QueryRecent(ctx context.Context, room string, since time.Time) ([]models.Message, error)
	// DeleteOlderThan atomically removes and returns every message with
	// timestamp strictly before cutoff, across all rooms.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Insert stores a message row. The arrival timestamp is normalized to UTC so
// range comparisons behave the same on every driver.
func (r *MessageRepo) Insert(ctx context.Context, msg models.Message) (models.Message, error) {
	msg.Timestamp = msg.Timestamp.UTC()

	if r.db.DriverName() == "postgres" {
		query := r.db.Rebind(`INSERT INTO messages (room, message, image, timestamp, sender_sid)
            VALUES (?, ?, ?, ?, ?) RETURNING id`)
		if err := r.db.QueryRowxContext(ctx, query, msg.Room, msg.Text, msg.Image, msg.Timestamp, msg.SenderSID).Scan(&msg.ID); err != nil {
			return models.Message{}, fmt.Errorf("insert message: %w", err)
		}
		return msg, nil
	}

	res, err := r.db.ExecContext(ctx, `INSERT INTO messages (room, message, image, timestamp, sender_sid)
        VALUES (?, ?, ?, ?, ?)`, msg.Room, msg.Text, msg.Image, msg.Timestamp, msg.SenderSID)
	if err != nil {
		return models.Message{}, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Message{}, fmt.Errorf("insert message id: %w", err)
	}
	msg.ID = id
	return msg, nil
}

// QueryRecent loads the replay window for a room.
func (r *MessageRepo) QueryRecent(ctx context.Context, room string, since time.Time) ([]models.Message, error) {
	query := r.db.Rebind(`SELECT id, room, message, image, timestamp, sender_sid
        FROM messages
        WHERE room = ? AND timestamp >= ?
        ORDER BY timestamp ASC, id ASC`)
	var msgs []models.Message
	if err := r.db.SelectContext(ctx, &msgs, query, room, since.UTC()); err != nil {
		return nil, fmt.Errorf("query recent messages: %w", err)
	}
	return msgs, nil
}

// DeleteOlderThan selects and deletes expired rows inside one transaction,
// keyed by id so the returned set is exactly the deleted set even when
// inserts race the sweep.
func (r *MessageRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback()

	query := tx.Rebind(`SELECT id, room, message, image, timestamp, sender_sid
        FROM messages
        WHERE timestamp < ?
        ORDER BY timestamp ASC, id ASC`)
	var expired []models.Message
	if err := tx.SelectContext(ctx, &expired, query, cutoff.UTC()); err != nil {
		return nil, fmt.Errorf("select expired messages: %w", err)
	}
	if len(expired) == 0 {
		return nil, tx.Commit()
	}

	ids := make([]int64, 0, len(expired))
	for _, msg := range expired {
		ids = append(ids, msg.ID)
	}
	deleteQuery, args, err := sqlx.In(`DELETE FROM messages WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build delete query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(deleteQuery), args...); err != nil {
		return nil, fmt.Errorf("delete expired messages: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete tx: %w", err)
	}
	return expired, nil
}
