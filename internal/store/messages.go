package store

import (
	"context"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	"courier/internal/models"
)

// Cursor bounds a paginated query. Before is an exclusive message-id cursor;
// zero means "from the newest". Limit is the number of rows to fetch, the
// caller is responsible for any limit+1 look-ahead.
type Cursor struct {
	Limit  int
	Before int64
}

// MessageStore is the message persistence collaborator.
type MessageStore interface {
	Insert(ctx context.Context, senderID, receiverID int64, content string) (*models.Message, error)
	// QueryConversations returns, for each unordered participant pair that
	// includes userID, the single most recent message of that pair, ordered
	// by created_at descending with id descending as tie-break.
	QueryConversations(ctx context.Context, userID int64, cur Cursor) ([]models.Message, error)
	// QueryBetween returns messages flowing either direction between the two
	// users, newest first.
	QueryBetween(ctx context.Context, userA, userB int64, cur Cursor) ([]models.Message, error)
}

// Messages persists messages through GORM and runs the conversation grouping
// query directly on the pgx pool.
type Messages struct {
	orm  *gorm.DB
	pool *pgxpool.Pool
}

func NewMessages(orm *gorm.DB, pool *pgxpool.Pool) *Messages {
	return &Messages{orm: orm, pool: pool}
}

func (s *Messages) Insert(ctx context.Context, senderID, receiverID int64, content string) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	msg := models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	}
	if err := s.orm.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

type messageRow struct {
	ID         int64     `db:"id"`
	SenderID   int64     `db:"sender_id"`
	ReceiverID int64     `db:"receiver_id"`
	Content    string    `db:"content"`
	CreatedAt  time.Time `db:"created_at"`
}

// conversationsQuery keeps one message per unordered (sender, receiver) pair:
// rows are ranked inside each pair by recency and only rank 1 survives. The
// cursor parameter is passed as NULL when unset so a single statement covers
// both the first page and subsequent pages.
const conversationsQuery = `
	SELECT id, sender_id, receiver_id, content, created_at
	FROM (
		SELECT m.id, m.sender_id, m.receiver_id, m.content, m.created_at,
		       ROW_NUMBER() OVER (
		           PARTITION BY LEAST(m.sender_id, m.receiver_id),
		                        GREATEST(m.sender_id, m.receiver_id)
		           ORDER BY m.created_at DESC, m.id DESC
		       ) AS rank
		FROM messages m
		WHERE (m.sender_id = $1 OR m.receiver_id = $1)
		  AND ($2::bigint IS NULL OR m.id < $2)
	) ranked
	WHERE rank = 1
	ORDER BY created_at DESC, id DESC
	LIMIT $3
`

func (s *Messages) QueryConversations(ctx context.Context, userID int64, cur Cursor) ([]models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var before *int64
	if cur.Before > 0 {
		before = &cur.Before
	}

	var rows []messageRow
	if err := pgxscan.Select(ctx, s.pool, &rows, conversationsQuery, userID, before, cur.Limit); err != nil {
		return nil, err
	}
	return rowsToMessages(rows), nil
}

func (s *Messages) QueryBetween(ctx context.Context, userA, userB int64, cur Cursor) ([]models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	q := s.orm.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA)
	if cur.Before > 0 {
		q = q.Where("id < ?", cur.Before)
	}

	var msgs []models.Message
	err := q.Order("created_at DESC, id DESC").Limit(cur.Limit).Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func rowsToMessages(rows []messageRow) []models.Message {
	msgs := make([]models.Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, models.Message{
			ID:         r.ID,
			SenderID:   r.SenderID,
			ReceiverID: r.ReceiverID,
			Content:    r.Content,
			CreatedAt:  r.CreatedAt,
		})
	}
	return msgs
}
