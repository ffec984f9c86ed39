// Package conversation computes paginated conversation listings and message
// history for a user. A conversation is keyed by the unordered pair of
// participant ids, so messages flowing in either direction between the same
// two users belong to one thread; the listing shows each thread's most
// recent message. Pagination walks backward through history with an
// exclusive id cursor.
package conversation

import (
	"context"
	"time"

	"courier/internal/models"
	"courier/internal/store"
)

// MessageSource is the slice of the message store the engine reads from.
type MessageSource interface {
	QueryConversations(ctx context.Context, userID int64, cur store.Cursor) ([]models.Message, error)
	QueryBetween(ctx context.Context, userA, userB int64, cur store.Cursor) ([]models.Message, error)
}

// UserSource resolves counterparty identities.
type UserSource interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByIDs(ctx context.Context, ids []int64) ([]models.User, error)
}

// Item is one attributed message in a listing.
type Item struct {
	ID        int64             `json:"id"`
	Content   string            `json:"content"`
	CreatedAt time.Time         `json:"createdAt"`
	Sender    models.PublicUser `json:"sender"`
	Receiver  models.PublicUser `json:"receiver"`
}

// Page is the response envelope for list operations. HasPreviousPage is true
// iff strictly more rows matched than the requested limit.
type Page struct {
	Items           []Item `json:"items"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
}

// Engine is the read side of direct messaging.
type Engine struct {
	messages MessageSource
	users    UserSource
}

func NewEngine(messages MessageSource, users UserSource) *Engine {
	return &Engine{messages: messages, users: users}
}

// ListConversations returns at most limit conversations for the caller,
// newest first, each represented by its latest message. The caller's own
// identity comes from the session claims, so self-conversations resolve
// without a store round trip.
func (e *Engine) ListConversations(ctx context.Context, caller models.PublicUser, limit int, before int64) (Page, error) {
	rows, err := e.messages.QueryConversations(ctx, caller.ID, store.Cursor{Limit: limit + 1, Before: before})
	if err != nil {
		return Page{}, err
	}
	rows, hasPrev := truncate(rows, limit)

	counterparties, err := e.resolveCounterparties(ctx, caller.ID, rows)
	if err != nil {
		return Page{}, err
	}

	items := make([]Item, 0, len(rows))
	for _, msg := range rows {
		items = append(items, attribute(msg, caller, counterparties))
	}
	return Page{Items: items, HasPreviousPage: hasPrev}, nil
}

// ListMessages returns the paged history between the caller and one other
// user, newest first. For self-chat the counterparty is the caller and no
// lookup happens; otherwise the counterparty is fetched exactly once and
// each message is attributed by comparing ids, which handles messages
// flowing in both directions.
func (e *Engine) ListMessages(ctx context.Context, caller models.PublicUser, otherID int64, limit int, before int64) (Page, error) {
	other := caller
	if otherID != caller.ID {
		user, err := e.users.FindByID(ctx, otherID)
		if err != nil {
			return Page{}, err
		}
		other = user.Public()
	}

	rows, err := e.messages.QueryBetween(ctx, caller.ID, otherID, store.Cursor{Limit: limit + 1, Before: before})
	if err != nil {
		return Page{}, err
	}
	rows, hasPrev := truncate(rows, limit)

	items := make([]Item, 0, len(rows))
	for _, msg := range rows {
		item := Item{
			ID:        msg.ID,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
			Sender:    caller,
			Receiver:  other,
		}
		if msg.SenderID == other.ID && msg.ReceiverID == caller.ID {
			item.Sender, item.Receiver = other, caller
		}
		items = append(items, item)
	}
	return Page{Items: items, HasPreviousPage: hasPrev}, nil
}

// resolveCounterparties batch-fetches every non-caller participant in one
// store call. Ids that resolve to nothing fall back to a bare identity so a
// listing never fails on a dangling reference.
func (e *Engine) resolveCounterparties(ctx context.Context, callerID int64, rows []models.Message) (map[int64]models.PublicUser, error) {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, msg := range rows {
		for _, id := range [2]int64{msg.SenderID, msg.ReceiverID} {
			if id == callerID {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	resolved := make(map[int64]models.PublicUser, len(ids))
	if len(ids) == 0 {
		return resolved, nil
	}

	users, err := e.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		resolved[user.ID] = user.Public()
	}
	return resolved, nil
}

func attribute(msg models.Message, caller models.PublicUser, counterparties map[int64]models.PublicUser) Item {
	item := Item{
		ID:        msg.ID,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
	item.Sender = identity(msg.SenderID, caller, counterparties)
	item.Receiver = identity(msg.ReceiverID, caller, counterparties)
	return item
}

func identity(id int64, caller models.PublicUser, counterparties map[int64]models.PublicUser) models.PublicUser {
	if id == caller.ID {
		return caller
	}
	if user, ok := counterparties[id]; ok {
		return user
	}
	return models.PublicUser{ID: id}
}

func truncate(rows []models.Message, limit int) ([]models.Message, bool) {
	if len(rows) > limit {
		return rows[:limit], true
	}
	return rows, false
}
