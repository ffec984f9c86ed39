package conversation

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courier/internal/models"
	"courier/internal/store"
)

// fakeMessages implements MessageSource over an in-memory slice, honoring the
// same contract as the SQL-backed store: conversations are grouped by the
// unordered participant pair and represented by their most recent message.
type fakeMessages struct {
	messages []models.Message
}

func (f *fakeMessages) QueryConversations(_ context.Context, userID int64, cur store.Cursor) ([]models.Message, error) {
	type pairKey struct{ lo, hi int64 }

	latest := make(map[pairKey]models.Message)
	for _, m := range f.messages {
		if m.SenderID != userID && m.ReceiverID != userID {
			continue
		}
		if cur.Before > 0 && m.ID >= cur.Before {
			continue
		}
		key := pairKey{lo: min(m.SenderID, m.ReceiverID), hi: max(m.SenderID, m.ReceiverID)}
		if kept, ok := latest[key]; ok {
			if m.CreatedAt.Before(kept.CreatedAt) {
				continue
			}
			if m.CreatedAt.Equal(kept.CreatedAt) && m.ID < kept.ID {
				continue
			}
		}
		latest[key] = m
	}

	out := make([]models.Message, 0, len(latest))
	for _, m := range latest {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > cur.Limit {
		out = out[:cur.Limit]
	}
	return out, nil
}

func (f *fakeMessages) QueryBetween(_ context.Context, userA, userB int64, cur store.Cursor) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.messages {
		sameDir := m.SenderID == userA && m.ReceiverID == userB
		reverse := m.SenderID == userB && m.ReceiverID == userA
		if !sameDir && !reverse {
			continue
		}
		if cur.Before > 0 && m.ID >= cur.Before {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > cur.Limit {
		out = out[:cur.Limit]
	}
	return out, nil
}

type fakeUsers struct {
	users         map[int64]models.User
	findByIDCalls int
	batchCalls    int
}

func (f *fakeUsers) FindByID(_ context.Context, id int64) (*models.User, error) {
	f.findByIDCalls++
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) FindByIDs(_ context.Context, ids []int64) ([]models.User, error) {
	f.batchCalls++
	var out []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func at(sec int) time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(sec) * time.Second)
}

func msg(id, sender, receiver int64, content string, sec int) models.Message {
	return models.Message{ID: id, SenderID: sender, ReceiverID: receiver, Content: content, CreatedAt: at(sec)}
}

var (
	alice = models.User{ID: 1, Email: "alice@example.com", FirstName: "Alice", LastName: "Anders"}
	bob   = models.User{ID: 2, Email: "bob@example.com", FirstName: "Bob", LastName: "Baker"}
	carol = models.User{ID: 3, Email: "carol@example.com", FirstName: "Carol", LastName: "Clark"}
)

func newFixture(messages ...models.Message) (*Engine, *fakeMessages, *fakeUsers) {
	fm := &fakeMessages{messages: messages}
	fu := &fakeUsers{users: map[int64]models.User{alice.ID: alice, bob.ID: bob, carol.ID: carol}}
	return NewEngine(fm, fu), fm, fu
}

func TestListConversationsKeepsLatestPerPair(t *testing.T) {
	engine, _, _ := newFixture(
		msg(1, 1, 2, "hi", 0),
		msg(2, 2, 1, "hello", 10),
		msg(3, 1, 3, "hey carol", 5),
	)

	page, err := engine.ListConversations(context.Background(), alice.Public(), 10, 0)
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.False(t, page.HasPreviousPage)

	// Most recent conversation first, represented by its newest message.
	assert.Equal(t, "hello", page.Items[0].Content)
	assert.Equal(t, bob.Public(), page.Items[0].Sender)
	assert.Equal(t, alice.Public(), page.Items[0].Receiver)

	assert.Equal(t, "hey carol", page.Items[1].Content)
	assert.Equal(t, carol.Public(), page.Items[1].Receiver)
}

func TestListConversationsOneRepresentativePerPair(t *testing.T) {
	// Many messages in both directions within the same pair collapse to one.
	engine, _, _ := newFixture(
		msg(1, 1, 2, "a", 0),
		msg(2, 2, 1, "b", 1),
		msg(3, 1, 2, "c", 2),
		msg(4, 2, 1, "d", 3),
	)

	page, err := engine.ListConversations(context.Background(), alice.Public(), 10, 0)
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	assert.Equal(t, "d", page.Items[0].Content)
}

func TestListConversationsPagination(t *testing.T) {
	engine, _, _ := newFixture(
		msg(1, 1, 2, "with bob", 0),
		msg(2, 1, 3, "with carol", 1),
		msg(3, 1, 1, "note to self", 2),
	)

	page, err := engine.ListConversations(context.Background(), alice.Public(), 2, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasPreviousPage)
	assert.Equal(t, "note to self", page.Items[0].Content)
	assert.Equal(t, "with carol", page.Items[1].Content)

	// Walk backward with the exclusive cursor.
	next, err := engine.ListConversations(context.Background(), alice.Public(), 2, page.Items[1].ID)
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.False(t, next.HasPreviousPage)
	assert.Equal(t, "with bob", next.Items[0].Content)
}

func TestListConversationsExactLimitHasNoPreviousPage(t *testing.T) {
	engine, _, _ := newFixture(
		msg(1, 1, 2, "with bob", 0),
		msg(2, 1, 3, "with carol", 1),
	)

	page, err := engine.ListConversations(context.Background(), alice.Public(), 2, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.False(t, page.HasPreviousPage)
}

func TestListConversationsBatchesCounterpartyLookup(t *testing.T) {
	engine, _, users := newFixture(
		msg(1, 1, 2, "with bob", 0),
		msg(2, 3, 1, "from carol", 1),
	)

	page, err := engine.ListConversations(context.Background(), alice.Public(), 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	assert.Equal(t, 1, users.batchCalls)
	assert.Equal(t, 0, users.findByIDCalls)
}

func TestListConversationsSelfChatNeedsNoLookup(t *testing.T) {
	engine, _, users := newFixture(
		msg(1, 1, 1, "note to self", 0),
	)

	page, err := engine.ListConversations(context.Background(), alice.Public(), 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	assert.Equal(t, alice.Public(), page.Items[0].Sender)
	assert.Equal(t, alice.Public(), page.Items[0].Receiver)
	assert.Equal(t, 0, users.batchCalls)
	assert.Equal(t, 0, users.findByIDCalls)
}

func TestListMessagesAttributesBothDirections(t *testing.T) {
	engine, _, users := newFixture(
		msg(1, 1, 2, "hi", 0),
		msg(2, 2, 1, "hello", 1),
	)

	page, err := engine.ListMessages(context.Background(), alice.Public(), bob.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	assert.Equal(t, "hello", page.Items[0].Content)
	assert.Equal(t, bob.Public(), page.Items[0].Sender)
	assert.Equal(t, alice.Public(), page.Items[0].Receiver)

	assert.Equal(t, "hi", page.Items[1].Content)
	assert.Equal(t, alice.Public(), page.Items[1].Sender)
	assert.Equal(t, bob.Public(), page.Items[1].Receiver)

	// The counterparty is fetched exactly once, not per message.
	assert.Equal(t, 1, users.findByIDCalls)
}

func TestListMessagesSelfChatNeedsNoLookup(t *testing.T) {
	engine, _, users := newFixture(
		msg(1, 1, 1, "first note", 0),
		msg(2, 1, 1, "second note", 1),
	)

	page, err := engine.ListMessages(context.Background(), alice.Public(), alice.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	for _, item := range page.Items {
		assert.Equal(t, alice.Public(), item.Sender)
		assert.Equal(t, alice.Public(), item.Receiver)
	}
	assert.Equal(t, 0, users.findByIDCalls)
	assert.Equal(t, 0, users.batchCalls)
}

func TestListMessagesOnlyMatchingPair(t *testing.T) {
	engine, _, _ := newFixture(
		msg(1, 1, 2, "to bob", 0),
		msg(2, 1, 3, "to carol", 1),
		msg(3, 3, 2, "unrelated", 2),
	)

	page, err := engine.ListMessages(context.Background(), alice.Public(), bob.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "to bob", page.Items[0].Content)
}

func TestListMessagesPagination(t *testing.T) {
	engine, _, _ := newFixture(
		msg(1, 1, 2, "one", 0),
		msg(2, 2, 1, "two", 1),
		msg(3, 1, 2, "three", 2),
	)

	page, err := engine.ListMessages(context.Background(), alice.Public(), bob.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasPreviousPage)
	assert.Equal(t, "three", page.Items[0].Content)

	next, err := engine.ListMessages(context.Background(), alice.Public(), bob.ID, 2, page.Items[1].ID)
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.False(t, next.HasPreviousPage)
	assert.Equal(t, "one", next.Items[0].Content)
}

func TestListMessagesUnknownCounterparty(t *testing.T) {
	engine, _, _ := newFixture()

	_, err := engine.ListMessages(context.Background(), alice.Public(), 999, 10, 0)
	require.ErrorIs(t, err, store.ErrNotFound)
}
