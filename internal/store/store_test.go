package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instaclone-server/internal/db"
	"github.com/instaclone-server/internal/domain"
)

func TestWrap(t *testing.T) {
	assert.NoError(t, wrap("op", nil))
	assert.ErrorIs(t, wrap("op", pgx.ErrNoRows), domain.ErrNotFound)

	dup := wrap("op", &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_email_key"})
	assert.ErrorIs(t, dup, domain.ErrDuplicate)
	assert.Contains(t, dup.Error(), "users_email_key")

	other := errors.New("boom")
	assert.ErrorIs(t, wrap("op", other), other)
}

func TestOrderedPair(t *testing.T) {
	low, high := orderedPair("b", "a")
	assert.Equal(t, "a", low)
	assert.Equal(t, "b", high)

	low, high = orderedPair("a", "b")
	assert.Equal(t, "a", low)
	assert.Equal(t, "b", high)
}

// newTestStore connects to TEST_DATABASE_URL and resets the schema.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `DROP TABLE IF EXISTS messages, conversations, bookmarks, comments, post_likes, posts, follows, users CASCADE`)
	require.NoError(t, err)
	require.NoError(t, db.ApplyMigrations(ctx, pool, db.Migrations, "migrations"))
	return New(pool)
}

func createUser(t *testing.T, s *Store, name string) *domain.User {
	t.Helper()
	u := &domain.User{Username: name, Email: name + "@example.com", Password: "hash"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestStore_UsersAndFollows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	err := s.CreateUser(ctx, &domain.User{Username: "alice", Email: "other@example.com", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	taken, err := s.EmailTaken(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.True(t, taken)

	following, err := s.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	got, err := s.UserByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID}, got.Followers)

	following, err = s.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)

	_, err = s.UserByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	updated, err := s.UpdateProfile(ctx, alice.ID, domain.ProfileUpdate{Bio: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", updated.Bio)

	suggested, err := s.SuggestedUsers(ctx, alice.ID, 10)
	require.NoError(t, err)
	require.Len(t, suggested, 1)
	assert.Equal(t, bob.ID, suggested[0].ID)
}

func TestStore_PostsAndMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	post := &domain.Post{Caption: "sunset", Image: "/uploads/a.jpg", AuthorID: alice.ID}
	require.NoError(t, s.CreatePost(ctx, post))
	assert.Equal(t, "alice", post.Author.Username)

	require.NoError(t, s.AddLike(ctx, post.ID, bob.ID))
	require.NoError(t, s.AddLike(ctx, post.ID, bob.ID))
	require.NoError(t, s.AddComment(ctx, &domain.Comment{Text: "nice", PostID: post.ID, AuthorID: bob.ID}))

	got, err := s.PostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, got.Likes)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "bob", got.Comments[0].Author.Username)

	saved, err := s.ToggleBookmark(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, saved)

	msgs, err := s.Conversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	first, err := s.SendMessage(ctx, alice.ID, bob.ID, "hi")
	require.NoError(t, err)
	second, err := s.SendMessage(ctx, bob.ID, alice.ID, "hey")
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	msgs, err = s.Conversation(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Message)

	require.NoError(t, s.DeletePost(ctx, post.ID))
	assert.ErrorIs(t, s.DeletePost(ctx, post.ID), domain.ErrNotFound)
}

func TestStore_ConversationOrdersSameInstantBySendOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	first, err := s.SendMessage(ctx, alice.ID, bob.ID, "first")
	require.NoError(t, err)

	// ids sort opposite to insertion so only seq can keep the order
	for _, m := range []struct{ id, text string }{{"m-3", "second"}, {"m-2", "third"}, {"m-1", "fourth"}} {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO messages (id, conversation_id, sender_id, receiver_id, message, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			m.id, first.ConversationID, bob.ID, alice.ID, m.text, first.CreatedAt)
		require.NoError(t, err)
	}

	msgs, err := s.Conversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	var texts []string
	for _, m := range msgs {
		texts = append(texts, m.Message)
	}
	assert.Equal(t, []string{"first", "second", "third", "fourth"}, texts)
}
