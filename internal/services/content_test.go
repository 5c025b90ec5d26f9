package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warbler-app/warbler/internal/apperrors"
	"github.com/warbler-app/warbler/internal/models"
)

func TestPostMessageValidation(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	alice := f.signup(t, "alice", "alice@example.com")

	_, err := f.content.PostMessage(ctx, alice, "   ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.content.PostMessage(ctx, alice, strings.Repeat("x", models.MaxMessageLength+1))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.content.PostMessage(ctx, nil, "hello")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	msg, err := f.content.PostMessage(ctx, alice, "  hello world  ")
	require.NoError(t, err)
	assert.Equal(t, "hello world", msg.Text)
	assert.Equal(t, alice.ID, msg.UserID)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestPostMessageLengthCountsRunes(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	alice := f.signup(t, "alice", "alice@example.com")

	// 140 multibyte runes are exactly at the bound even though the byte
	// length is far larger.
	msg, err := f.content.PostMessage(ctx, alice, strings.Repeat("日", models.MaxMessageLength))
	require.NoError(t, err)
	assert.Equal(t, models.MaxMessageLength, len([]rune(msg.Text)))

	_, err = f.content.PostMessage(ctx, alice, strings.Repeat("日", models.MaxMessageLength+1))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestDeleteMessageOwnership(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	alice := f.signup(t, "alice", "alice@example.com")
	bob := f.signup(t, "bob", "bob@example.com")

	msg, err := f.content.PostMessage(ctx, alice, "mine")
	require.NoError(t, err)

	assert.ErrorIs(t, f.content.DeleteMessage(ctx, alice, uuid.New()), apperrors.ErrNotFound)
	assert.ErrorIs(t, f.content.DeleteMessage(ctx, bob, msg.ID), apperrors.ErrUnauthorized)
	assert.ErrorIs(t, f.content.DeleteMessage(ctx, nil, msg.ID), apperrors.ErrUnauthorized)

	require.NoError(t, f.content.DeleteMessage(ctx, alice, msg.ID))
	_, err = f.content.GetMessage(ctx, msg.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteMessageCascadesLikes(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	alice := f.signup(t, "alice", "alice@example.com")
	bob := f.signup(t, "bob", "bob@example.com")

	msg, err := f.content.PostMessage(ctx, alice, "likeable")
	require.NoError(t, err)
	require.NoError(t, f.content.Like(ctx, bob, msg.ID))

	require.NoError(t, f.content.DeleteMessage(ctx, alice, msg.ID))

	var count int64
	f.db.Model(&models.Like{}).Where("message_id = ?", msg.ID).Count(&count)
	assert.Zero(t, count)
}

func TestLikeRules(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	alice := f.signup(t, "alice", "alice@example.com")
	bob := f.signup(t, "bob", "bob@example.com")

	msg, err := f.content.PostMessage(ctx, alice, "like me")
	require.NoError(t, err)

	// Owners can never like their own message.
	assert.ErrorIs(t, f.content.Like(ctx, alice, msg.ID), apperrors.ErrSelfLike)

	assert.ErrorIs(t, f.content.Like(ctx, bob, uuid.New()), apperrors.ErrNotFound)

	require.NoError(t, f.content.Like(ctx, bob, msg.ID))
	count, err := f.content.LikeCount(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Re-liking is a no-op success.
	require.NoError(t, f.content.Like(ctx, bob, msg.ID))
	count, err = f.content.LikeCount(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, f.content.Unlike(ctx, bob, msg.ID))
	count, err = f.content.LikeCount(ctx, msg.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Unliking when not liked is a no-op success.
	require.NoError(t, f.content.Unlike(ctx, bob, msg.ID))
}

func TestListLikedMessages(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	alice := f.signup(t, "alice", "alice@example.com")
	bob := f.signup(t, "bob", "bob@example.com")

	msg, err := f.content.PostMessage(ctx, alice, "hello")
	require.NoError(t, err)
	require.NoError(t, f.content.Like(ctx, bob, msg.ID))

	liked, err := f.content.ListLikedMessages(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, liked, 1)
	assert.Equal(t, msg.ID, liked[0].ID)
}

func TestFeedScenario(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	alice := f.signup(t, "alice", "alice@example.com")
	bob := f.signup(t, "bob", "bob@example.com")
	carol := f.signup(t, "carol", "carol@example.com")

	hello, err := f.content.PostMessage(ctx, alice, "Hello")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = f.content.PostMessage(ctx, carol, "unrelated")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = f.content.PostMessage(ctx, bob, "own message")
	require.NoError(t, err)

	require.NoError(t, f.social.Follow(ctx, bob, alice.ID))

	feed, err := f.content.GetFeed(ctx, bob, 0)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "own message", feed[0].Text)
	assert.Equal(t, "Hello", feed[1].Text)

	// Carol's message is invisible to bob: he does not follow her.
	for _, m := range feed {
		assert.NotEqual(t, carol.ID, m.UserID)
	}

	// Deleting the message removes it from follower feeds.
	require.NoError(t, f.content.DeleteMessage(ctx, alice, hello.ID))
	feed, err = f.content.GetFeed(ctx, bob, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "own message", feed[0].Text)
}

func TestFeedAnonymous(t *testing.T) {
	f := setupFixture(t)

	_, err := f.content.GetFeed(context.Background(), nil, 0)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestFeedLimit(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	alice := f.signup(t, "alice", "alice@example.com")
	for i := 0; i < 5; i++ {
		_, err := f.content.PostMessage(ctx, alice, strings.Repeat("a", i+1))
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	feed, err := f.content.GetFeed(ctx, alice, 3)
	require.NoError(t, err)
	require.Len(t, feed, 3)
	// Newest first.
	assert.Equal(t, strings.Repeat("a", 5), feed[0].Text)
	assert.Equal(t, strings.Repeat("a", 3), feed[2].Text)
}
