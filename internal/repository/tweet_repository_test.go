package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gritcult/twitter-scheduler/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (TweetRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTweetRepository(db), mock
}

func tweetRows(tweets ...*models.ScheduledTweet) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "content", "scheduled_at", "status", "sent_at",
		"last_error", "remote_id", "created_at", "updated_at",
	})
	for _, t := range tweets {
		rows.AddRow(t.ID, t.Content, t.ScheduledAt, t.Status, t.SentAt,
			t.LastError, t.RemoteID, t.CreatedAt, t.UpdatedAt)
	}
	return rows
}

func TestClaimTransitionsPendingToSending(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec("UPDATE tweets").
		WithArgs(models.TweetStatusSending, int64(7), models.TweetStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Claim(context.Background(), 7)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimConflictWhenNotPending(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec("UPDATE tweets").
		WithArgs(models.TweetStatusSending, int64(7), models.TweetStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Claim(context.Background(), 7)
	assert.ErrorIs(t, err, ErrClaimConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListDueFiltersAndOrders(t *testing.T) {
	repo, mock := newMock(t)

	now := time.Now()
	due := &models.ScheduledTweet{
		ID:          3,
		Content:     "hello",
		ScheduledAt: now.Add(-time.Minute),
		Status:      models.TweetStatusPending,
		CreatedAt:   now.Add(-time.Hour),
		UpdatedAt:   now.Add(-time.Hour),
	}

	mock.ExpectQuery("FROM tweets").
		WithArgs(models.TweetStatusPending, now, 100).
		WillReturnRows(tweetRows(due))

	tweets, err := repo.ListDue(context.Background(), now, 100)
	require.NoError(t, err)
	require.Len(t, tweets, 1)
	assert.Equal(t, int64(3), tweets[0].ID)
	assert.Equal(t, "hello", tweets[0].Content)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSentRequiresSendingStatus(t *testing.T) {
	repo, mock := newMock(t)

	sentAt := time.Now()
	mock.ExpectExec("UPDATE tweets").
		WithArgs(models.TweetStatusSent, sentAt, "190123456789", int64(5), models.TweetStatusSending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkSent(context.Background(), 5, "190123456789", sentAt))

	mock.ExpectExec("UPDATE tweets").
		WithArgs(models.TweetStatusSent, sentAt, "190123456789", int64(6), models.TweetStatusSending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkSent(context.Background(), 6, "190123456789", sentAt)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFailedRecordsReason(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec("UPDATE tweets").
		WithArgs(models.TweetStatusFailed, "rate limited", int64(5), models.TweetStatusSending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkFailed(context.Background(), 5, "rate limited"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRetryOnlyAppliesToFailed(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec("UPDATE tweets").
		WithArgs(models.TweetStatusPending, int64(5), models.TweetStatusFailed).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Retry(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseStaleReturnsCount(t *testing.T) {
	repo, mock := newMock(t)

	cutoff := time.Now().Add(-10 * time.Minute)
	mock.ExpectExec("UPDATE tweets").
		WithArgs(models.TweetStatusPending, models.TweetStatusSending, cutoff).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.ReleaseStale(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateContentOnlyWhilePending(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec("UPDATE tweets").
		WithArgs("new text", int64(5), models.TweetStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateContent(context.Background(), 5, "new text")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFoundReturnsNil(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery("FROM tweets").
		WithArgs(int64(99)).
		WillReturnRows(tweetRows())

	tweet, err := repo.GetByID(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, tweet)
	require.NoError(t, mock.ExpectationsWereMet())
}
