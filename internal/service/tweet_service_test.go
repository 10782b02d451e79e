package service

import (
	"context"
	"database/sql"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gritcult/twitter-scheduler/internal/models"
	"github.com/gritcult/twitter-scheduler/internal/repository"
	"github.com/gritcult/twitter-scheduler/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTweetRepo struct {
	repository.TweetRepository
	created   *models.ScheduledTweet
	nextID    int64
	updateErr error
	retryErr  error
	getResult *models.ScheduledTweet
}

func (r *stubTweetRepo) Create(ctx context.Context, tx *sql.Tx, t *models.ScheduledTweet) (int64, error) {
	r.created = t
	return r.nextID, nil
}

func (r *stubTweetRepo) GetByID(ctx context.Context, id int64) (*models.ScheduledTweet, error) {
	return r.getResult, nil
}

func (r *stubTweetRepo) UpdateContent(ctx context.Context, id int64, content string) error {
	return r.updateErr
}

func (r *stubTweetRepo) Retry(ctx context.Context, id int64) error {
	return r.retryErr
}

func newServiceWithMockDB(t *testing.T, tr repository.TweetRepository) (TweetService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTweetService(db, tr, nil, nil, nil, nil), mock
}

func TestScheduleRejectsEmptyContent(t *testing.T) {
	s := NewTweetService(nil, nil, nil, nil, nil, nil)

	_, _, err := s.Schedule(context.Background(), &transfer.TweetCreation{
		Content:     "",
		ScheduledAt: "2030-01-02T15:04",
	}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "content is required")
}

func TestScheduleRejectsOverlongContent(t *testing.T) {
	s := NewTweetService(nil, nil, nil, nil, nil, nil)

	_, _, err := s.Schedule(context.Background(), &transfer.TweetCreation{
		Content:     strings.Repeat("a", MaxTweetLength+1),
		ScheduledAt: "2030-01-02T15:04",
	}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "280")
}

func TestScheduleAccepts280Runes(t *testing.T) {
	tr := &stubTweetRepo{nextID: 11}
	s, mock := newServiceWithMockDB(t, tr)
	mock.ExpectBegin()
	mock.ExpectCommit()

	// 280 multibyte runes are fine; the limit counts characters, not bytes.
	id, _, err := s.Schedule(context.Background(), &transfer.TweetCreation{
		Content:     strings.Repeat("ü", MaxTweetLength),
		ScheduledAt: "2030-01-02T15:04",
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
}

func TestScheduleRejectsTooManyImages(t *testing.T) {
	s := NewTweetService(nil, nil, nil, nil, nil, nil)

	files := make([]*multipart.FileHeader, MaxTweetImages+1)
	_, _, err := s.Schedule(context.Background(), &transfer.TweetCreation{
		Content:     "hello",
		ScheduledAt: "2030-01-02T15:04",
	}, files)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum 4 images")
}

func TestScheduleRejectsPastTime(t *testing.T) {
	s := NewTweetService(nil, nil, nil, nil, nil, nil)

	_, _, err := s.Schedule(context.Background(), &transfer.TweetCreation{
		Content:     "hello",
		ScheduledAt: "2001-01-02T15:04",
	}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "future")
}

func TestScheduleRejectsBadTimeFormat(t *testing.T) {
	s := NewTweetService(nil, nil, nil, nil, nil, nil)

	_, _, err := s.Schedule(context.Background(), &transfer.TweetCreation{
		Content:     "hello",
		ScheduledAt: "tomorrow at noon",
	}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scheduled time")
}

func TestScheduleCreatesPendingTweet(t *testing.T) {
	tr := &stubTweetRepo{nextID: 42}
	s, mock := newServiceWithMockDB(t, tr)
	mock.ExpectBegin()
	mock.ExpectCommit()

	scheduledAt := time.Now().Add(2 * time.Hour).Format(time.RFC3339)
	id, delay, err := s.Schedule(context.Background(), &transfer.TweetCreation{
		Content:     "hello world",
		ScheduledAt: scheduledAt,
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.InDelta(t, (2 * time.Hour).Seconds(), delay.Seconds(), 5)

	require.NotNil(t, tr.created)
	assert.Equal(t, models.TweetStatusPending, tr.created.Status)
	assert.Equal(t, "hello world", tr.created.Content)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostNowSchedulesImmediately(t *testing.T) {
	tr := &stubTweetRepo{nextID: 9}
	s, mock := newServiceWithMockDB(t, tr)
	mock.ExpectBegin()
	mock.ExpectCommit()

	id, err := s.PostNow(context.Background(), "right away", nil)

	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
	require.NotNil(t, tr.created)
	assert.Equal(t, models.TweetStatusPending, tr.created.Status)
	assert.WithinDuration(t, time.Now(), tr.created.ScheduledAt, time.Second)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEditRejectsNonPendingTweet(t *testing.T) {
	tr := &stubTweetRepo{updateErr: repository.ErrNotFound}
	s := NewTweetService(nil, tr, nil, nil, nil, nil)

	err := s.Edit(context.Background(), 5, "new text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pending")
}

func TestRetryRejectsNonFailedTweet(t *testing.T) {
	tr := &stubTweetRepo{retryErr: repository.ErrNotFound}
	s := NewTweetService(nil, tr, nil, nil, nil, nil)

	err := s.Retry(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed")
}

func TestTweetInfoMissingTweet(t *testing.T) {
	tr := &stubTweetRepo{getResult: nil}
	s := NewTweetService(nil, tr, nil, nil, nil, nil)

	_, err := s.TweetInfo(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doesn't exist")
}
