package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gritcult/twitter-scheduler/internal/models"
	"github.com/gritcult/twitter-scheduler/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTweetMediaRepo struct {
	attachments []*models.TweetMedia
}

func (r *stubTweetMediaRepo) Create(ctx context.Context, tx *sql.Tx, tm *models.TweetMedia) error {
	return nil
}

func (r *stubTweetMediaRepo) ListByTweetID(ctx context.Context, tweetID int64) ([]*models.TweetMedia, error) {
	return r.attachments, nil
}

func (r *stubTweetMediaRepo) Remove(ctx context.Context, tweetID int64) error {
	return nil
}

func newTestTwitterService(serverURL string) *twitterService {
	return &twitterService{
		tm:         &stubTweetMediaRepo{},
		apiBase:    serverURL,
		httpClient: http.DefaultClient,
	}
}

func TestPublishTweetReturnsRemoteID(t *testing.T) {
	var gotReq transfer.TweetRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2/tweets", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(transfer.TweetResponse{
			Data: transfer.TweetData{ID: "1901234567890", Text: gotReq.Text},
		})
	}))
	defer server.Close()

	s := newTestTwitterService(server.URL)

	remoteID, err := s.PublishTweet(context.Background(), &models.ScheduledTweet{
		ID:      1,
		Content: "hello world",
	})

	require.NoError(t, err)
	assert.Equal(t, "1901234567890", remoteID)
	assert.Equal(t, "hello world", gotReq.Text)
	assert.Nil(t, gotReq.Media)
}

func TestPublishTweetSurfacesAPIDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(transfer.TweetResponse{
			Errors: []transfer.TwitterError{{
				Title:  "Forbidden",
				Detail: "You are not allowed to create a Tweet with duplicate content.",
			}},
		})
	}))
	defer server.Close()

	s := newTestTwitterService(server.URL)

	_, err := s.PublishTweet(context.Background(), &models.ScheduledTweet{
		ID:      1,
		Content: "hello world",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate content")
	assert.Contains(t, err.Error(), "403")
}

func TestPublishTweetRejectsMissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	s := newTestTwitterService(server.URL)

	_, err := s.PublishTweet(context.Background(), &models.ScheduledTweet{
		ID:      1,
		Content: "hello world",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing tweet id")
}

func TestPublishTweetHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	s := newTestTwitterService(server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.PublishTweet(ctx, &models.ScheduledTweet{ID: 1, Content: "hello"})
	require.Error(t, err)
}
