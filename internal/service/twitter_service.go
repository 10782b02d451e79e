package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	cfg "github.com/gritcult/twitter-scheduler/configs"
	"github.com/gritcult/twitter-scheduler/internal/models"
	"github.com/gritcult/twitter-scheduler/internal/repository"
	"github.com/gritcult/twitter-scheduler/internal/transfer"
	"golang.org/x/oauth2"
)

const (
	twitterAPIBase  = "https://api.x.com"
	twitterTokenURL = "https://api.x.com/2/oauth2/token"
)

type TwitterService interface {
	PublishTweet(ctx context.Context, tweet *models.ScheduledTweet) (string, error)
}

type twitterService struct {
	cfg        cfg.Config
	tm         repository.TweetMediaRepository
	ma         repository.MediaAssetRepository
	r2         *R2Service
	apiBase    string
	httpClient *http.Client
}

func NewTwitterService(
	config cfg.Config,
	tm repository.TweetMediaRepository,
	ma repository.MediaAssetRepository,
	r2 *R2Service) TwitterService {

	oauthCfg := &oauth2.Config{
		ClientID:     config.Twitter.ClientID,
		ClientSecret: config.Twitter.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: twitterTokenURL},
	}

	token := &oauth2.Token{
		AccessToken:  config.Twitter.AccessToken,
		RefreshToken: config.Twitter.RefreshToken,
	}
	if token.RefreshToken != "" {
		// An expired token makes the source refresh on first use and keep
		// the rotated refresh token in memory from then on.
		token.Expiry = time.Now()
	}

	httpClient := oauth2.NewClient(context.Background(), oauthCfg.TokenSource(context.Background(), token))

	return &twitterService{
		cfg:        config,
		tm:         tm,
		ma:         ma,
		r2:         r2,
		apiBase:    twitterAPIBase,
		httpClient: httpClient,
	}
}

func (s *twitterService) PublishTweet(ctx context.Context, tweet *models.ScheduledTweet) (string, error) {
	mediaIDs, err := s.uploadTweetMedia(ctx, tweet.ID)
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}

	return s.createTweet(ctx, tweet.Content, mediaIDs)
}

func (s *twitterService) uploadTweetMedia(ctx context.Context, tweetID int64) ([]string, error) {
	attachments, err := s.tm.ListByTweetID(ctx, tweetID)
	if err != nil {
		return nil, err
	}

	var mediaIDs []string
	for _, att := range attachments {
		asset, err := s.ma.GetByID(ctx, att.AssetID)
		if err != nil {
			return nil, err
		}
		if asset == nil {
			return nil, fmt.Errorf("media asset %d does not exist", att.AssetID)
		}

		data, err := s.r2.GetFromR2(ctx, asset.FileName)
		if err != nil {
			return nil, err
		}

		mediaID, err := s.uploadMedia(ctx, data)
		if err != nil {
			return nil, err
		}
		mediaIDs = append(mediaIDs, mediaID)
	}

	return mediaIDs, nil
}

func (s *twitterService) uploadMedia(ctx context.Context, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("media", "media")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := writer.WriteField("media_category", "tweet_image"); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiBase+"/2/media/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apiError("media upload", resp)
	}

	var result transfer.MediaUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return "", err
	}
	if result.Data.ID == "" {
		return "", errors.New("media upload response missing media id")
	}

	return result.Data.ID, nil
}

func (s *twitterService) createTweet(ctx context.Context, text string, mediaIDs []string) (string, error) {
	tweetReq := transfer.TweetRequest{Text: text}
	if len(mediaIDs) > 0 {
		tweetReq.Media = &transfer.TweetMediaRef{MediaIDs: mediaIDs}
	}

	payload, err := json.Marshal(tweetReq)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiBase+"/2/tweets", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apiError("create tweet", resp)
	}

	var result transfer.TweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return "", err
	}
	if result.Data.ID == "" {
		return "", errors.New("tweet response missing tweet id")
	}

	return result.Data.ID, nil
}

// apiError turns a non-2xx Twitter response into a readable error, keeping
// the API's own detail message when one is present.
func apiError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiResp transfer.TweetResponse
	if err := json.Unmarshal(body, &apiResp); err == nil && len(apiResp.Errors) > 0 {
		return fmt.Errorf("%s: %s (status %d)", op, apiResp.Errors[0].Detail, resp.StatusCode)
	}

	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, string(body))
}
