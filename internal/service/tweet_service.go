package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"time"
	"unicode/utf8"

	"github.com/gritcult/twitter-scheduler/internal/models"
	"github.com/gritcult/twitter-scheduler/internal/repository"
	"github.com/gritcult/twitter-scheduler/internal/transfer"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	MaxTweetLength = 280
	MaxTweetImages = 4

	listLimit = 50
)

type TweetService interface {
	Schedule(ctx context.Context, tc *transfer.TweetCreation, files []*multipart.FileHeader) (int64, time.Duration, error)
	PostNow(ctx context.Context, content string, files []*multipart.FileHeader) (int64, error)
	List(ctx context.Context) ([]*models.ScheduledTweet, error)
	TweetInfo(ctx context.Context, tweetID int64) (*models.ScheduledTweet, error)
	History(ctx context.Context, tweetID int64) ([]*models.DeliveryRecord, error)
	Edit(ctx context.Context, tweetID int64, content string) error
	Retry(ctx context.Context, tweetID int64) error
	Remove(ctx context.Context, tweetID int64) error
}

type tweetService struct {
	db *sql.DB
	tr repository.TweetRepository
	tm repository.TweetMediaRepository
	ma repository.MediaAssetRepository
	dr repository.DeliveryRepository
	r2 *R2Service
}

func NewTweetService(
	db *sql.DB,
	tr repository.TweetRepository,
	tm repository.TweetMediaRepository,
	ma repository.MediaAssetRepository,
	dr repository.DeliveryRepository,
	r2 *R2Service) TweetService {
	return &tweetService{
		db: db,
		tr: tr,
		tm: tm,
		ma: ma,
		dr: dr,
		r2: r2,
	}
}

func (s *tweetService) Schedule(ctx context.Context, tc *transfer.TweetCreation, files []*multipart.FileHeader) (int64, time.Duration, error) {
	if tc == nil {
		err := errors.New("tweet creation data is nil")
		slog.Error(err.Error())
		return 0, 0, err
	}

	if err := validateContent(tc.Content); err != nil {
		slog.Info(err.Error())
		return 0, 0, err
	}

	scheduledAt, err := parseScheduledAt(tc.ScheduledAt)
	if err != nil {
		slog.Error(err.Error())
		return 0, 0, err
	}
	if !scheduledAt.After(time.Now()) {
		err := errors.New("scheduled time must be in the future")
		slog.Info(err.Error())
		return 0, 0, err
	}

	if len(files) > MaxTweetImages {
		err := fmt.Errorf("maximum %d images allowed", MaxTweetImages)
		slog.Info(err.Error())
		return 0, 0, err
	}

	id, err := s.createTweet(ctx, tc.Content, scheduledAt, files)
	if err != nil {
		return 0, 0, err
	}

	delay := time.Until(scheduledAt)
	if delay < 0 {
		delay = 0
	}

	return id, delay, nil
}

// PostNow schedules the tweet for immediate delivery. It still goes through
// the dispatcher so the claim guard applies to it like any other tweet.
func (s *tweetService) PostNow(ctx context.Context, content string, files []*multipart.FileHeader) (int64, error) {
	if err := validateContent(content); err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	if len(files) > MaxTweetImages {
		err := fmt.Errorf("maximum %d images allowed", MaxTweetImages)
		slog.Info(err.Error())
		return 0, err
	}

	return s.createTweet(ctx, content, time.Now(), files)
}

func (s *tweetService) createTweet(ctx context.Context, content string, scheduledAt time.Time, files []*multipart.FileHeader) (int64, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	tweet := models.ScheduledTweet{
		Content:     content,
		ScheduledAt: scheduledAt,
		Status:      models.TweetStatusPending,
	}

	tweetID, err := s.tr.Create(ctx, tx, &tweet)
	if err != nil {
		return 0, fmt.Errorf("error creating tweet: %w", err)
	}

	if err = s.processFiles(ctx, tx, tweetID, files); err != nil {
		return 0, fmt.Errorf("error processing files: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return tweetID, nil
}

func (s *tweetService) processFiles(ctx context.Context, tx *sql.Tx, tweetID int64, files []*multipart.FileHeader) error {
	allowedTypes := map[string]struct{}{
		"jpg": {}, "png": {}, "gif": {}, "webp": {},
	}

	for i, file := range files {
		fileContent, err := file.Open()
		if err != nil {
			return fmt.Errorf("error opening file: %w", err)
		}
		defer fileContent.Close()

		fileBytes, err := io.ReadAll(fileContent)
		if err != nil {
			return fmt.Errorf("error reading file content: %w", err)
		}

		fileType, err := filetype.Match(fileBytes)
		if err != nil || fileType == types.Unknown {
			return fmt.Errorf("unsupported file type: %w", err)
		}
		if _, ok := allowedTypes[fileType.Extension]; !ok {
			return fmt.Errorf("file type %s is not allowed", fileType.Extension)
		}

		assetID, err := s.saveFile(ctx, tx, fileType.MIME.Value, fileBytes)
		if err != nil {
			return fmt.Errorf("error uploading file: %w", err)
		}

		tweetMedia := models.TweetMedia{
			TweetID:      tweetID,
			AssetID:      assetID,
			DisplayOrder: i,
		}
		if err := s.tm.Create(ctx, tx, &tweetMedia); err != nil {
			return fmt.Errorf("error saving media file: %w", err)
		}
	}
	return nil
}

func (s *tweetService) saveFile(ctx context.Context, tx *sql.Tx, fileType string, file []byte) (int64, error) {
	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	err = s.r2.UploadToR2(ctx, id, file, fileType)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	ma := models.MediaAsset{
		FileName: id,
		FileType: fileType,
		FileSize: int64(len(file)),
		FileURL:  s.r2.PublicURL(id),
	}

	assetID, err := s.ma.Create(ctx, tx, &ma)
	if err != nil {
		return 0, err
	}

	return assetID, nil
}

func (s *tweetService) List(ctx context.Context) ([]*models.ScheduledTweet, error) {
	tweets, err := s.tr.List(ctx, listLimit)
	if err != nil {
		return nil, fmt.Errorf("error listing tweets")
	}
	return tweets, nil
}

func (s *tweetService) TweetInfo(ctx context.Context, tweetID int64) (*models.ScheduledTweet, error) {
	if tweetID == 0 {
		err := errors.New("tweet id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	tweet, err := s.tr.GetByID(ctx, tweetID)
	if err != nil {
		return nil, fmt.Errorf("error getting tweet info")
	}
	if tweet == nil {
		err := errors.New("tweet doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	return tweet, nil
}

func (s *tweetService) History(ctx context.Context, tweetID int64) ([]*models.DeliveryRecord, error) {
	if tweetID == 0 {
		err := errors.New("tweet id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	records, err := s.dr.ListByTweetID(ctx, tweetID)
	if err != nil {
		return nil, fmt.Errorf("error getting delivery history")
	}
	return records, nil
}

func (s *tweetService) Edit(ctx context.Context, tweetID int64, content string) error {
	if tweetID == 0 {
		err := errors.New("tweet id is not valid")
		slog.Info(err.Error())
		return err
	}

	if err := validateContent(content); err != nil {
		slog.Info(err.Error())
		return err
	}

	err := s.tr.UpdateContent(ctx, tweetID, content)
	if errors.Is(err, repository.ErrNotFound) {
		return errors.New("only pending tweets can be edited")
	}
	if err != nil {
		return fmt.Errorf("error updating tweet")
	}

	return nil
}

func (s *tweetService) Retry(ctx context.Context, tweetID int64) error {
	if tweetID == 0 {
		err := errors.New("tweet id is not valid")
		slog.Info(err.Error())
		return err
	}

	err := s.tr.Retry(ctx, tweetID)
	if errors.Is(err, repository.ErrNotFound) {
		return errors.New("only failed tweets can be retried")
	}
	if err != nil {
		return fmt.Errorf("error retrying tweet")
	}

	return nil
}

func (s *tweetService) Remove(ctx context.Context, tweetID int64) error {
	if tweetID == 0 {
		err := errors.New("tweet id is not valid")
		slog.Info(err.Error())
		return err
	}

	attachments, err := s.tm.ListByTweetID(ctx, tweetID)
	if err != nil {
		return err
	}
	for _, att := range attachments {
		asset, err := s.ma.GetByID(ctx, att.AssetID)
		if err != nil || asset == nil {
			continue
		}
		if err := s.r2.DeleteFromR2(ctx, asset.FileName); err != nil {
			slog.Info(err.Error())
		}
	}

	if err := s.tr.Remove(ctx, tweetID); err != nil {
		return fmt.Errorf("error removing tweet")
	}

	return nil
}

func validateContent(content string) error {
	if content == "" {
		return errors.New("tweet content is required")
	}
	if utf8.RuneCountInString(content) > MaxTweetLength {
		return fmt.Errorf("tweet content exceeds %d characters", MaxTweetLength)
	}
	return nil
}

func parseScheduledAt(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("scheduled time is required")
	}

	// The web form sends datetime-local values; API clients send RFC 3339.
	if t, err := time.Parse("2006-01-02T15:04", value); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid scheduled time format: %w", err)
	}
	return t, nil
}
