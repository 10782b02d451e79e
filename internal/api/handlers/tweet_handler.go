package handlers

import (
	"log/slog"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/gritcult/twitter-scheduler/internal/dispatcher"
	"github.com/gritcult/twitter-scheduler/internal/queue"
	"github.com/gritcult/twitter-scheduler/internal/service"
	"github.com/gritcult/twitter-scheduler/internal/transfer"
	"github.com/hibiken/asynq"
)

type TweetHandler struct {
	s           service.TweetService
	d           *dispatcher.Dispatcher
	AsynqClient *asynq.Client
}

func NewTweetHandler(s service.TweetService, d *dispatcher.Dispatcher, asynqClient *asynq.Client) *TweetHandler {
	return &TweetHandler{s: s, d: d, AsynqClient: asynqClient}
}

func (h *TweetHandler) Schedule(c *fiber.Ctx) error {
	content := c.FormValue("content")
	scheduledAt := c.FormValue("scheduled_time")
	files := formFiles(c)

	tweetID, delay, err := h.s.Schedule(c.Context(), &transfer.TweetCreation{
		Content:     content,
		ScheduledAt: scheduledAt},
		files)

	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	// If Redis is down the interval cycle still delivers the tweet, just
	// not at the exact second.
	err = queue.EnqueueDispatch(h.AsynqClient, queue.DispatchPayload{TweetID: tweetID}, delay)
	if err != nil {
		slog.Warn("failed to enqueue dispatch task", "tweet_id", tweetID, "error", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"id":      tweetID,
		"message": "Tweet scheduled successfully",
	})
}

func (h *TweetHandler) PostNow(c *fiber.Ctx) error {
	content := c.FormValue("content")
	files := formFiles(c)

	tweetID, err := h.s.PostNow(c.Context(), content, files)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	err = queue.EnqueueDispatch(h.AsynqClient, queue.DispatchPayload{TweetID: tweetID}, 0)
	if err != nil {
		slog.Warn("failed to enqueue dispatch task", "tweet_id", tweetID, "error", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"id":      tweetID,
		"message": "Tweet queued for immediate posting",
	})
}

func (h *TweetHandler) ListTweets(c *fiber.Ctx) error {
	tweetID := c.QueryInt("id", 0)

	if tweetID != 0 {
		tweet, err := h.s.TweetInfo(c.Context(), int64(tweetID))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		return c.Status(fiber.StatusOK).JSON(tweet)
	}

	tweets, err := h.s.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list tweets",
		})
	}

	return c.Status(fiber.StatusOK).JSON(tweets)
}

func (h *TweetHandler) History(c *fiber.Ctx) error {
	tweetID := c.QueryInt("id", 0)

	records, err := h.s.History(c.Context(), int64(tweetID))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(records)
}

func (h *TweetHandler) Edit(c *fiber.Ctx) error {
	tweetID := c.QueryInt("id", 0)
	content := c.FormValue("content")

	err := h.s.Edit(c.Context(), int64(tweetID), content)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Tweet updated",
	})
}

func (h *TweetHandler) Retry(c *fiber.Ctx) error {
	tweetID := c.QueryInt("id", 0)

	err := h.s.Retry(c.Context(), int64(tweetID))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Tweet queued for retry",
	})
}

func (h *TweetHandler) Remove(c *fiber.Ctx) error {
	tweetID := c.QueryInt("id", 0)

	err := h.s.Remove(c.Context(), int64(tweetID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove tweet",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

// Dispatch triggers one dispatcher cycle on demand.
func (h *TweetHandler) Dispatch(c *fiber.Ctx) error {
	if err := h.d.Run(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Dispatch cycle completed",
	})
}

func formFiles(c *fiber.Ctx) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File["images"]
}
