package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	config "github.com/gritcult/twitter-scheduler/configs"
	"github.com/gritcult/twitter-scheduler/internal/api/handlers"
	"github.com/gritcult/twitter-scheduler/internal/api/middleware"
	"github.com/gritcult/twitter-scheduler/internal/dispatcher"
	job "github.com/gritcult/twitter-scheduler/internal/jobs"
	"github.com/gritcult/twitter-scheduler/internal/queue"
	"github.com/gritcult/twitter-scheduler/internal/repository"
	"github.com/gritcult/twitter-scheduler/internal/service"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	if err := repository.Migrate(context.Background(), db); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
		BodyLimit:    16 * 1024 * 1024, // 16 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))
	app.Use(middleware.Metrics())

	tweetRepo := repository.NewTweetRepository(db)
	tweetMediaRepo := repository.NewTweetMediaRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)

	r2Service := service.NewR2Service(*cfg)
	twitterService := service.NewTwitterService(*cfg, tweetMediaRepo, mediaAssetRepo, r2Service)
	tweetService := service.NewTweetService(db, tweetRepo, tweetMediaRepo, mediaAssetRepo, deliveryRepo, r2Service)

	disp := dispatcher.New(dispatcher.Config{
		TweetRepo:    tweetRepo,
		DeliveryRepo: deliveryRepo,
		Poster:       twitterService,
		BatchSize:    cfg.Dispatch.BatchSize,
		PostTimeout:  cfg.Dispatch.PostTimeout,
	})

	tweet := handlers.NewTweetHandler(tweetService, disp, client)

	api := app.Group("/api")
	api.Post("/schedule", tweet.Schedule)
	api.Post("/post-now", tweet.PostNow)
	api.Get("/tweets", tweet.ListTweets)
	api.Get("/tweets/history", tweet.History)
	api.Post("/tweets/edit", tweet.Edit)
	api.Post("/tweets/retry", tweet.Retry)
	api.Post("/tweets/remove", tweet.Remove)
	api.Post("/dispatch", tweet.Dispatch)

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down"})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// cron jobs
	sweepJob := job.NewStaleSweepJob(disp, cfg.Dispatch.StaleAfter)

	//queue
	queueW := queue.NewQueue(disp)

	c := cron.New()
	c.AddFunc(fmt.Sprintf("@every %s", cfg.Dispatch.Interval), func() {
		if err := disp.Run(context.Background()); err != nil {
			slog.Error("dispatch cycle failed", "error", err)
		}
	})
	c.AddFunc(fmt.Sprintf("@every %s", cfg.Dispatch.SweepEvery), sweepJob.Sweep)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeDispatch, queueW.HandleDispatchTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
