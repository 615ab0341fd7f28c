package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lingualearner-api/internal/cache"
	"lingualearner-api/internal/config"
	"lingualearner-api/internal/database"
	"lingualearner-api/internal/handler"
	"lingualearner-api/internal/queue"
	redisclient "lingualearner-api/internal/redis"
	"lingualearner-api/internal/repository"
	"lingualearner-api/internal/service"
	"lingualearner-api/internal/worker"
)

// Run wires the whole service together and blocks until shutdown.
func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// 3. Redis is optional: without it the listing reads Postgres directly
	// and no events are published.
	var (
		recentCache cache.RecentPosts
		publisher   queue.Publisher
		consumer    queue.Consumer
	)
	if cfg.RedisURL != "" {
		rdb, err := redisclient.NewClient(cfg.RedisURL, cfg.RedisPoolSize)
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = rdb.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Printf("[Server] Redis unreachable, running without cache: %v", err)
			rdb.Close()
		} else {
			defer rdb.Close()
			recentCache = cache.NewRecentPosts(rdb.Client)
			publisher = queue.NewPublisher(rdb.Client)
			consumer = queue.NewConsumer(rdb.Client)
			log.Println("[Server] Redis connected: recent-posts cache enabled")
		}
	}

	// 4. Repositories
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// 5. Services
	tokenService := service.NewTokenService(cfg)
	userService := service.NewUserService(userRepo)
	postService := service.NewPostService(postRepo, recentCache, publisher, db)
	commentService := service.NewCommentService(commentRepo, postRepo, db)

	// 6. Handlers
	authHandler := handler.NewAuthHandler(userService, tokenService, cfg)
	userHandler := handler.NewUserHandler(userService)
	postHandler := handler.NewPostHandler(postService, commentService)
	commentHandler := handler.NewCommentHandler(commentService)

	var mediaHandler *handler.MediaHandler
	if cfg.MediaEnabled() {
		mediaService, err := service.NewMediaService(context.Background(), cfg)
		if err != nil {
			return fmt.Errorf("failed to create media service: %w", err)
		}
		mediaHandler = handler.NewMediaHandler(mediaService, userService)
		log.Println("[Server] Object storage configured: media routes enabled")
	} else {
		log.Println("[Server] Object storage not configured: media routes disabled")
	}

	// 7. Stream workers keep the recent-posts cache current.
	var manager *worker.Manager
	if consumer != nil && recentCache != nil {
		manager = worker.NewManager(consumer, worker.NewHandler(recentCache), worker.DefaultManagerConfig())
		if err := manager.Start(context.Background()); err != nil {
			return fmt.Errorf("failed to start workers: %w", err)
		}
	}

	router := NewRouter(RouterConfig{
		AuthHandler:    authHandler,
		UserHandler:    userHandler,
		PostHandler:    postHandler,
		CommentHandler: commentHandler,
		MediaHandler:   mediaHandler,
		TokenService:   tokenService,
		UserRepo:       userRepo,
		RequestTimeout: cfg.RequestTimeout,
	})

	server := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if manager != nil {
			manager.Stop()
		}
		return err
	case sig := <-stop:
		log.Printf("Received %v, shutting down", sig)
	}

	// Stop workers first so in-flight events are acknowledged before the
	// Redis connection goes away.
	if manager != nil {
		manager.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}
