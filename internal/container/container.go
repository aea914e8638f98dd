package container

import (
	"context"
	"time"

	"yt-notify/internal/channel"
	"yt-notify/internal/config"
	"yt-notify/internal/repository"
	"yt-notify/internal/service"
	"yt-notify/internal/service/auth"
	"yt-notify/internal/service/youtube"
	"yt-notify/pkg/database"
	"yt-notify/pkg/logger"
	"yt-notify/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	RedisClient *redis.Client
	DB          *database.PostgresDB
	Services    *service.Services
	Hub         *channel.Hub
}

// New creates a new dependency injection container. Redis and PostgreSQL are
// optional: when they are not configured or unreachable the matching features
// are disabled and the channels keep working in memory.
func New(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Container, error) {
	// Initialize Redis client if Redis URL is configured
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, logger.Logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize Redis client, proceeding without stats")
		} else {
			redisClient = client
			logger.Info("Redis client initialized successfully")
		}
	} else {
		logger.Info("Redis URL not configured, proceeding without stats")
	}

	// Initialize database if archiving is enabled
	var db *database.PostgresDB
	if cfg.ArchiveEnabled && cfg.DatabaseURL != "" {
		dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pg, err := database.NewPostgresDB(dbCtx, cfg.DatabaseURL, cfg.DatabaseReadURL, cfg.Environment)
		cancel()
		if err != nil {
			logger.WithError(err).Warn("Failed to connect to database, proceeding without archive")
		} else {
			db = pg
			logger.Info("Database connection established")
		}
	} else {
		logger.Info("Archive disabled or DATABASE_URL not configured")
	}

	// Initialize services
	services := &service.Services{
		Auth: auth.NewService(cfg.JWTSecret, logger),
	}

	if cfg.YouTubeAPIKey != "" || cfg.YouTubeAccessToken != "" {
		services.YouTube = youtube.NewService(cfg.YouTubeAPIKey, cfg.YouTubeAccessToken, logger)
	}

	hubOptions := []channel.Option{channel.WithLogger(logger)}

	if redisClient != nil {
		stats := service.NewStatsService(redisClient, logger.Logger)
		services.Stats = stats
		hubOptions = append(hubOptions, channel.WithPublishHook(stats))
	}

	if db != nil {
		archive := service.NewArchiveService(repository.NewContentRepository(db), logger)
		services.Archive = archive
		hubOptions = append(hubOptions, channel.WithPublishHook(archive))
	}

	hub := channel.NewHub(hubOptions...)
	for _, name := range cfg.DefaultChannels {
		if _, err := hub.Create(name); err != nil {
			logger.WithError(err).WithField("channel", name).Warn("Failed to create default channel")
			continue
		}
		logger.WithField("channel", name).Info("Default channel created")
	}

	return &Container{
		Config:      cfg,
		Logger:      logger,
		RedisClient: redisClient,
		DB:          db,
		Services:    services,
		Hub:         hub,
	}, nil
}

// GetAuthService returns the auth service
func (c *Container) GetAuthService() service.AuthService {
	return c.Services.Auth
}

// GetYouTubeService returns the YouTube service (nil if no credentials are configured)
func (c *Container) GetYouTubeService() service.YouTubeService {
	return c.Services.YouTube
}

// GetStatsService returns the stats service (nil if Redis is not available)
func (c *Container) GetStatsService() service.StatsService {
	return c.Services.Stats
}

// GetArchiveService returns the archive service (nil if the database is not available)
func (c *Container) GetArchiveService() service.ArchiveService {
	return c.Services.Archive
}

// GetHub returns the channel directory
func (c *Container) GetHub() *channel.Hub {
	return c.Hub
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// HasDatabase returns true if the archive database is available
func (c *Container) HasDatabase() bool {
	return c.DB != nil
}
