package config

import (
	"errors"
	"fmt"

	"WhatsappReminder/database/postgres"
	outreachHandler "WhatsappReminder/internal/api/outreach/handler"
	outreachService "WhatsappReminder/internal/api/outreach/service"
	reminderHandler "WhatsappReminder/internal/api/reminder/handler"
	reminderRepository "WhatsappReminder/internal/api/reminder/repository"
	reminderService "WhatsappReminder/internal/api/reminder/service"
	"WhatsappReminder/internal/allowlist"
	"WhatsappReminder/internal/api/outreach"
	"WhatsappReminder/internal/conversation"
	"WhatsappReminder/internal/dispatch"
	"WhatsappReminder/internal/middleware"
	"WhatsappReminder/internal/scheduler"
	"WhatsappReminder/pkg/metrics"
	"WhatsappReminder/pkg/redis"
	"WhatsappReminder/pkg/s3"
	"WhatsappReminder/pkg/utils"
	"WhatsappReminder/pkg/whatsapp"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"golang.org/x/time/rate"
)

type ServerOption func(*Server) error

type Server struct {
	engine            *fiber.App
	db                *sqlx.DB
	log               *logrus.Logger
	settings          Settings
	middleware        middleware.Middleware
	validator         *validator.Validate
	utils             utils.IUtils
	handlers          []handler
	rootHandlers      []handler
	redisServer       redis.IRedis
	whatsappClient    whatsapp.IWhatsappSender
	s3Client          s3.ItfS3
	metrics           *metrics.Recorder
	allowList         *allowlist.Provider
	conversationStore conversation.Store
	content           outreach.Content
	dispatchLoop      *dispatch.Loop
	scheduler         *scheduler.Scheduler
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{
		content: outreach.DefaultContent(),
	}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.whatsappClient == nil {
		return nil, fmt.Errorf("whatsapp client is required")
	}
	if server.allowList == nil {
		return nil, fmt.Errorf("allow-list is required")
	}
	if server.conversationStore == nil {
		server.conversationStore = conversation.NewMemoryStore()
	}
	if server.utils == nil {
		server.utils = utils.New()
	}
	if server.validator == nil {
		server.validator = NewValidator()
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithSettings(settings Settings) ServerOption {
	return func(s *Server) error {
		s.settings = settings
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

// WithDatabase connects the event store. It is skipped when reminders are
// disabled.
func WithDatabase() ServerOption {
	return func(s *Server) error {
		if !s.settings.RemindersEnabled {
			return nil
		}
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithRedisServer() ServerOption {
	return func(s *Server) error {
		if !s.settings.RedisEnabled {
			return nil
		}
		client, err := redis.New(redis.ConfigFromEnv())
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		s.redisServer = client
		return nil
	}
}

// WithConversationStore picks the Redis store when Redis is configured and
// the in-memory store otherwise.
func WithConversationStore() ServerOption {
	return func(s *Server) error {
		if s.redisServer != nil {
			s.conversationStore = conversation.NewRedisStore(s.redisServer, s.settings.ConversationTTL)
			if s.log != nil {
				s.log.Info("Conversation state kept in Redis")
			}
			return nil
		}
		s.conversationStore = conversation.NewMemoryStore()
		return nil
	}
}

func WithContent() ServerOption {
	return func(s *Server) error {
		content, err := LoadContent(s.settings.ConversationConfig)
		if err != nil {
			return err
		}
		s.content = content
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		cfg := middleware.DefaultConfig()
		if s.settings.RatePerSecond > 0 {
			cfg.RatePerSecond = rate.Limit(s.settings.RatePerSecond)
		}
		if s.settings.RateBurst > 0 {
			cfg.Burst = s.settings.RateBurst
		}
		s.middleware = middleware.New(s.log, cfg)
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		if !s.settings.S3Enabled {
			return nil
		}
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithMetrics() ServerOption {
	return func(s *Server) error {
		if !s.settings.MetricsEnabled {
			return nil
		}
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder, err := metrics.New(reg)
		if err != nil {
			return fmt.Errorf("failed to create metrics: %w", err)
		}
		s.metrics = recorder
		return nil
	}
}

// WithAllowList loads the allow-list once. A failed first load leaves the
// list empty; the file watcher picks up later fixes.
func WithAllowList() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before allow-list")
		}
		provider := allowlist.New(allowlist.NewCSVSource(s.settings.AllowListPath), s.log, s.metrics)
		if err := provider.Reload(context.Background()); err != nil {
			s.log.WithFields(logrus.Fields{
				"path":  s.settings.AllowListPath,
				"error": err.Error(),
			}).Warn("Starting with an empty allow-list")
		}
		s.allowList = provider
		return nil
	}
}

func WithWhatsappClient(ctx context.Context) ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before whatsapp client")
		}
		cfg := s.settings.WhatsappConfig()
		if cfg.SessionDriver == whatsapp.SessionDriverPostgres {
			cfg.PostgresDSN = postgres.FormatDSN(postgres.ConfigFromEnv())
		}

		client, err := whatsapp.New(ctx, cfg, s.log)
		if err != nil {
			s.log.Errorf("Failed to initialize WhatsApp client: %v", err)
			return fmt.Errorf("failed to create WhatsApp client: %w", err)
		}
		s.whatsappClient = client
		return nil
	}
}

// WithWhatsappSender injects an already built gateway.
func WithWhatsappSender(sender whatsapp.IWhatsappSender) ServerOption {
	return func(s *Server) error {
		s.whatsappClient = sender
		return nil
	}
}

func (s *Server) RegisterHandler() {
	if s.middleware == nil {
		s.middleware = middleware.New(s.log, middleware.DefaultConfig())
	}

	// Outreach
	outreachServices := outreachService.NewOutreachService(s.log, s.whatsappClient, s.allowList, s.conversationStore, s.content, s.s3Client, s.utils, s.metrics)
	outreachHandlers := outreachHandler.New(s.log, s.validator, s.middleware, outreachServices)
	s.rootHandlers = append(s.rootHandlers, outreachHandlers)

	// Reminders
	var confirmer dispatch.Confirmer
	if s.settings.RemindersEnabled && s.db != nil {
		reminderRepo := reminderRepository.New(s.db, s.log)
		reminderServices := reminderService.NewReminderService(s.log, reminderRepo, s.whatsappClient, s.utils, s.metrics, s.settings.ReminderConfig())
		reminderHandlers := reminderHandler.New(s.log, s.validator, s.middleware, reminderServices)
		s.handlers = append(s.handlers, reminderHandlers)

		confirmer = reminderServices
		s.scheduler = scheduler.New(reminderServices, s.settings.ReminderInterval, s.log)
	} else {
		s.log.Info("Reminder scheduler disabled")
	}

	s.dispatchLoop = dispatch.New(s.log, s.whatsappClient.Events(), s.allowList, confirmer, outreachServices, s.utils, s.metrics)
	s.setupHealthCheck()
}

// Run starts the background workers and serves HTTP until the listener
// stops.
func (s *Server) Run(ctx context.Context) error {
	s.mountRoutes()

	go func() {
		if err := s.allowList.Watch(ctx, s.settings.AllowListDebounce); err != nil && !errors.Is(err, context.Canceled) {
			s.log.WithField("error", err.Error()).Error("Allow-list watcher stopped")
		}
	}()

	go s.dispatchLoop.Run(ctx)

	if s.scheduler != nil {
		if err := s.scheduler.Start(ctx); err != nil {
			return err
		}
	}

	port := s.settings.AppPort
	if port == "" {
		port = "3000"
	}

	s.log.WithField("port", port).Info("HTTP server listening")
	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown stops the workers, the listener and every client, in that order.
func (s *Server) Shutdown() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if err := s.engine.Shutdown(); err != nil {
		s.log.WithField("error", err.Error()).Warn("HTTP server shutdown failed")
	}
	if s.whatsappClient != nil {
		_ = s.whatsappClient.Disconnect()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.redisServer != nil {
		_ = s.redisServer.Close()
	}
}

func (s *Server) mountRoutes() {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())

	if s.metrics != nil {
		s.engine.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	}

	for _, h := range s.rootHandlers {
		h.Start(s.engine)
	}
	router := s.engine.Group("/api/v1")
	for _, h := range s.handlers {
		h.Start(router)
	}
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.SendString("🚀 Servidor WhatsApp funcionando.")
	})
}
