package config

import (
	"LedgerBot/database/postgres"
	classifierHandler "LedgerBot/internal/api/classifier/handler"
	classifierRepository "LedgerBot/internal/api/classifier/repository"
	classifierService "LedgerBot/internal/api/classifier/service"
	ledgerHandler "LedgerBot/internal/api/ledger/handler"
	ledgerRepository "LedgerBot/internal/api/ledger/repository"
	ledgerService "LedgerBot/internal/api/ledger/service"
	"LedgerBot/internal/entity"
	"LedgerBot/internal/middleware"
	"LedgerBot/pkg/detector"
	"LedgerBot/pkg/gemini"
	"LedgerBot/pkg/semantic"
	"LedgerBot/pkg/utils"
	"LedgerBot/pkg/whatsapp"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	classifierPkg "LedgerBot/internal/api/classifier"
)

type ServerOption func(*Server) error

type Server struct {
	engine           *fiber.App
	db               *sqlx.DB
	log              *logrus.Logger
	middleware       middleware.Middleware
	validator        *validator.Validate
	utils            utils.IUtils
	handlers         []handler
	redisClient      *redis.Client
	detector         detector.IDetector
	semanticClient   semantic.ISemantic
	geminiClient     gemini.IGemini
	whatsappClient   whatsapp.IWhatsapp
	classifierConfig classifierPkg.Config
	wallets          map[entity.Scope]string
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{
		classifierConfig: classifierPkg.DefaultConfig(),
		wallets:          WalletsFromEnv(),
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

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
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

func WithRedisClient(client *redis.Client) ServerOption {
	return func(s *Server) error {
		s.redisClient = client
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

// WithDetector builds the keyword detector, merging an optional YAML
// vocabulary over the built-in index. A broken file logs and falls back to
// the defaults rather than blocking startup.
func WithDetector() ServerOption {
	return func(s *Server) error {
		index, err := detector.LoadSignalIndex(os.Getenv("CLASSIFIER_KEYWORDS_PATH"))
		if err != nil && s.log != nil {
			s.log.Warnf("Failed to load keyword vocabulary, using defaults: %v", err)
		}
		s.detector = detector.New(index)
		return nil
	}
}

func WithClassifierSettings() ServerOption {
	return func(s *Server) error {
		cfg, err := LoadClassifierSettings(os.Getenv("CLASSIFIER_CONFIG_PATH"))
		if err != nil && s.log != nil {
			s.log.Warnf("Failed to load classifier settings, using defaults: %v", err)
		}
		s.classifierConfig = cfg
		return nil
	}
}

// WithSemanticClassifier is best effort: without an API key the pipeline
// runs on heuristics alone.
func WithSemanticClassifier() ServerOption {
	return func(s *Server) error {
		client, err := semantic.New()
		if err != nil {
			if s.log != nil {
				s.log.Warnf("Semantic classifier unavailable, running heuristics only: %v", err)
			}
			return nil
		}
		s.semanticClient = client
		return nil
	}
}

// WithGeminiClient is best effort: without it receipt images get a manual
// entry reply instead of a transcription.
func WithGeminiClient() ServerOption {
	return func(s *Server) error {
		client, err := gemini.NewGeminiClient()
		if err != nil {
			if s.log != nil {
				s.log.Warnf("Gemini client unavailable, receipt images disabled: %v", err)
			}
			return nil
		}
		s.geminiClient = client
		return nil
	}
}

func WithWhatsappClient() ServerOption {
	return func(s *Server) error {
		client, err := whatsapp.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize WhatsApp client: %v", err)
			}
			return fmt.Errorf("failed to create WhatsApp client: %w", err)
		}
		s.whatsappClient = client
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Ledger Domain
	ledgerRepo := ledgerRepository.New(s.db, s.log)
	ledgerServices := ledgerService.New(s.log, ledgerRepo, s.utils, s.wallets)
	ledgerHandlers := ledgerHandler.New(s.log, s.validator, s.middleware, ledgerServices)

	// Classifier Domain
	classifierRepo := classifierRepository.New(s.redisClient, s.log)

	var sender classifierService.Sender
	if s.whatsappClient != nil {
		sender = s.whatsappClient
	}

	classifierServices := classifierService.New(
		s.log,
		classifierRepo,
		s.detector,
		s.semanticClient,
		ledgerServices,
		s.geminiClient,
		sender,
		s.classifierConfig,
	)
	classifierHandlers := classifierHandler.New(s.log, s.validator, s.middleware, s.utils, classifierServices)

	if s.whatsappClient != nil {
		s.whatsappClient.OnMessage(classifierServices.HandleTransportMessage)
	}

	s.setupHealthCheck()
	s.handlers = append(s.handlers, ledgerHandlers, classifierHandlers)
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(middleware.LoggerConfig())

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	if err := s.engine.Listen(fmt.Sprintf(":%s", port)); err != nil {
		if s.whatsappClient != nil {
			s.whatsappClient.Disconnect()
		}
		return err
	}

	return nil
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
