package classifierHandler

import (
	classifierService "LedgerBot/internal/api/classifier/service"
	"LedgerBot/internal/middleware"
	"LedgerBot/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ClassifierHandler struct {
	log               *logrus.Logger
	validator         *validator.Validate
	middleware        middleware.Middleware
	utils             utils.IUtils
	classifierService classifierService.IClassifierService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	utils utils.IUtils,
	classifierService classifierService.IClassifierService,
) *ClassifierHandler {
	return &ClassifierHandler{
		log:               log,
		validator:         validate,
		middleware:        middleware,
		utils:             utils,
		classifierService: classifierService,
	}
}

func (h *ClassifierHandler) Start(srv fiber.Router) {
	messages := srv.Group("/classifier")

	messages.Post("/messages", h.middleware.NewRateLimiter, h.HandleMessage)
	messages.Post("/classify", h.middleware.NewRateLimiter, h.Classify)
	messages.Post("/receipts", h.middleware.NewRateLimiter, h.HandleReceipt)
	messages.Get("/patterns", h.GetPatterns)
	messages.Delete("/patterns", h.PurgePatterns)
	messages.Get("/stats", h.GetStats)
}
