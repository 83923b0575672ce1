package classifierService

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"LedgerBot/internal/api/classifier"
	classifierRepository "LedgerBot/internal/api/classifier/repository"
	ledgerService "LedgerBot/internal/api/ledger/service"
	"LedgerBot/internal/entity"
	"LedgerBot/pkg/detector"
	"LedgerBot/pkg/gemini"
	"LedgerBot/pkg/semantic"
)

// IClassifierService runs the full pipeline for one inbound message:
// context detection, learned-pattern boost, optional semantic fallback,
// confidence routing, pending-session dialog and ledger commit.
type IClassifierService interface {
	HandleInbound(ctx context.Context, msg entity.InboundMessage) (string, error)
	HandleTransportMessage(msg entity.InboundMessage)
	ClassifyText(ctx context.Context, text string, userID string) (entity.ConfidenceDecision, entity.ContextSignals)
	ListPatterns(ctx context.Context) ([]entity.LearnedPattern, error)
	PurgePatterns(ctx context.Context) error
	GetStats(ctx context.Context) (classifier.StatsResponse, error)
}

// Sender delivers outbound replies on the originating transport and returns
// the sent message ID for reply threading.
type Sender interface {
	SendMessage(ctx context.Context, chatJID, text string) (string, error)
}

type classifierService struct {
	log                  *logrus.Logger
	classifierRepository classifierRepository.Repository
	detector             detector.IDetector
	semantic             semantic.ISemantic
	ledgerService        ledgerService.ILedgerService
	gemini               gemini.IGemini
	sender               Sender
	config               classifier.Config
}

// New wires the classifier. semantic, gemini and sender may be nil: the
// pipeline degrades to heuristics-only, text-only, reply-by-return-value.
func New(
	log *logrus.Logger,
	cr classifierRepository.Repository,
	det detector.IDetector,
	sem semantic.ISemantic,
	ls ledgerService.ILedgerService,
	gem gemini.IGemini,
	sender Sender,
	config classifier.Config,
) IClassifierService {
	return &classifierService{
		log:                  log,
		classifierRepository: cr,
		detector:             det,
		semantic:             sem,
		ledgerService:        ls,
		gemini:               gem,
		sender:               sender,
		config:               config,
	}
}
