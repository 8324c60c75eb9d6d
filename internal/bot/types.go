package bot

import (
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"familyreads/internal/catalog"
	"familyreads/internal/state"
	"familyreads/internal/storage"
)

// telegramAPI is the part of *tgbotapi.BotAPI the bot uses
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot represents the Telegram bot wrapper. It is the family's front end to
// the reading state: every update is turned into store operations.
type Bot struct {
	api          telegramAPI
	store        *state.Store
	seed         *catalog.Seed
	db           storage.Storage
	allowedUsers map[int64]bool
	states       map[int64]*ConversationState
	statesMu     sync.Mutex
	logger       *zap.Logger
	now          func() time.Time
}

// ConversationState tracks the state of multi-step commands
type ConversationState struct {
	Command string
	Step    int
	Data    map[string]any
}

// Conversation commands
const (
	convAddReader = "add_reader"
	convJoin      = "join"
	convProgress  = "progress"
	convStartBook = "start_book"
	convLog       = "log"
)

// stepDone marks a finished conversation
const stepDone = -1

const expiredButtonText = "This button has expired. Please start the command again."
