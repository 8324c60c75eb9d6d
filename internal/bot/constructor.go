package bot

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"familyreads/internal/catalog"
	"familyreads/internal/state"
	"familyreads/internal/storage"
)

// NewBot creates a new Telegram bot
func NewBot(token string, store *state.Store, seed *catalog.Seed, db storage.Storage, allowedUserIDs []int64, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("Failed to create bot API", zap.Error(err))
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot created", zap.String("bot_username", api.Self.UserName))

	return newBot(api, store, seed, db, allowedUserIDs, logger), nil
}

func newBot(api telegramAPI, store *state.Store, seed *catalog.Seed, db storage.Storage, allowedUserIDs []int64, logger *zap.Logger) *Bot {
	allowedUsers := make(map[int64]bool)
	for _, id := range allowedUserIDs {
		allowedUsers[id] = true
	}

	return &Bot{
		api:          api,
		store:        store,
		seed:         seed,
		db:           db,
		allowedUsers: allowedUsers,
		states:       make(map[int64]*ConversationState),
		logger:       logger,
		now:          time.Now,
	}
}
