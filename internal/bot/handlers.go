package bot

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// requestTimeout bounds journal calls made while handling one update
const requestTimeout = 10 * time.Second

// handleMessage processes a single message
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage", zap.Any("panic", r))
			b.sendText(message.Chat.ID, "An error occurred while processing your request. Please try again.")
		}
	}()

	userID := message.From.ID
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	// Check if user is in a conversation
	if state := b.getState(userID); state != nil {
		if message.IsCommand() {
			// Any command cancels an ongoing conversation
			b.clearState(userID)
		} else {
			b.handleConversation(ctx, message, state)
			return
		}
	}

	if !message.IsCommand() {
		return
	}

	switch message.Command() {
	case "start", "help":
		b.handleStart(message)
	case "readers":
		b.handleReaders(message)
	case "switch":
		b.handleSwitch(message)
	case "next":
		b.handleNext(ctx, message)
	case "add_reader":
		b.handleAddReaderStart(message)
	case "challenges":
		b.handleChallenges(message)
	case "my_challenges":
		b.handleMyChallenges(message)
	case "join":
		b.handleJoinStart(message)
	case "progress":
		b.handleProgressStart(message)
	case "start_book":
		b.handleStartBookStart(message)
	case "books":
		b.handleBooks(message)
	case "log":
		b.handleLogStart(message)
	case "finish":
		b.handleFinishStart(message)
	case "stamp":
		b.handleStamp(ctx, message)
	case "passport":
		b.handlePassport(message)
	case "badges":
		b.handleBadges(message)
	case "events":
		b.handleEvents(message)
	case "clubs":
		b.handleClubs(message)
	case "recommend":
		b.handleRecommend(message)
	case "last":
		b.handleLast(ctx, message)
	case "stats":
		b.handleStatsStart(message)
	default:
		b.sendText(message.Chat.ID, "Unknown command. Use /start to see available commands.")
	}
}

// handleCallbackQuery processes inline keyboard button clicks
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	// Recover from panics
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery", zap.Any("panic", r))
		}
	}()

	if query.Message == nil || query.Message.Chat == nil {
		return
	}

	userID := query.From.ID
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	// Answer the callback query to remove loading state
	if b.api != nil {
		if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			b.logger.Warn("Failed to answer callback query", zap.Error(err))
		}
	}

	prefix, value, _ := strings.Cut(query.Data, ":")

	// Stateless buttons
	switch prefix {
	case "reader":
		b.handleReaderCallback(ctx, query, value)
		return
	case "finish":
		b.handleFinishCallback(query, value)
		return
	case "finish_yes":
		b.handleFinishConfirmCallback(ctx, query, value)
		return
	case "finish_no":
		b.sendText(query.Message.Chat.ID, "No problem, keep reading! 📖")
		return
	case "stamp":
		b.collectStamp(ctx, query.Message.Chat.ID, value)
		return
	case "stats_period":
		b.handleStatsPeriodCallback(ctx, query, value)
		return
	}

	// Buttons that continue a conversation
	state := b.getState(userID)
	if state == nil {
		b.sendText(query.Message.Chat.ID, expiredButtonText)
		return
	}

	switch prefix {
	case "avatar":
		b.handleAvatarCallback(query, state, value)
	case "age":
		b.handleAgeCallback(ctx, query, state, value)
	case "join":
		b.handleJoinChallengeCallback(query, state, value)
	case "toggle":
		b.handleToggleCallback(query, state, value)
	case "join_save":
		b.handleJoinSaveCallback(ctx, query, state)
	case "progress":
		b.handleProgressChallengeCallback(query, state, value)
	case "startbook":
		b.handleStartBookCallback(ctx, query, state, value)
	case "logbook":
		b.handleLogBookCallback(query, state, value)
	}

	// Clean up completed conversations
	if state.Step == stepDone {
		b.clearState(userID)
	}
}

func (b *Bot) getState(userID int64) *ConversationState {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	return b.states[userID]
}

func (b *Bot) setState(userID int64, command string) *ConversationState {
	state := &ConversationState{
		Command: command,
		Step:    1,
		Data:    make(map[string]any),
	}
	b.statesMu.Lock()
	b.states[userID] = state
	b.statesMu.Unlock()
	return state
}

func (b *Bot) clearState(userID int64) {
	b.statesMu.Lock()
	delete(b.states, userID)
	b.statesMu.Unlock()
}
