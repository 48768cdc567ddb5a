// Package notification implements the messaging gateway and the
// subscriber command surface on Telegram.
package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/floompnews/floompnews/core"
	tb "gopkg.in/tucnak/telebot.v2"
)

const pollingTimeout = 10 * time.Second

// defaultTopics are assigned to brand-new subscribers.
var defaultTopics = []core.Topic{
	core.TopicBitcoin,
	core.TopicEthereum,
	core.TopicMarkets,
}

// RecapFunc triggers an immediate recap delivery for one chat.
type RecapFunc func(chatID int64)

// Telegram implements core.Gateway and handles preference commands.
type Telegram struct {
	client  *tb.Bot
	store   core.SubscriberStorage
	log     core.Logger
	onRecap RecapFunc
}

// Option is a function that configures a Telegram instance.
type Option func(*Telegram)

// WithRecapHandler wires the /start and /recap commands to an immediate
// recap delivery.
func WithRecapHandler(fn RecapFunc) Option {
	return func(t *Telegram) {
		t.onRecap = fn
	}
}

// NewTelegram creates and initializes the Telegram service.
func NewTelegram(token string, store core.SubscriberStorage, log core.Logger, options ...Option) (*Telegram, error) {
	client, err := tb.NewBot(tb.Settings{
		ParseMode: tb.ModeMarkdown,
		Token:     token,
		Poller:    &tb.LongPoller{Timeout: pollingTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Telegram{
		client:  client,
		store:   store,
		log:     log,
		onRecap: func(int64) {},
	}

	for _, option := range options {
		option(bot)
	}

	if err := setupCommands(client); err != nil {
		return nil, fmt.Errorf("failed to set commands: %w", err)
	}
	registerHandlers(client, bot)

	return bot, nil
}

// setupCommands configures available bot commands.
func setupCommands(client *tb.Bot) error {
	return client.SetCommands([]tb.Command{
		{Text: "/start", Description: "Begin receiving crypto news"},
		{Text: "/topics", Description: "Set your preferred topics"},
		{Text: "/frequency", Description: "Set update frequency (hourly/daily/breaking)"},
		{Text: "/recap", Description: "Get a daily news recap"},
		{Text: "/help", Description: "Show available commands"},
	})
}

// registerHandlers registers all command handlers.
func registerHandlers(client *tb.Bot, bot *Telegram) {
	client.Handle("/start", bot.StartHandle)
	client.Handle("/topics", bot.TopicsHandle)
	client.Handle("/frequency", bot.FrequencyHandle)
	client.Handle("/recap", bot.RecapHandle)
	client.Handle("/help", bot.HelpHandle)
}

// Start begins long-polling for commands.
func (t *Telegram) Start() {
	go t.client.Start()
	t.log.Info("telegram command surface started")
}

// Stop halts long-polling.
func (t *Telegram) Stop() {
	t.client.Stop()
}

// Send implements core.Gateway.
func (t *Telegram) Send(chatID int64, payload string) error {
	_, err := t.client.Send(&tb.User{ID: chatID}, payload)
	if err != nil {
		return fmt.Errorf("failed to send to %d: %w", chatID, err)
	}
	return nil
}

// Command handlers
// ---------------

// StartHandle registers the subscriber with default preferences and
// sends the welcome message followed by an immediate recap.
func (t *Telegram) StartHandle(m *tb.Message) {
	chatID := m.Sender.ID
	t.log.WithField("chat_id", chatID).Info("new subscriber started")

	if _, err := t.store.Get(chatID); err != nil {
		subscriber := &core.Subscriber{
			ChatID:    chatID,
			Topics:    append([]core.Topic(nil), defaultTopics...),
			Frequency: core.FrequencyDaily,
		}
		if err := t.store.Put(subscriber); err != nil {
			t.log.WithError(err).Error("failed to register subscriber")
			t.reply(m, "Sorry, there was an error processing your request. Please try again later.")
			return
		}
	}

	t.reply(m,
		"👋 Welcome to Crypto News Bot!\n\n"+
			"I'll keep you updated with the latest cryptocurrency news.\n\n"+
			"Available commands:\n"+
			"/topics - Set your preferred topics\n"+
			"/frequency - Set update frequency (hourly/daily/breaking)\n"+
			"/recap - Get a daily news recap\n"+
			"/help - Show this help message")

	t.onRecap(chatID)
}

// TopicsHandle updates the subscriber's topic set. Without arguments it
// lists the available topics.
func (t *Telegram) TopicsHandle(m *tb.Message) {
	args := strings.Fields(m.Payload)
	if len(args) == 0 {
		var lines []string
		for _, topic := range core.Topics {
			lines = append(lines, "- "+capitalize(string(topic)))
		}
		t.reply(m, fmt.Sprintf(
			"Available topics:\n%s\n\nUse /topics topic1 topic2 to set your preferences",
			strings.Join(lines, "\n")))
		return
	}

	var selected []core.Topic
	for _, arg := range args {
		topic, err := core.ParseTopic(arg)
		if err != nil {
			continue
		}
		selected = append(selected, topic)
	}

	if len(selected) == 0 {
		t.reply(m, "No valid topics selected. Try again.")
		return
	}

	subscriber := t.subscriberFor(m.Sender.ID)
	subscriber.Topics = selected
	if err := t.store.Put(subscriber); err != nil {
		t.log.WithError(err).Error("failed to update topics")
		return
	}

	names := make([]string, len(selected))
	for i, topic := range selected {
		names[i] = string(topic)
	}
	t.reply(m, fmt.Sprintf(
		"✅ Topics updated!\nYou'll now receive news about: %s",
		strings.Join(names, ", ")))
}

// FrequencyHandle updates the subscriber's delivery tier.
func (t *Telegram) FrequencyHandle(m *tb.Message) {
	frequency, err := core.ParseFrequency(m.Payload)
	if err != nil {
		t.reply(m,
			"Please specify a valid frequency:\n"+
				"- hourly: Updates every hour\n"+
				"- daily: Updates once per day\n"+
				"- breaking: Only breaking news")
		return
	}

	subscriber := t.subscriberFor(m.Sender.ID)
	subscriber.Frequency = frequency
	if err := t.store.Put(subscriber); err != nil {
		t.log.WithError(err).Error("failed to update frequency")
		return
	}

	t.reply(m, fmt.Sprintf("✅ Frequency updated!\nYou'll now receive %s updates.", frequency))
}

// RecapHandle triggers an immediate recap delivery.
func (t *Telegram) RecapHandle(m *tb.Message) {
	t.log.WithField("chat_id", m.Sender.ID).Info("recap requested")
	t.onRecap(m.Sender.ID)
}

// HelpHandle lists the registered commands.
func (t *Telegram) HelpHandle(m *tb.Message) {
	commands, err := t.client.GetCommands()
	if err != nil {
		t.log.WithError(err).Error("failed to get commands")
		return
	}

	lines := make([]string, 0, len(commands))
	for _, command := range commands {
		lines = append(lines, fmt.Sprintf("%s - %s", command.Text, command.Description))
	}
	t.reply(m, strings.Join(lines, "\n"))
}

// Helper methods
// -------------

// subscriberFor loads the subscriber record, creating a default one for
// chats that skipped /start.
func (t *Telegram) subscriberFor(chatID int64) *core.Subscriber {
	subscriber, err := t.store.Get(chatID)
	if err != nil {
		subscriber = &core.Subscriber{
			ChatID:    chatID,
			Topics:    append([]core.Topic(nil), defaultTopics...),
			Frequency: core.FrequencyDaily,
		}
	}
	return subscriber
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (t *Telegram) reply(m *tb.Message, text string) {
	if _, err := t.client.Send(m.Sender, text); err != nil {
		t.log.WithError(err).Error("failed to send reply")
	}
}
