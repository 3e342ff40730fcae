package bot

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pathakanu/vitalTrack/internal/analysis"
	"github.com/pathakanu/vitalTrack/internal/config"
	"github.com/pathakanu/vitalTrack/internal/metrics"
	"github.com/pathakanu/vitalTrack/internal/model"
	myopenai "github.com/pathakanu/vitalTrack/internal/openai"
	"github.com/pathakanu/vitalTrack/internal/store"
	"github.com/pathakanu/vitalTrack/internal/twilio"
	"github.com/robfig/cron/v3"
)

// Messenger delivers outbound WhatsApp messages.
type Messenger interface {
	SendWhatsAppMessage(to, body string) error
}

// maxTriggersInReply bounds the trigger list sent over WhatsApp.
const maxTriggersInReply = 5

// Bot lets the owner log meals and symptoms over WhatsApp and sends the
// scheduled digest and backups.
type Bot struct {
	cfg       *config.Config
	store     *store.Store
	openAI    *myopenai.Client
	messenger Messenger
	cron      *cron.Cron
	state     *conversationStore
	logger    *log.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// New creates a fully configured Bot instance.
func New(cfg *config.Config, st *store.Store, openAI *myopenai.Client, messenger Messenger, logger *log.Logger) *Bot {
	return &Bot{
		cfg:       cfg,
		store:     st,
		openAI:    openAI,
		messenger: messenger,
		cron:      cron.New(cron.WithLocation(cfg.LocalTimezone)),
		state:     newConversationStore(),
		logger:    logger,
		metrics:   metrics.Default(),
		now:       time.Now,
	}
}

// StartScheduler registers the digest and backup jobs and starts the scheduler loop.
func (b *Bot) StartScheduler() error {
	if b.cfg.OwnerWhatsAppNumber != "" && b.messenger != nil {
		if _, err := b.cron.AddFunc(b.cfg.DigestCron, func() {
			if err := b.sendDailyDigest(context.Background()); err != nil {
				b.logger.Printf("scheduler: digest: %v", err)
			}
		}); err != nil {
			return fmt.Errorf("digest schedule %q: %w", b.cfg.DigestCron, err)
		}
	}
	if b.cfg.BackupDir != "" {
		if _, err := b.cron.AddFunc(b.cfg.BackupCron, func() {
			if _, err := b.runBackup(context.Background()); err != nil {
				b.logger.Printf("scheduler: backup: %v", err)
			}
		}); err != nil {
			return fmt.Errorf("backup schedule %q: %w", b.cfg.BackupCron, err)
		}
	}
	b.cron.Start()
	return nil
}

// StopScheduler stops the cron scheduler gracefully.
func (b *Bot) StopScheduler() {
	if b.cron == nil {
		return
	}
	ctx := b.cron.Stop()
	<-ctx.Done()
}

// Handler returns the HTTP handler for incoming Twilio messages.
func (b *Bot) Handler() http.HandlerFunc {
	return b.handleIncomingMessage
}

// handleIncomingMessage processes Twilio webhook POST requests.
func (b *Bot) handleIncomingMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		b.logger.Printf("webhook: parse error: %v", err)
		b.writeTwilioResponse(w, "Sorry, I couldn't understand that request.")
		return
	}

	from := r.FormValue("From")
	body := strings.TrimSpace(r.FormValue("Body"))
	if from == "" || body == "" {
		b.writeTwilioResponse(w, "I need a message to work with. Please try again.")
		return
	}

	userID := sanitizeWhatsAppNumber(from)
	if !b.isOwner(userID) {
		b.logger.Printf("webhook: refused message from %s", userID)
		b.writeTwilioResponse(w, "This diary only accepts messages from its owner.")
		return
	}

	ctx := r.Context()
	if symptomType, ok := b.state.PendingSymptom(userID); ok {
		if severity, err := parseSeverity(body); err == nil {
			b.state.Clear(userID)
			b.writeTwilioResponse(w, b.logSymptom(ctx, symptomType, severity))
			return
		}
		if isBareNumber(body) {
			b.writeTwilioResponse(w, "Please send a severity between 1 (mild) and 10 (severe).")
			return
		}
		b.state.Clear(userID)
	}

	cmd := b.determineIntent(ctx, body)
	b.metrics.BotMessages.WithLabelValues(string(cmd.intent)).Inc()

	switch cmd.intent {
	case myopenai.IntentLogMeal:
		b.writeTwilioResponse(w, b.logMeal(ctx, cmd.meal))
	case myopenai.IntentLogSymptom:
		if cmd.symptomType == "" {
			b.writeTwilioResponse(w, "Which symptom? Try e.g. 'symptom acidity 6'.\n"+vocabularyHint())
			return
		}
		if !cmd.hasSeverity {
			b.state.SetPendingSymptom(userID, cmd.symptomType)
			b.writeTwilioResponse(w, askForSeverity(cmd.symptomType))
			return
		}
		b.writeTwilioResponse(w, b.logSymptom(ctx, cmd.symptomType, cmd.severity))
	case myopenai.IntentTriggers:
		if cmd.symptomType == "" {
			b.writeTwilioResponse(w, "Tell me which symptom to analyse, e.g. 'triggers acidity'.\n"+vocabularyHint())
			return
		}
		b.writeTwilioResponse(w, b.describeTriggers(ctx, cmd.symptomType))
	case myopenai.IntentTrends:
		b.writeTwilioResponse(w, b.describeTrends(ctx))
	default:
		b.writeTwilioResponse(w, helpResponse())
	}
}

// command is a parsed inbound message.
type command struct {
	intent      myopenai.Intent
	meal        store.MealInput
	symptomType string
	severity    int
	hasSeverity bool
}

var (
	mealRegex     = regexp.MustCompile(`(?i)^(?:meal|ate)\s+(.+)$`)
	symptomRegex  = regexp.MustCompile(`(?i)^(?:symptom|feeling|felt)\s+(.+?)(?:\s+(\d{1,2}))?$`)
	triggersRegex = regexp.MustCompile(`(?i)^(?:triggers?|causes?)(?:\s+(?:for|of))?(?:\s+(.+))?$`)
)

func (b *Bot) determineIntent(ctx context.Context, message string) command {
	if cmd, ok := parseCommand(message); ok {
		return cmd
	}

	if !b.openAI.Enabled() {
		return command{intent: myopenai.IntentHelp}
	}

	intent, err := b.openAI.ClassifyIntent(ctx, message)
	if err != nil {
		if !errors.Is(err, myopenai.ErrClientNotInitialised) {
			b.logger.Printf("intent classification error: %v", err)
		}
		return command{intent: myopenai.IntentHelp}
	}

	switch intent {
	case myopenai.IntentLogMeal:
		return command{intent: intent, meal: store.MealInput{Name: message}}
	case myopenai.IntentLogSymptom, myopenai.IntentTriggers:
		return command{intent: intent, symptomType: findSymptomType(message)}
	case myopenai.IntentTrends:
		return command{intent: intent}
	default:
		return command{intent: myopenai.IntentHelp}
	}
}

// parseCommand recognises the keyword commands without calling the model.
func parseCommand(message string) (command, bool) {
	message = strings.TrimSpace(message)
	lower := strings.ToLower(message)

	switch lower {
	case "help", "?", "menu":
		return command{intent: myopenai.IntentHelp}, true
	case "trends", "trend", "summary", "stats":
		return command{intent: myopenai.IntentTrends}, true
	}

	if m := mealRegex.FindStringSubmatch(message); m != nil {
		name, ingredients, _ := strings.Cut(m[1], ":")
		return command{
			intent: myopenai.IntentLogMeal,
			meal:   store.MealInput{Name: strings.TrimSpace(name), Ingredients: strings.TrimSpace(ingredients)},
		}, true
	}
	if m := symptomRegex.FindStringSubmatch(message); m != nil {
		cmd := command{intent: myopenai.IntentLogSymptom, symptomType: resolveSymptomType(m[1])}
		if m[2] != "" {
			cmd.severity, _ = strconv.Atoi(m[2])
			cmd.hasSeverity = true
		}
		return cmd, true
	}
	if m := triggersRegex.FindStringSubmatch(message); m != nil {
		return command{intent: myopenai.IntentTriggers, symptomType: resolveSymptomType(m[1])}, true
	}
	return command{}, false
}

func (b *Bot) logMeal(ctx context.Context, in store.MealInput) string {
	meal, err := b.store.AddMeal(ctx, in)
	if err != nil {
		return b.replyForError("save meal", err)
	}
	if ingredients := meal.IngredientList(); len(ingredients) > 0 {
		return fmt.Sprintf("Logged meal: %s (%s).", meal.Name, strings.Join(ingredients, ", "))
	}
	return fmt.Sprintf("Logged meal: %s.", meal.Name)
}

func (b *Bot) logSymptom(ctx context.Context, symptomType string, severity int) string {
	symptom, err := b.store.AddSymptom(ctx, store.SymptomInput{SymptomType: symptomType, Severity: severity})
	if err != nil {
		return b.replyForError("save symptom", err)
	}
	return fmt.Sprintf("Logged %s (severity %d).", displayName(symptom.SymptomType), symptom.Severity)
}

func (b *Bot) describeTriggers(ctx context.Context, symptomType string) string {
	snap, err := b.store.Snapshot(ctx)
	if err != nil {
		return b.replyForError("load snapshot", err)
	}

	start := time.Now()
	results := analysis.ComputeCorrelations(symptomType, snap.Meals, snap.Symptoms)
	b.metrics.ObserveAnalysis("correlation", start)

	return formatTriggers(symptomType, results, analysis.Occurrences(symptomType, snap.Symptoms))
}

func (b *Bot) describeTrends(ctx context.Context) string {
	snap, err := b.store.Snapshot(ctx)
	if err != nil {
		return b.replyForError("load snapshot", err)
	}

	start := time.Now()
	trend := analysis.ComputeTrend(snap.Symptoms, b.cfg.TrendWindowDays, b.reference())
	b.metrics.ObserveAnalysis("trend", start)

	return formatTrend(trend, b.cfg.TrendWindowDays)
}

func (b *Bot) replyForError(action string, err error) string {
	var verr *store.ValidationError
	if errors.As(err, &verr) {
		return "I couldn't log that: " + verr.Message + "."
	}
	b.logger.Printf("%s: %v", action, err)
	return "Something went wrong on my side. Please try again later."
}

func (b *Bot) reference() time.Time {
	return b.now().In(b.cfg.LocalTimezone)
}

func (b *Bot) isOwner(userID string) bool {
	owner := strings.TrimSpace(b.cfg.OwnerWhatsAppNumber)
	if owner == "" {
		return true
	}
	return sanitizeWhatsAppNumber(twilio.NormalizeWhatsAppAddress(owner)) == sanitizeWhatsAppNumber(twilio.NormalizeWhatsAppAddress(userID))
}

func (b *Bot) writeTwilioResponse(w http.ResponseWriter, message string) {
	twiml := struct {
		XMLName xml.Name `xml:"Response"`
		Message string   `xml:"Message"`
	}{
		Message: message,
	}

	w.Header().Set("Content-Type", "application/xml")
	if err := xml.NewEncoder(w).Encode(twiml); err != nil {
		b.logger.Printf("twilio response encode: %v", err)
	}
}

func askForSeverity(symptomType string) string {
	return fmt.Sprintf("How severe is the %s? Reply with a number between 1 (mild) and 10 (severe).", displayName(symptomType))
}

func parseSeverity(text string) (int, error) {
	severity, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, err
	}
	if severity < model.MinSeverity || severity > model.MaxSeverity {
		return 0, fmt.Errorf("severity %d out of range", severity)
	}
	return severity, nil
}

func isBareNumber(text string) bool {
	_, err := strconv.Atoi(strings.TrimSpace(text))
	return err == nil
}

func sanitizeWhatsAppNumber(from string) string {
	// Twilio prepends whatsapp: to the number.
	return strings.TrimPrefix(strings.TrimSpace(from), "whatsapp:")
}

func helpResponse() string {
	return "You can say things like:\n- \"meal Pizza: tomato, cheese\" to log a meal\n- \"symptom acidity 6\" to log a symptom with severity 1-10\n- \"triggers acidity\" to see foods eaten 1-12 hours before it\n- \"trends\" for your recent symptom counts"
}

type conversationStore struct {
	mu    sync.RWMutex
	state map[string]conversationState
}

type conversationState struct {
	AwaitingSeverity bool
	SymptomType      string
}

func newConversationStore() *conversationStore {
	return &conversationStore{
		state: make(map[string]conversationState),
	}
}

func (c *conversationStore) SetPendingSymptom(userID, symptomType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state[userID] = conversationState{
		AwaitingSeverity: true,
		SymptomType:      symptomType,
	}
}

func (c *conversationStore) PendingSymptom(userID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state, ok := c.state[userID]
	if !ok || !state.AwaitingSeverity {
		return "", false
	}
	return state.SymptomType, true
}

func (c *conversationStore) Clear(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.state, userID)
}
