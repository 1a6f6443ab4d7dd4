package telegram

import (
	"context"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lunari-bot/lunari-telegram-bot/internal/domain"
	"github.com/lunari-bot/lunari-telegram-bot/internal/horoscope"
	"github.com/lunari-bot/lunari-telegram-bot/internal/natal"
	"github.com/lunari-bot/lunari-telegram-bot/internal/registry"
)

// BotAPI is the part of *tgbotapi.BotAPI the router uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Subscriptions is the registry surface used by command handlers.
type Subscriptions interface {
	Subscribe(id int64)
	Unsubscribe(id int64)
	SetZodiacSign(id int64, raw string) (domain.Sign, error)
	SetDeliveryTime(id int64, raw string) (domain.TimeOfDay, error)
	Get(id int64) (registry.Subscriber, bool)
}

// Deps are the collaborators of the router.
type Deps struct {
	Subscriptions Subscriptions
	Lookup        horoscope.Lookup
	Generator     natal.Generator // nil disables /natal
	WelcomeImage  []byte          // nil sends the welcome text only
	SendRate      float64         // outgoing messages per second, 0 = unlimited
	Clock         func() time.Time
}

// Router wires Telegram updates to handlers and holds minimal in-memory state.
type Router struct {
	bot     BotAPI
	log     *zap.Logger
	subs    Subscriptions
	lookup  horoscope.Lookup
	natal   natal.Generator
	welcome []byte
	limiter *rate.Limiter
	clock   func() time.Time

	state map[int64]*natal.Session // chatID -> natal dialogue in progress
	mu    sync.RWMutex
	wg    sync.WaitGroup
}

// NewRouter creates a new Telegram router.
func NewRouter(bot BotAPI, log *zap.Logger, deps Deps) *Router {
	limit := rate.Inf
	if deps.SendRate > 0 {
		limit = rate.Limit(deps.SendRate)
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Router{
		bot:     bot,
		log:     log,
		subs:    deps.Subscriptions,
		lookup:  deps.Lookup,
		natal:   deps.Generator,
		welcome: deps.WelcomeImage,
		limiter: rate.NewLimiter(limit, 1),
		clock:   clock,
		state:   make(map[int64]*natal.Session),
	}
}

// setPending stores a natal dialogue for a chat (non-persistent, in-memory).
func (r *Router) setPending(chatID int64, s *natal.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[chatID] = s
}

// getPending returns the natal dialogue in progress, if any.
func (r *Router) getPending(chatID int64) *natal.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state[chatID]
}

// clearPending reports whether a dialogue was in progress.
func (r *Router) clearPending(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.state[chatID]
	delete(r.state, chatID)
	return ok
}

// HandleUpdate routes a single update to appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil || upd.Message.Chat == nil {
		return
	}
	chatID := upd.Message.Chat.ID
	text := strings.TrimSpace(upd.Message.Text)
	cmd, args := splitCommand(text)

	switch cmd {
	case "/start":
		r.handleStart(ctx, chatID)
	case "/today":
		r.handleToday(ctx, chatID)
	case "/settime":
		r.handleSetTime(ctx, chatID, args)
	case "/unsubscribe":
		r.handleUnsubscribe(ctx, chatID)
	case "/status":
		r.handleStatus(ctx, chatID)
	case "/help":
		r.sendText(ctx, chatID, helpText)
	case "/natal":
		r.handleNatal(ctx, chatID)
	case "/cancel":
		r.handleCancel(ctx, chatID)
	case "":
		// Free-form text: either a natal dialogue answer or a sign choice.
		if s := r.getPending(chatID); s != nil {
			r.handleNatalInput(ctx, chatID, s, text)
			return
		}
		r.handleZodiacChoice(ctx, chatID, text)
	default:
		r.sendText(ctx, chatID, unknownCommandText)
	}
}

// Wait blocks until background natal generations finish.
func (r *Router) Wait() {
	r.wg.Wait()
}

// SendMessage sends a plain text message to the given chat.
// This makes Router satisfy scheduler.Sender.
func (r *Router) SendMessage(ctx context.Context, chatID int64, text string) error {
	for _, part := range splitMessage(text, maxMessageLen) {
		if err := r.send(ctx, tgbotapi.NewMessage(chatID, part)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) send(ctx context.Context, c tgbotapi.Chattable) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := r.bot.Send(c)
	return err
}

// splitCommand returns the command without a @botname suffix and its arguments.
// Plain text yields an empty command.
func splitCommand(text string) (string, []string) {
	if !strings.HasPrefix(text, "/") {
		return "", nil
	}
	fields := strings.Fields(text)
	cmd, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(cmd), fields[1:]
}

// maxMessageLen stays under Telegram's 4096 character limit.
const maxMessageLen = 4000

// splitMessage cuts text into parts of at most limit runes, preferring line breaks.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}
	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
		for len(runes) > 0 && runes[0] == '\n' {
			runes = runes[1:]
		}
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
