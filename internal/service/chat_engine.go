package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
)

const (
	NoticeStopped = "Generation stopped"
	NoticeReset   = "Chat cleared! New conversation started."
)

// Notifier receives local notifications for the user.
type Notifier interface {
	Notify(domain.Notice)
}

type NotifierFunc func(domain.Notice)

func (f NotifierFunc) Notify(n domain.Notice) { f(n) }

type contextResolver interface {
	Resolve(assistantID string) domain.ContextConfig
}

type EngineDeps struct {
	Assistants assistantLookup
	Settings   contextResolver
	Gateway    Gateway
	Store      *ConversationStore
}

type EngineOption func(*Engine)

// WithMessagesObserver registers fn to receive a copy of the log after
// every change.
func WithMessagesObserver(fn func([]domain.Message)) EngineOption {
	return func(e *Engine) { e.observer = fn }
}

// LogChanges returns an observer that logs the size of the log after each
// change at debug level.
func LogChanges(assistantID string) func([]domain.Message) {
	return func(messages []domain.Message) {
		last := ""
		if len(messages) > 0 {
			last = string(messages[len(messages)-1].Role)
		}
		slog.Debug("chat log changed",
			"assistant_id", assistantID,
			"messages", len(messages),
			"last_role", last,
		)
	}
}

func WithNotifier(n Notifier) EngineOption {
	return func(e *Engine) { e.notifier = n }
}

func WithSaveDebounce(d time.Duration) EngineOption {
	return func(e *Engine) { e.saver = newDebouncer(d) }
}

// Engine drives one assistant conversation. At most one remote call is
// outstanding at a time; its result is applied only if no Stop, ResetChat
// or SelectConversation happened meanwhile.
type Engine struct {
	assistantID string
	assistants  assistantLookup
	settings    contextResolver
	gateway     Gateway
	store       *ConversationStore

	observer func([]domain.Message)
	notifier Notifier
	saver    *debouncer
	now      func() time.Time
	newID    func() string

	mu             sync.Mutex
	messages       []domain.Message
	conversationID string
	inFlight       bool
	cancel         context.CancelFunc
	generation     uint64
	saveSeq        uint64
}

func NewEngine(assistantID string, deps EngineDeps, opts ...EngineOption) *Engine {
	e := &Engine{
		assistantID: assistantID,
		assistants:  deps.Assistants,
		settings:    deps.Settings,
		gateway:     deps.Gateway,
		store:       deps.Store,
		saver:       newDebouncer(config.SaveDebounce),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) AssistantID() string { return e.assistantID }

// Messages returns a copy of the live log.
func (e *Engine) Messages() []domain.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.CloneMessages(e.messages)
}

func (e *Engine) InFlight() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inFlight
}

// ConversationID is the persisted conversation the log belongs to, or ""
// before the first save.
func (e *Engine) ConversationID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conversationID
}

// Resume loads the assistant's remembered conversation into an empty log.
func (e *Engine) Resume() bool {
	conv, ok := e.store.Current(e.assistantID)
	if !ok {
		return false
	}

	e.mu.Lock()
	if len(e.messages) > 0 || e.inFlight {
		e.mu.Unlock()
		return false
	}
	e.messages = domain.CloneMessages(conv.Messages)
	e.conversationID = conv.ID
	snapshot := domain.CloneMessages(e.messages)
	e.mu.Unlock()

	e.emit(snapshot)
	return true
}

type exchange struct {
	prompt     string
	userMsg    domain.Message
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
	snapshot   []domain.Message
}

// Submit appends the prompt as a user message and blocks until the reply
// arrives, the call fails, or it is cancelled. It returns the appended
// reply.
func (e *Engine) Submit(ctx context.Context, prompt string) (domain.Message, error) {
	if strings.TrimSpace(prompt) == "" {
		return domain.Message{}, domain.ErrEmptyPrompt
	}

	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return domain.Message{}, domain.ErrRequestInFlight
	}
	e.messages = append(e.messages, domain.Message{
		ID:        e.newID(),
		Role:      domain.RoleUser,
		Content:   prompt,
		Timestamp: e.now(),
	})
	ex := e.beginLocked(ctx, e.messages[len(e.messages)-1])
	e.mu.Unlock()

	e.emit(ex.snapshot)
	return e.run(ex)
}

// Regenerate drops the reply messageID and everything after it, then sends
// the user message right before it again. That message stays in the log.
func (e *Engine) Regenerate(ctx context.Context, messageID string) (domain.Message, error) {
	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return domain.Message{}, domain.ErrRequestInFlight
	}

	idx := -1
	for i, m := range e.messages {
		if m.ID == messageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.mu.Unlock()
		return domain.Message{}, domain.ErrMessageNotFound
	}
	if e.messages[idx].Role != domain.RoleSystem || idx == 0 || e.messages[idx-1].Role != domain.RoleUser {
		e.mu.Unlock()
		return domain.Message{}, domain.ErrNotRegenerable
	}

	userMsg := e.messages[idx-1]
	e.messages = domain.CloneMessages(e.messages[:idx])
	ex := e.beginLocked(ctx, userMsg)
	e.mu.Unlock()

	e.emit(ex.snapshot)
	return e.run(ex)
}

// beginLocked starts an exchange for userMsg, which must already be the last
// message in the log.
func (e *Engine) beginLocked(ctx context.Context, userMsg domain.Message) exchange {
	e.inFlight = true
	e.generation++

	reqCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.schedulePersistLocked()

	return exchange{
		prompt:     userMsg.Content,
		userMsg:    userMsg,
		generation: e.generation,
		ctx:        reqCtx,
		cancel:     cancel,
		snapshot:   domain.CloneMessages(e.messages),
	}
}

func (e *Engine) run(ex exchange) (domain.Message, error) {
	defer ex.cancel()

	reply, err := e.send(ex)

	e.mu.Lock()
	if ex.generation != e.generation {
		// stopped, reset or switched while waiting
		e.mu.Unlock()
		return domain.Message{}, domain.ErrRequestCancelled
	}
	e.inFlight = false
	e.cancel = nil

	if err != nil {
		e.mu.Unlock()
		if errors.Is(err, domain.ErrRequestCancelled) {
			e.notify(domain.NoticeInfo, NoticeStopped)
			return domain.Message{}, err
		}
		slog.Error("prompt failed", "assistant_id", e.assistantID, "error", err)
		e.notify(domain.NoticeError, err.Error())
		return domain.Message{}, err
	}

	msg := domain.Message{
		ID:        e.newID(),
		Role:      domain.RoleSystem,
		Content:   reply.Text(),
		Timestamp: e.now(),
	}
	if reply.Kind == ReplyUnrecognized {
		slog.Warn("unrecognized reply shape", "assistant_id", e.assistantID)
	}
	e.messages = append(e.messages, msg)
	e.schedulePersistLocked()
	snapshot := domain.CloneMessages(e.messages)
	e.mu.Unlock()

	e.emit(snapshot)
	return msg, nil
}

func (e *Engine) send(ex exchange) (Reply, error) {
	assistant, err := e.assistants.Get(e.assistantID)
	if err != nil {
		return Reply{}, err
	}
	cfg := e.settings.Resolve(e.assistantID)
	contextMsgs := SelectContextMessages(ex.snapshot, cfg)

	return e.gateway.SendPrompt(ex.ctx, PromptRequest{
		Assistant:       assistant,
		Prompt:          fmt.Sprintf("[Assistant: %s] %s", e.assistantID, ex.prompt),
		Context:         contextMsgs,
		PromptMessageID: ex.userMsg.ID,
	})
}

// Stop aborts the in-flight call. It reports false when nothing was running.
func (e *Engine) Stop() bool {
	e.mu.Lock()
	if !e.inFlight {
		e.mu.Unlock()
		return false
	}
	e.abortLocked()
	e.mu.Unlock()

	e.notify(domain.NoticeInfo, NoticeStopped)
	return true
}

// ResetChat clears the log, drops the pending save and forgets the current
// conversation so the next exchange starts a new one.
func (e *Engine) ResetChat() {
	e.mu.Lock()
	e.abortLocked()
	e.messages = nil
	e.conversationID = ""
	e.saveSeq++
	e.saver.Cancel()
	e.store.ForgetCurrent(e.assistantID)
	e.mu.Unlock()

	e.emit([]domain.Message{})
	e.notify(domain.NoticeSuccess, NoticeReset)
}

// SelectConversation replaces the log with messages of a stored
// conversation and marks it current.
func (e *Engine) SelectConversation(conversationID string, messages []domain.Message) {
	e.saver.Flush()

	e.mu.Lock()
	e.abortLocked()
	e.messages = domain.CloneMessages(messages)
	e.conversationID = conversationID
	e.store.SetCurrent(e.assistantID, conversationID)
	e.schedulePersistLocked()
	snapshot := domain.CloneMessages(e.messages)
	e.mu.Unlock()

	e.emit(snapshot)
}

// SetFeedback toggles the like/dislike flag of a message. The flags are
// mutually exclusive.
func (e *Engine) SetFeedback(messageID string, fb domain.Feedback) error {
	e.mu.Lock()
	idx := -1
	for i := range e.messages {
		if e.messages[i].ID == messageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.mu.Unlock()
		return domain.ErrMessageNotFound
	}

	m := &e.messages[idx]
	switch fb {
	case domain.FeedbackLike:
		m.Liked, m.Disliked = !m.Liked, false
	case domain.FeedbackDislike:
		m.Liked, m.Disliked = false, !m.Disliked
	default:
		m.Liked, m.Disliked = false, false
	}
	e.schedulePersistLocked()
	snapshot := domain.CloneMessages(e.messages)
	e.mu.Unlock()

	e.emit(snapshot)
	return nil
}

// Flush persists a pending change immediately.
func (e *Engine) Flush() {
	e.saver.Flush()
}

func (e *Engine) abortLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.inFlight = false
	e.generation++
}

func (e *Engine) schedulePersistLocked() {
	e.saveSeq++
	seq := e.saveSeq
	e.saver.Schedule(func() { e.persist(seq) })
}

func (e *Engine) persist(seq uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.saveSeq || len(e.messages) == 0 {
		return
	}

	e.store.Save(e.assistantID, e.messages, e.conversationID)
	if id := e.store.CurrentConversationID(e.assistantID); id != "" {
		e.conversationID = id
	}
}

func (e *Engine) emit(snapshot []domain.Message) {
	if e.observer != nil {
		e.observer(snapshot)
	}
}

func (e *Engine) notify(level domain.NoticeLevel, text string) {
	if e.notifier != nil {
		e.notifier.Notify(domain.Notice{Level: level, Text: text})
	}
}
