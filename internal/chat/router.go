// Package chat routes one parent message to the right answer: a hand-off
// for scheduling requests, the deterministic opening-hours engine for
// hours questions, and the language model for everything else.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/decoders-hk/centre-assistant-go/internal/config"
	"github.com/decoders-hk/centre-assistant-go/internal/ctxutil"
	"github.com/decoders-hk/centre-assistant-go/internal/digest"
	apperrors "github.com/decoders-hk/centre-assistant-go/internal/errors"
	"github.com/decoders-hk/centre-assistant-go/internal/history"
	"github.com/decoders-hk/centre-assistant-go/internal/hktime"
	"github.com/decoders-hk/centre-assistant-go/internal/intent"
	"github.com/decoders-hk/centre-assistant-go/internal/lang"
	"github.com/decoders-hk/centre-assistant-go/internal/llm"
	"github.com/decoders-hk/centre-assistant-go/internal/logger"
	"github.com/decoders-hk/centre-assistant-go/internal/metrics"
	"github.com/decoders-hk/centre-assistant-go/internal/openinghours"
)

// Routes a turn can take.
const (
	RouteScheduling   = "scheduling"
	RouteOpeningHours = "opening_hours"
	RouteLLM          = "llm"
	RouteFallback     = "fallback"
)

// Request is one parent message.
type Request struct {
	Message        string
	Language       string
	SessionID      string
	AcceptLanguage string
	Debug          bool
}

// Response is the routed answer.
type Response struct {
	Answer string         `json:"answer"`
	Lang   lang.Tag       `json:"lang"`
	Intent string         `json:"intent"`
	Flags  map[string]any `json:"flags"`
	Debug  *Debug         `json:"debug,omitempty"`
}

// Debug is the decision trace returned with ?debug=1.
type Debug struct {
	LangSource string              `json:"lang_source"`
	Hours      intent.Debug        `json:"hours"`
	IsGeneral  bool                `json:"is_general"`
	Branch     string              `json:"branch,omitempty"`
	Facts      *openinghours.Facts `json:"facts,omitempty"`
	Context    string              `json:"context,omitempty"`
	Provider   string              `json:"provider,omitempty"`
	Cached     bool                `json:"cached,omitempty"`
	Silenced   string              `json:"silenced,omitempty"`
	LLMError   string              `json:"llm_error,omitempty"`
}

// Answerer is the language-model side of the router.
type Answerer interface {
	Enabled() bool
	Reply(ctx context.Context, req llm.Request) (llm.Reply, error)
}

// Limiter throttles turns per session.
type Limiter interface {
	Check(sessionID string) error
}

// Pending records and resolves unanswered scheduling requests.
type Pending interface {
	Add(ctx context.Context, item digest.Item) error
	ResolveSession(ctx context.Context, day, sessionID string) error
}

// Config selects the optional features.
type Config struct {
	OpeningHoursEnabled bool
	HistoryKeep         int
}

// Deps are the router's collaborators. Hours is required; the rest may be
// nil.
type Deps struct {
	Hours    *openinghours.Service
	LLM      Answerer
	History  history.Store
	Pending  Pending
	Limiter  Limiter
	Sessions *lang.SessionMemory
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
}

// Router answers chat turns.
type Router struct {
	cfg      Config
	hours    *openinghours.Service
	llm      Answerer
	history  history.Store
	pending  Pending
	limiter  Limiter
	sessions *lang.SessionMemory
	metrics  *metrics.Metrics
	logger   *logger.Logger
	now      func() time.Time
	wrap     *apperrors.ErrorWrapper
}

// NewRouter wires a Router.
func NewRouter(cfg Config, deps Deps) *Router {
	if cfg.HistoryKeep <= 0 {
		cfg.HistoryKeep = config.DefaultHistoryKeep
	}
	return &Router{
		cfg:      cfg,
		hours:    deps.Hours,
		llm:      deps.LLM,
		history:  deps.History,
		pending:  deps.Pending,
		limiter:  deps.Limiter,
		sessions: deps.Sessions,
		metrics:  deps.Metrics,
		logger:   deps.Logger.WithModule("chat"),
		now:      hktime.Now,
		wrap:     apperrors.NewWrapper("chat", "handle"),
	}
}

// Validate checks the message before any work is done.
func Validate(message string) error {
	if strings.TrimSpace(message) == "" {
		return apperrors.ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > config.MaxChatMessageRunes {
		return apperrors.ErrMessageTooLong
	}
	return nil
}

// Handle routes one message. Rate-limit errors come back with the
// language already resolved in Response.Lang.
func (r *Router) Handle(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	resp, err := r.handle(ctx, req)
	route := resp.Intent
	if route == "" {
		route = "none"
	}
	r.metrics.RecordChat(ctxutil.GetChannel(ctx), route, chatStatus(err), time.Since(start).Seconds())
	return resp, err
}

func chatStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case apperrors.IsRateLimited(err):
		return "rate_limited"
	case apperrors.IsInvalidInput(err):
		return "invalid"
	default:
		return "error"
	}
}

func (r *Router) handle(ctx context.Context, req Request) (Response, error) {
	req.Message = strings.TrimSpace(req.Message)
	if err := Validate(req.Message); err != nil {
		return Response{}, err
	}
	if req.SessionID != "" {
		ctx = ctxutil.WithSessionID(ctx, req.SessionID)
	}

	tag, source := r.resolveLanguage(req)
	r.metrics.RecordLanguage(tag.String(), source)
	if r.sessions != nil && req.SessionID != "" {
		r.sessions.Remember(req.SessionID, tag)
	}

	resp := Response{Lang: tag}
	if r.limiter != nil {
		if err := r.limiter.Check(req.SessionID); err != nil {
			r.logger.WithError(err).Warn("Session rate limit exceeded")
			return resp, err
		}
	}

	flags := intent.ClassifySchedulingContext(req.Message, tag)
	hoursIntent, hoursDebug := intent.DetectOpeningHoursIntent(req.Message, tag)
	resp.Flags = flags.Map()

	var dbg *Debug
	if req.Debug {
		dbg = &Debug{LangSource: source, Hours: hoursDebug}
	}

	switch {
	case flags.IsSchedulingAction():
		resp.Intent = RouteScheduling
		resp.Answer = r.schedulingReply(ctx, req, tag, flags)
	case hoursIntent && r.cfg.OpeningHoursEnabled:
		resp.Intent = RouteOpeningHours
		resp.Answer = r.hoursReply(ctx, req, tag, dbg)
	default:
		resp.Intent, resp.Answer = r.llmReply(ctx, req, tag, hoursIntent, dbg)
	}
	r.metrics.RecordIntent(resp.Intent)
	resp.Debug = dbg

	if resp.Intent != RouteScheduling {
		r.resolvePending(ctx, req.SessionID)
	}
	r.remember(ctx, req, tag, resp.Answer)
	return resp, nil
}

// schedulingReply echoes the dates the parent mentioned and hands off to
// staff. Open or closed is never judged here.
func (r *Router) schedulingReply(ctx context.Context, req Request, tag lang.Tag, flags intent.SchedulingFlags) string {
	parts := make([]string, 0, 3)
	if summary := r.hours.SummarizeUserDateIntent(req.Message, tag); summary != "" {
		parts = append(parts, summary)
	}
	parts = append(parts, handOff(tag), llm.StaffFooter(tag))

	if r.pending != nil && req.SessionID != "" {
		item := digest.NewItem(req.SessionID, req.Message, tag.String(), flags, r.now())
		if err := r.pending.Add(ctx, item); err != nil {
			r.logger.WithError(err).Warn("Failed to record pending digest item")
		}
	}
	return strings.Join(parts, "\n\n")
}

func (r *Router) hoursReply(ctx context.Context, req Request, tag lang.Tag, dbg *Debug) string {
	isGeneral := intent.IsGeneralHoursQuery(req.Message, tag)
	text, facts, branch := r.hours.Answer(ctx, req.Message, tag, openinghours.Options{IsGeneral: isGeneral})
	if dbg != nil {
		dbg.IsGeneral = isGeneral
		dbg.Branch = branch
		dbg.Facts = &facts
	}
	return text
}

// llmReply asks the language model, grounding it with the opening-hours
// facts when the message touches on hours or attendance.
func (r *Router) llmReply(ctx context.Context, req Request, tag lang.Tag, hoursIntent bool, dbg *Debug) (string, string) {
	if r.llm == nil || !r.llm.Enabled() {
		return RouteFallback, llm.NoAnswer(tag)
	}

	lreq := llm.Request{Lang: tag, Message: req.Message}
	if hoursIntent || intent.MentionsAttendance(req.Message, tag) || intent.MentionsWeather(req.Message) {
		lreq.Context = r.hours.ExtractOpeningContext(ctx, req.Message, tag)
	}
	if hoursIntent {
		lreq.Hint = llm.HintOpeningHours
	}
	lreq.History = r.historyContext(ctx, req.SessionID)

	reply, err := r.llm.Reply(ctx, lreq)
	if dbg != nil {
		dbg.Context = lreq.Context
		dbg.Provider = reply.Provider.String()
		dbg.Cached = reply.Cached
		dbg.Silenced = reply.Silenced
		if err != nil {
			dbg.LLMError = err.Error()
		}
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.logger.WithError(r.wrap.With("lang", tag.String()).Wrap(err, "llm unavailable")).Warn("LLM reply failed")
		}
		return RouteFallback, llm.NoAnswer(tag)
	}
	if reply.Text == "" {
		return RouteFallback, llm.NoAnswer(tag)
	}
	return RouteLLM, reply.Text
}

func (r *Router) historyContext(ctx context.Context, sessionID string) string {
	if r.history == nil || sessionID == "" {
		return ""
	}
	msgs, err := r.history.Recent(ctx, sessionID, r.cfg.HistoryKeep)
	if err != nil {
		r.logger.WithError(err).Warn("Failed to load chat history")
		return ""
	}
	return history.BuildContext(msgs, "")
}

func (r *Router) resolvePending(ctx context.Context, sessionID string) {
	if r.pending == nil || sessionID == "" {
		return
	}
	if err := r.pending.ResolveSession(ctx, hktime.DayKey(r.now()), sessionID); err != nil {
		r.logger.WithError(err).Warn("Failed to resolve pending digest items")
	}
}

// remember saves both sides of the turn and trims the session.
func (r *Router) remember(ctx context.Context, req Request, tag lang.Tag, answer string) {
	if r.history == nil || req.SessionID == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)
	at := r.now()
	turns := []history.Message{
		{SessionID: req.SessionID, Role: history.RoleUser, Text: req.Message, Lang: tag.String(), At: at},
		{SessionID: req.SessionID, Role: history.RoleBot, Text: answer, Lang: tag.String(), At: at},
	}
	for _, m := range turns {
		if err := r.history.Save(ctx, m); err != nil {
			r.logger.WithError(err).Warn("Failed to save chat history")
			return
		}
	}
	if err := r.history.Prune(ctx, req.SessionID, r.cfg.HistoryKeep); err != nil {
		r.logger.WithError(err).Warn("Failed to prune chat history")
	}
}
