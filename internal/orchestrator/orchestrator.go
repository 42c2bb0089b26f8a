// Package orchestrator drives the loan-origination conversation.
//
// Each inbound message is handled in at most a few short critical sections:
// the session is locked, loaded, advanced by a pure transition and saved.
// Calls to external collaborators run after the lock is released and their
// result is applied in a new critical section only when the session has not
// moved on in the meantime.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "loan-origination/internal/common/errors"
	"loan-origination/internal/common/logger"
	"loan-origination/internal/common/metrics"
	"loan-origination/internal/lending/eligibility"
	"loan-origination/internal/lending/finance"
	"loan-origination/internal/lending/fraud"
	"loan-origination/internal/lending/offers"
	"loan-origination/internal/models"
	"loan-origination/internal/session"
)

// Options tune the decision flow.
type Options struct {
	MaxVerificationAttempts   int
	MultipleAttemptsThreshold int
	MaxDocumentAttempts       int
	CounterOffers             bool
	AffordabilityRatio        float64
	EffectTimeout             time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxVerificationAttempts:   5,
		MultipleAttemptsThreshold: 2,
		MaxDocumentAttempts:       3,
		AffordabilityRatio:        finance.AffordabilityRatio,
		EffectTimeout:             30 * time.Second,
	}
}

// Reply is the outcome of one applicant interaction.
type Reply struct {
	SessionID   string             `json:"sessionId"`
	Message     string             `json:"reply"`
	State       models.State       `json:"state"`
	Offers      []models.LoanOffer `json:"offers,omitempty"`
	Rejected    bool               `json:"rejected"`
	Reasons     []string           `json:"reasons,omitempty"`
	Degraded    bool               `json:"degraded"`
	SanctionRef string             `json:"sanctionRef,omitempty"`
}

type Orchestrator struct {
	store       session.Store
	locker      session.Locker
	ports       Ports
	opts        Options
	table       map[models.State]handler
	fraud       *fraud.Engine
	eligibility *eligibility.Engine
	offers      *offers.Generator
	now         func() time.Time
	logger      logger.Logger
}

func New(store session.Store, locker session.Locker, ports Ports, opts Options, log logger.Logger) (*Orchestrator, error) {
	switch {
	case store == nil:
		return nil, errors.New("session store is required")
	case locker == nil:
		return nil, errors.New("session locker is required")
	case ports.OCR == nil, ports.Letters == nil, ports.PAN == nil, ports.OTP == nil, ports.Credit == nil:
		return nil, errors.New("OCR, letter, PAN, OTP and credit collaborators are required")
	}
	if ports.Auditor == nil {
		ports.Auditor = nopAuditor{}
	}
	if ports.Publisher == nil {
		ports.Publisher = nopPublisher{}
	}

	def := DefaultOptions()
	if opts.MaxVerificationAttempts <= 0 {
		opts.MaxVerificationAttempts = def.MaxVerificationAttempts
	}
	if opts.MultipleAttemptsThreshold <= 0 {
		opts.MultipleAttemptsThreshold = def.MultipleAttemptsThreshold
	}
	if opts.MaxDocumentAttempts <= 0 {
		opts.MaxDocumentAttempts = def.MaxDocumentAttempts
	}
	if opts.AffordabilityRatio <= 0 {
		opts.AffordabilityRatio = def.AffordabilityRatio
	}
	if opts.EffectTimeout <= 0 {
		opts.EffectTimeout = def.EffectTimeout
	}

	return &Orchestrator{
		store:       store,
		locker:      locker,
		ports:       ports,
		opts:        opts,
		table:       newTransitionTable(),
		fraud:       fraud.NewEngine(fraud.DefaultRules()),
		eligibility: eligibility.NewEngine(),
		offers:      offers.NewGenerator(opts.AffordabilityRatio),
		now:         time.Now,
		logger:      log.WithFields(map[string]interface{}{"component": "orchestrator"}),
	}, nil
}

type input struct {
	text string
	doc  *models.Document
}

// HandleMessage feeds one chat message into the session.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID, text string) (*Reply, error) {
	return o.process(ctx, sessionID, input{text: text})
}

// AttachDocument feeds an uploaded income proof into the session.
func (o *Orchestrator) AttachDocument(ctx context.Context, sessionID string, doc models.Document) (*Reply, error) {
	return o.process(ctx, sessionID, input{doc: &doc})
}

// Snapshot returns a copy of the session, creating it if needed.
func (o *Orchestrator) Snapshot(ctx context.Context, sessionID string) (*models.Session, error) {
	s, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, apperrors.NewSessionStoreFailedError(err)
	}
	return s, nil
}

// Reset deletes one session, or every session when sessionID is empty.
func (o *Orchestrator) Reset(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		if err := o.store.Reset(ctx); err != nil {
			return apperrors.NewSessionStoreFailedError(err)
		}
		o.logger.Info("all sessions reset", nil)
		return nil
	}

	unlock, err := o.locker.Lock(ctx, sessionID)
	if err != nil {
		return apperrors.NewSessionStoreFailedError(err)
	}
	defer unlock()
	if err := o.store.Delete(ctx, sessionID); err != nil {
		return apperrors.NewSessionStoreFailedError(err)
	}
	o.logger.Info("session reset", map[string]interface{}{"sessionId": sessionID})
	return nil
}

// stamp identifies a committed session version.
type stamp struct {
	version int64
	created time.Time
}

func (s stamp) matches(sess *models.Session) bool {
	return sess.Version == s.version && sess.CreatedAt.Equal(s.created)
}

func (o *Orchestrator) process(ctx context.Context, sessionID string, in input) (*Reply, error) {
	log := o.logger.WithFields(map[string]interface{}{"sessionId": sessionID})

	t, err := o.locked(ctx, sessionID, nil, func(t *turn) {
		metrics.ChatMessages.WithLabelValues(string(t.s.State)).Inc()
		o.dispatch(t, in)
	})
	if err != nil {
		return nil, err
	}

	for t.effect != nil {
		eff := t.effect
		t.effect = nil

		result, err := o.runEffect(ctx, eff)
		if err != nil {
			log.Warn("collaborator unavailable", map[string]interface{}{
				"effect": eff.name,
				"state":  string(t.s.State),
				"error":  apperrors.NewCollaboratorUnavailableError(eff.name, err).Error(),
			})
			t.degrade(eff.name)
			break
		}

		if eff.readOnly {
			eff.apply(o, t, result)
			break
		}

		at := t.stamp
		next, err := o.locked(ctx, sessionID, t, func(nt *turn) {
			if !at.matches(nt.s) {
				metrics.StaleEffects.WithLabelValues(eff.name).Inc()
				log.Info("discarding stale effect result", map[string]interface{}{
					"effect": eff.name,
					"state":  string(nt.s.State),
				})
				nt.lines = nil
				nt.say(prompt(nt.s))
				return
			}
			eff.apply(o, nt, result)
		})
		if err != nil {
			return nil, err
		}
		t = next
	}

	o.flush(ctx, t)
	return t.reply(sessionID), nil
}

// locked runs fn and any automatic states on a freshly loaded session under the
// session lock, saving the result if anything changed.
func (o *Orchestrator) locked(ctx context.Context, sessionID string, prev *turn, fn func(t *turn)) (*turn, error) {
	unlock, err := o.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, apperrors.NewSessionStoreFailedError(fmt.Errorf("lock session: %w", err))
	}
	defer unlock()

	s, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, apperrors.NewSessionStoreFailedError(err)
	}

	t := newTurn(s, prev)
	fn(t)
	o.chain(t)

	if t.dirty {
		t.s.Touch()
		if err := o.store.Save(ctx, t.s); err != nil {
			return nil, apperrors.NewSessionStoreFailedError(err)
		}
		o.commit(t)
	}
	t.stamp = stamp{version: t.s.Version, created: t.s.CreatedAt}
	return t, nil
}

// chain runs automatic states until the session waits for input or an effect.
func (o *Orchestrator) chain(t *turn) {
	for i := 0; i < len(models.States) && t.effect == nil; i++ {
		h := o.table[t.s.State]
		if h.run == nil {
			return
		}
		h.run(o, t)
	}
}

func (o *Orchestrator) dispatch(t *turn, in input) {
	state := t.s.State
	h := o.table[state]

	if in.doc != nil {
		if h.upload == nil {
			t.say(msgDocumentNotNow)
			t.say(prompt(t.s))
			return
		}
		h.upload(o, t, *in.doc)
		return
	}

	switch {
	case h.run != nil:
		// automatic state left behind by a failed effect; chain retries it
	case h.input == nil:
		if h.assist && strings.TrimSpace(in.text) != "" {
			o.askAssistant(t, in.text)
			return
		}
		t.say(prompt(t.s))
	case h.assist && isQuestion(in.text):
		o.askAssistant(t, in.text)
	default:
		h.input(o, t, in.text)
	}
}

func (o *Orchestrator) runEffect(ctx context.Context, eff *effect) (interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.EffectTimeout)
	defer cancel()

	start := time.Now()
	result, err := eff.run(ctx)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.EffectDuration.WithLabelValues(eff.name, outcome).Observe(time.Since(start).Seconds())
	return result, err
}

// flush emits audit records and sanction events collected by committed turns.
func (o *Orchestrator) flush(ctx context.Context, t *turn) {
	for _, rec := range t.audits {
		o.ports.Auditor.Record(ctx, rec)
	}
	for _, ev := range t.events {
		if err := o.ports.Publisher.Publish(ctx, ev); err != nil {
			o.logger.Error("failed to publish sanction event", map[string]interface{}{
				"sessionId":   ev.SessionID,
				"sanctionRef": ev.SanctionRef,
				"error":       err.Error(),
			})
		}
	}
}

// move changes state, recording the transition.
func (o *Orchestrator) move(t *turn, to models.State) {
	from := t.s.State
	if !o.table[from].allows(to) {
		o.logger.Error("undeclared transition", map[string]interface{}{
			"sessionId": t.s.ID,
			"from":      string(from),
			"to":        string(to),
		})
	}
	t.s.State = to
	t.dirty = true
	t.transitions = append(t.transitions, [2]models.State{from, to})
}

func (o *Orchestrator) reject(t *turn, kind string, reasons []string) {
	o.move(t, models.StateEnd)
	t.rejected = true
	t.reasons = append([]string{}, reasons...)
	t.rejectKind = kind
}

func (o *Orchestrator) audit(t *turn, kind models.DecisionKind, outcome string, score int, reasons []string, list []models.LoanOffer) {
	t.pendingAudits = append(t.pendingAudits, models.DecisionRecord{
		SessionID: t.s.ID,
		Kind:      kind,
		Outcome:   outcome,
		Score:     score,
		Reasons:   reasons,
		Offers:    list,
		State:     t.s.State,
		CreatedAt: o.now().UTC(),
	})
}

func (o *Orchestrator) askAssistant(t *turn, question string) {
	if o.ports.Assistant == nil {
		t.say(msgAssistFallback)
		t.say(prompt(t.s))
		return
	}
	t.effect = &effect{
		name:     effectAssist,
		readOnly: true,
		run: func(ctx context.Context) (interface{}, error) {
			return o.ports.Assistant.Reply(ctx, question)
		},
		apply: func(o *Orchestrator, t *turn, result interface{}) {
			t.say(result.(string))
			t.say(prompt(t.s))
		},
	}
}
