package orchestrator

import (
	"context"
	"strings"

	"loan-origination/internal/common/metrics"
	"loan-origination/internal/models"
)

const (
	effectPAN       = "pan_verify"
	effectOCR       = "ocr"
	effectCredit    = "credit_score"
	effectOTPSend   = "otp_send"
	effectOTPVerify = "otp_verify"
	effectLetter    = "sanction_letter"
	effectAssist    = "chat_assist"
)

// effect is a collaborator call made outside the session lock.
// apply runs under a fresh lock against the reloaded session unless readOnly is set.
type effect struct {
	name     string
	readOnly bool
	run      func(ctx context.Context) (interface{}, error)
	apply    func(o *Orchestrator, t *turn, result interface{})
}

// turn accumulates the work done for one inbound message across critical sections.
type turn struct {
	s      *models.Session
	stamp  stamp
	dirty  bool
	effect *effect
	lines  []string

	rejected   bool
	rejectKind string
	reasons    []string
	degraded   bool

	transitions   [][2]models.State
	pendingAudits []models.DecisionRecord
	pendingEvents []models.SanctionEvent

	audits []models.DecisionRecord
	events []models.SanctionEvent
}

func newTurn(s *models.Session, prev *turn) *turn {
	t := &turn{s: s}
	if prev != nil {
		t.lines = append(t.lines, prev.lines...)
		t.audits = prev.audits
		t.events = prev.events
	}
	return t
}

func (t *turn) say(line string) {
	if line != "" {
		t.lines = append(t.lines, line)
	}
}

func (t *turn) touch() {
	t.dirty = true
}

func (t *turn) degrade(effectName string) {
	t.degraded = true
	line, ok := unavailable[effectName]
	if !ok {
		line = msgAssistDown
	}
	t.say(line + " " + msgTryAgain)
	t.say(prompt(t.s))
}

func (t *turn) reply(sessionID string) *Reply {
	r := &Reply{
		SessionID:   sessionID,
		Message:     strings.Join(t.lines, "\n"),
		State:       t.s.State,
		Rejected:    t.rejected,
		Reasons:     t.reasons,
		Degraded:    t.degraded,
		SanctionRef: t.s.Profile.SanctionRef,
	}
	if t.s.State == models.StateChoose {
		r.Offers = t.s.Profile.Offers
	}
	return r
}

// commit records metrics and releases side outputs once the session is saved.
func (o *Orchestrator) commit(t *turn) {
	for _, tr := range t.transitions {
		metrics.StateTransitions.WithLabelValues(string(tr[0]), string(tr[1])).Inc()
		o.logger.Debug("state transition", map[string]interface{}{
			"sessionId": t.s.ID,
			"from":      string(tr[0]),
			"to":        string(tr[1]),
			"version":   t.s.Version,
		})
	}
	if t.rejectKind != "" {
		metrics.Rejections.WithLabelValues(t.rejectKind).Inc()
		o.logger.Info("application rejected", map[string]interface{}{
			"sessionId": t.s.ID,
			"kind":      t.rejectKind,
			"reasons":   t.reasons,
		})
	}
	t.transitions = nil
	t.rejectKind = ""
	t.audits = append(t.audits, t.pendingAudits...)
	t.events = append(t.events, t.pendingEvents...)
	t.pendingAudits = nil
	t.pendingEvents = nil
}
