package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/andrew-lundgren/hveto/internal/config"
	"github.com/andrew-lundgren/hveto/internal/engine"
)

const maxHistoryLen = 200

// Alert represents a single rule match on a completed round.
type Alert struct {
	ID       string    `json:"id"`
	RuleName string    `json:"rule_name"`
	Round    int       `json:"round"`
	Channel  string    `json:"channel"`
	Severity string    `json:"severity"`
	Message  string    `json:"message"`
	Value    float64   `json:"value"`
	FiredAt  time.Time `json:"fired_at"`
}

// Engine evaluates quality rules against completed rounds and delivers
// webhook notifications when rules fire.
//
// Engine is safe for concurrent use.
type Engine struct {
	rules    []config.AlertRule
	webhooks []config.WebhookConfig

	mu      sync.Mutex
	history []*Alert
	client  *http.Client
	now     func() time.Time // injectable for deterministic tests
}

// New creates an Engine from the alert configuration.
// An Engine with empty rules is valid — Evaluate becomes a no-op.
func New(cfg config.AlertsConfig) *Engine {
	return &Engine{
		rules:    cfg.Rules,
		webhooks: cfg.Webhooks,
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
}

// Evaluate tests all configured rules against r.
// Matching rules are recorded and webhook delivery runs asynchronously.
func (e *Engine) Evaluate(r *engine.Round) {
	if len(e.rules) == 0 {
		return
	}

	channel := ""
	if r.Winner != nil {
		channel = r.Winner.Channel
	}

	for _, rule := range e.rules {
		fires, value := evalCondition(rule.Condition, r)
		if !fires {
			continue
		}

		now := e.now()
		sev := rule.Severity
		if sev == "" {
			sev = "warning"
		}
		a := &Alert{
			ID:       fmt.Sprintf("%s:%d:%d", rule.Name, r.Index, now.UnixNano()),
			RuleName: rule.Name,
			Round:    r.Index,
			Channel:  channel,
			Severity: sev,
			Value:    value,
			Message: fmt.Sprintf("[%s] %s fired on round %d (%s) — %s = %.2f",
				sev, rule.Name, r.Index, channel, rule.Condition, value),
			FiredAt: now,
		}

		e.mu.Lock()
		e.history = append(e.history, a)
		if len(e.history) > maxHistoryLen {
			e.history = e.history[len(e.history)-maxHistoryLen:]
		}
		alertCopy := *a
		e.mu.Unlock()

		slog.Warn("alert fired",
			"rule", rule.Name,
			"round", r.Index,
			"channel", channel,
			"value", value,
			"severity", sev,
		)
		go e.deliver(&alertCopy)
	}
}

// Fired returns copies of all alerts recorded so far, oldest first.
func (e *Engine) Fired() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Alert, 0, len(e.history))
	for _, a := range e.history {
		cp := *a
		out = append(out, &cp)
	}
	return out
}
