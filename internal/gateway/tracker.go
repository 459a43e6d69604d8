package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"linkhub-gateway/internal/domain/entities"
	domainerrors "linkhub-gateway/internal/domain/errors"
	"linkhub-gateway/internal/domain/repositories"
	"linkhub-gateway/internal/logger"
	"linkhub-gateway/internal/metrics"
)

// FallbackAgent labels callers whose User-Agent matches no signature.
const FallbackAgent = "mcp-client"

const visitSourceGateway = "mcp"

type agentSignature struct {
	name     string
	patterns []string
}

// Checked in order; the first match wins.
var agentSignatures = []agentSignature{
	{name: "Claude", patterns: []string{"claude", "anthropic"}},
	{name: "ChatGPT", patterns: []string{"chatgpt", "openai", "gptbot"}},
	{name: "Perplexity", patterns: []string{"perplexity"}},
	{name: "Gemini", patterns: []string{"gemini", "google"}},
	{name: "Copilot", patterns: []string{"copilot"}},
	{name: "Cursor", patterns: []string{"cursor"}},
}

// ClassifyAgent maps a User-Agent onto a known agent name.
func ClassifyAgent(userAgent string) string {
	ua := strings.ToLower(userAgent)
	for _, sig := range agentSignatures {
		for _, p := range sig.patterns {
			if strings.Contains(ua, p) {
				return sig.name
			}
		}
	}
	return FallbackAgent
}

// Tracker records agent visits off the response path.
type Tracker struct {
	profiles *Profiles
	visits   repositories.VisitRepository
	bg       *Background
	log      *logger.Logger
	now      func() time.Time
}

func NewTracker(profiles *Profiles, visits repositories.VisitRepository, bg *Background, log *logger.Logger) *Tracker {
	return &Tracker{profiles: profiles, visits: visits, bg: bg, log: log, now: time.Now}
}

// Track schedules a visit record and returns immediately. Unknown and demo
// profiles are skipped.
func (t *Tracker) Track(username, userAgent, method string) {
	if t == nil || t.profiles.IsDemo(username) {
		return
	}
	if method == "" {
		method = "unknown"
	}
	agent := ClassifyAgent(userAgent)
	at := t.now().UTC()

	t.bg.Go("track_visit", func(ctx context.Context) error {
		profileID, err := t.profiles.ProfileID(ctx, username)
		if err != nil {
			if errors.Is(err, domainerrors.ErrProfileNotFound) {
				return nil
			}
			return err
		}
		if err := t.visits.Record(ctx, &entities.AgentVisit{
			ID:        uuid.NewString(),
			ProfileID: profileID,
			AgentName: agent,
			UserAgent: userAgent,
			Method:    method,
			Source:    visitSourceGateway,
			CreatedAt: at,
		}); err != nil {
			return err
		}
		metrics.ObserveVisit(agent)
		t.log.Debug(logger.EventAgentVisit, "agent visit recorded", map[string]interface{}{
			"username": username,
			"agent":    agent,
			"method":   method,
		})
		return nil
	})
}

// Wait drains in-flight visit writes.
func (t *Tracker) Wait() {
	t.bg.Wait()
}
