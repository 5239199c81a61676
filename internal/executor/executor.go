// Package executor holds the external side-effect collaborators the agent
// loop delegates to: one executor per communication domain, looked up through
// a registry. Executors receive parsed item content and report success or
// failure; they never touch the vault themselves.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/item"
)

// Executor performs the side effect for one domain (mail, social post,
// messaging). The agent loop invokes exactly one executor per approved item
// and requires its result before relocating the item.
type Executor interface {
	Name() string
	Execute(ctx context.Context, it item.Item) error
}

// Registry holds executors by name.
type Registry struct {
	mu    sync.RWMutex
	execs map[string]Executor
}

func NewRegistry() *Registry {
	return &Registry{execs: make(map[string]Executor)}
}

func (r *Registry) Register(e Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.execs[e.Name()] = e
}

func (r *Registry) Get(name string) Executor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.execs[name]
}

// Execute dispatches to the named executor.
func (r *Registry) Execute(ctx context.Context, name string, it item.Item) error {
	e := r.Get(name)
	if e == nil {
		return fmt.Errorf("executor %q not found", name)
	}
	return e.Execute(ctx, it)
}

// Default returns the registry with the built-in executors registered.
func Default(webhookURL string) *Registry {
	r := NewRegistry()
	r.Register(Mail{})
	r.Register(SocialPost{})
	r.Register(Messaging{WebhookURL: webhookURL})
	r.Register(Generic{})
	return r
}

// TypeFor picks the executor name for an item from its type metadata, falling
// back to the domain subdirectory when the header carries no type.
func TypeFor(it item.Item, domain string) string {
	t := strings.ToLower(it.Meta.Type)
	if t == "" {
		t = strings.ToLower(domain)
	}
	switch {
	case strings.Contains(t, "email"):
		return "email"
	case strings.Contains(t, "social"), strings.Contains(t, "linkedin"):
		return "social"
	case strings.Contains(t, "whatsapp"), strings.Contains(t, "messag"):
		return "whatsapp"
	default:
		return "generic"
	}
}

var (
	toPattern      = regexp.MustCompile(`(?mi)^To:\s*(.+)$`)
	subjectPattern = regexp.MustCompile(`(?mi)^Subject:\s*(.+)$`)
)

// Mail sends an approved email draft. Demo mode: the send is logged, not
// transported; real SMTP lives behind credentials this process never holds.
type Mail struct{}

func (Mail) Name() string { return "email" }

func (Mail) Execute(ctx context.Context, it item.Item) error {
	body := string(it.Body)
	to := firstMatch(toPattern, body, it.Meta.Extra["recipient"])
	subject := firstMatch(subjectPattern, body, it.Meta.Extra["subject"])
	if to == "" {
		return fmt.Errorf("email: no recipient in item")
	}
	slog.Info("email sent (demo mode)", "to", to, "subject", subject)
	return nil
}

// SocialPost publishes an approved social-media draft. Demo mode.
type SocialPost struct{}

func (SocialPost) Name() string { return "social" }

func (SocialPost) Execute(ctx context.Context, it item.Item) error {
	platform := it.Meta.Extra["platform"]
	if platform == "" {
		platform = "linkedin"
	}
	if len(strings.TrimSpace(string(it.Body))) == 0 {
		return fmt.Errorf("social: empty post body")
	}
	slog.Info("social post published (demo mode)", "platform", platform, "chars", len(it.Body))
	return nil
}

// Messaging delivers an approved message through an incoming-webhook URL.
// Without a URL it runs in demo mode.
type Messaging struct {
	WebhookURL string
}

func (Messaging) Name() string { return "whatsapp" }

func (m Messaging) Execute(ctx context.Context, it item.Item) error {
	to := firstMatch(toPattern, string(it.Body), it.Meta.Extra["recipient"])
	if m.WebhookURL == "" {
		slog.Info("message sent (demo mode)", "to", to)
		return nil
	}
	payload, err := json.Marshal(map[string]any{"text": string(it.Body)})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.WebhookURL, strings.NewReader(string(payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// Generic handles items with no recognized domain; it records the action and
// succeeds so unknown producers don't wedge the queue.
type Generic struct{}

func (Generic) Name() string { return "generic" }

func (Generic) Execute(ctx context.Context, it item.Item) error {
	slog.Info("generic action executed", "type", it.Meta.Type)
	return nil
}

func firstMatch(re *regexp.Regexp, body, fallback string) string {
	if m := re.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1])
	}
	return fallback
}
