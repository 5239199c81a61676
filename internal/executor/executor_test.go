package executor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/item"
)

func TestRegistry_RegisterGet(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Register(Mail{})
	if r.Get("email") == nil {
		t.Fatal("Get(email) should return registered executor")
	}
	if r.Get("nonexistent") != nil {
		t.Fatal("Get(nonexistent) should be nil")
	}
}

func TestRegistry_ExecuteUnknown(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	if err := r.Execute(context.Background(), "fax", item.Item{}); err == nil {
		t.Fatal("expected error for unknown executor")
	}
}

func TestTypeFor(t *testing.T) {
	t.Parallel()
	cases := []struct {
		itemType string
		domain   string
		want     string
	}{
		{"email", "", "email"},
		{"email_draft", "", "email"},
		{"social_media_draft", "", "social"},
		{"linkedin", "", "social"},
		{"whatsapp", "", "whatsapp"},
		{"", "email", "email"},
		{"", "social", "social"},
		{"", "", "generic"},
		{"invoice", "", "generic"},
	}
	for _, c := range cases {
		it := item.Item{Meta: item.Metadata{Type: c.itemType}}
		if got := TypeFor(it, c.domain); got != c.want {
			t.Errorf("TypeFor(%q, %q): got %q, want %q", c.itemType, c.domain, got, c.want)
		}
	}
}

func TestMail_Execute(t *testing.T) {
	t.Parallel()
	it := item.Item{Body: []byte("To: a@b.com\nSubject: Hello\n\nBody text\n")}
	if err := (Mail{}).Execute(context.Background(), it); err != nil {
		t.Fatalf("Execute: %v", err)
	}
}

func TestMail_Execute_noRecipient(t *testing.T) {
	t.Parallel()
	it := item.Item{Body: []byte("no addressing headers")}
	if err := (Mail{}).Execute(context.Background(), it); err == nil {
		t.Fatal("expected error without recipient")
	}
}

func TestMail_Execute_recipientFromMetadata(t *testing.T) {
	t.Parallel()
	it := item.Item{
		Meta: item.Metadata{Extra: map[string]string{"recipient": "x@y.com"}},
		Body: []byte("body only"),
	}
	if err := (Mail{}).Execute(context.Background(), it); err != nil {
		t.Fatalf("Execute: %v", err)
	}
}

func TestSocialPost_Execute_emptyBody(t *testing.T) {
	t.Parallel()
	if err := (SocialPost{}).Execute(context.Background(), item.Item{}); err == nil {
		t.Fatal("expected error for empty post")
	}
}

func TestMessaging_Execute_webhook(t *testing.T) {
	t.Parallel()
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	it := item.Item{Body: []byte("To: +123\nMessage:\nhi")}
	if err := (Messaging{WebhookURL: srv.URL}).Execute(context.Background(), it); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(gotBody, "hi") {
		t.Fatalf("webhook payload: %q", gotBody)
	}
}

func TestMessaging_Execute_webhookError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	if err := (Messaging{WebhookURL: srv.URL}).Execute(context.Background(), item.Item{}); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}

func TestMessaging_Execute_demoMode(t *testing.T) {
	t.Parallel()
	if err := (Messaging{}).Execute(context.Background(), item.Item{Body: []byte("x")}); err != nil {
		t.Fatalf("demo mode should succeed: %v", err)
	}
}

func TestDefault_registersAllDomains(t *testing.T) {
	t.Parallel()
	r := Default("")
	for _, name := range []string{"email", "social", "whatsapp", "generic"} {
		if r.Get(name) == nil {
			t.Errorf("Default registry missing %q", name)
		}
	}
}

func TestDraft(t *testing.T) {
	t.Parallel()
	src := item.Item{
		Meta: item.Metadata{Type: "email", Priority: "high", Extra: map[string]string{"recipient": "a@b.com"}},
		Body: []byte("Please follow up on the invoice."),
	}
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	draft := Draft(src, "needs_approval_abc123.md", "email", "cloud", now)

	if draft.Meta.Type != "email_draft" {
		t.Fatalf("draft type: %q", draft.Meta.Type)
	}
	if draft.Meta.Source != "needs_approval_abc123.md" {
		t.Fatalf("draft source: %q", draft.Meta.Source)
	}
	if draft.Meta.DraftedBy != "cloud" || draft.Meta.DraftedAt != "2025-06-01T09:00:00Z" {
		t.Fatalf("draft provenance: %+v", draft.Meta)
	}
	body := string(draft.Body)
	if !strings.Contains(body, "To: a@b.com") {
		t.Fatalf("draft body missing recipient: %q", body)
	}
	if !strings.Contains(body, "/Approved/email/draft_needs_approval_abc123.md") {
		t.Fatalf("draft body missing approval instructions: %q", body)
	}
	if !strings.Contains(body, "/Rejected/email/draft_needs_approval_abc123.md") {
		t.Fatalf("draft body missing rejection instructions: %q", body)
	}
}

func TestDraftIdentity(t *testing.T) {
	t.Parallel()
	if got := DraftIdentity("task.md"); got != "draft_task.md" {
		t.Fatalf("DraftIdentity: %q", got)
	}
}
