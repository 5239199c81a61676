package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/RubaiyaKamal/AI-Employee-Vault/internal/item"
)

// DraftIdentity returns the identity of the proposal generated for a source
// item. Identities are never reused, so the draft gets its own name derived
// from the original.
func DraftIdentity(srcIdentity string) string {
	return "draft_" + srcIdentity
}

// Draft builds the proposal document for a claimed item: a new work item
// destined for Pending_Approval, carrying provenance metadata and the review
// instructions a human needs to approve or reject it. The original item is
// referenced via the source key and archived separately by the caller.
func Draft(src item.Item, srcIdentity, domain, agentID string, now time.Time) item.Item {
	kind := TypeFor(src, domain)
	meta := item.Metadata{
		Type:      kind + "_draft",
		Priority:  src.Meta.Priority,
		Source:    srcIdentity,
		DraftedBy: agentID,
		DraftedAt: now.UTC().Format(time.RFC3339),
		Extra:     src.Meta.Extra,
	}
	name := DraftIdentity(srcIdentity)

	var b strings.Builder
	fmt.Fprintf(&b, "## Draft (%s)\n\n", kind)
	b.WriteString(draftBody(kind, src))
	b.WriteString("\n\n## To Approve\n\n")
	b.WriteString("1. Review the draft above\n")
	b.WriteString("2. Edit this file in place if needed\n")
	fmt.Fprintf(&b, "3. Move this file to: `/Approved/%s`\n", joinDomain(domain, name))
	b.WriteString("\n## To Reject\n\n")
	fmt.Fprintf(&b, "1. Move this file to: `/Rejected/%s`\n", joinDomain(domain, name))

	return item.Item{Meta: meta, Body: []byte(b.String())}
}

// draftBody is deliberately simple deterministic templating; generation of
// polished human-readable text is outside this subsystem.
func draftBody(kind string, src item.Item) string {
	request := strings.TrimSpace(string(src.Body))
	switch kind {
	case "email":
		to := firstMatch(toPattern, request, src.Meta.Extra["recipient"])
		subject := firstMatch(subjectPattern, request, src.Meta.Extra["subject"])
		if subject == "" {
			subject = "Re: your request"
		}
		return fmt.Sprintf("To: %s\nSubject: %s\n\n%s", to, subject, request)
	case "social":
		return request
	case "whatsapp":
		to := firstMatch(toPattern, request, src.Meta.Extra["recipient"])
		return fmt.Sprintf("To: %s\nMessage:\n%s", to, request)
	default:
		return request
	}
}

func joinDomain(domain, name string) string {
	if domain == "" {
		return name
	}
	return domain + "/" + name
}
