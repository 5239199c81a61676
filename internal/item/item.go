// Package item defines the work item document format: markdown content with a
// YAML frontmatter header between --- fences. Producers write these files into
// the vault; agents only ever parse and append, never rewrite in place.
package item

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Recognized frontmatter keys. Unknown keys pass through in Metadata.Extra.
const (
	KeyType      = "type"
	KeyPriority  = "priority"
	KeySource    = "source"
	KeyCreated   = "created"
	KeyDraftedBy = "drafted_by"
	KeyDraftedAt = "drafted_at"
)

// Metadata is the typed view of a work item's frontmatter.
type Metadata struct {
	Type      string
	Priority  string
	Source    string
	Created   string
	DraftedBy string
	DraftedAt string
	// Extra holds unrecognized keys as opaque passthrough metadata.
	Extra map[string]string
}

// Item is a parsed work item document.
type Item struct {
	Meta Metadata
	Body []byte
}

// Parse splits a document into metadata and body. A missing or malformed
// header yields empty metadata and the whole content as body; it is never an
// error, so a hand-written or truncated item still flows through the pipeline.
func Parse(content []byte) Item {
	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return Item{Body: normalized}
	}
	rest := normalized[4:]
	parts := bytes.SplitN(rest, []byte("\n---\n"), 2)
	if len(parts) < 2 {
		return Item{Body: normalized}
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(parts[0], &raw); err != nil {
		return Item{Body: normalized}
	}
	meta := Metadata{}
	for k, v := range raw {
		val := scalarString(v)
		switch k {
		case KeyType:
			meta.Type = val
		case KeyPriority:
			meta.Priority = val
		case KeySource:
			meta.Source = val
		case KeyCreated:
			meta.Created = val
		case KeyDraftedBy:
			meta.DraftedBy = val
		case KeyDraftedAt:
			meta.DraftedAt = val
		default:
			if meta.Extra == nil {
				meta.Extra = make(map[string]string)
			}
			meta.Extra[k] = val
		}
	}
	return Item{Meta: meta, Body: bytes.TrimLeft(parts[1], "\n")}
}

// Render serializes the item back to document form. Recognized keys are
// emitted in a fixed order, then extras sorted by key, so round-trips are
// stable across both agents.
func Render(it Item) []byte {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	writeKV(&buf, KeyType, it.Meta.Type)
	writeKV(&buf, KeyPriority, it.Meta.Priority)
	writeKV(&buf, KeySource, it.Meta.Source)
	writeKV(&buf, KeyCreated, it.Meta.Created)
	writeKV(&buf, KeyDraftedBy, it.Meta.DraftedBy)
	writeKV(&buf, KeyDraftedAt, it.Meta.DraftedAt)
	extras := make([]string, 0, len(it.Meta.Extra))
	for k := range it.Meta.Extra {
		extras = append(extras, k)
	}
	sort.Strings(extras)
	for _, k := range extras {
		writeKV(&buf, k, it.Meta.Extra[k])
	}
	buf.WriteString("---\n\n")
	buf.Write(it.Body)
	return buf.Bytes()
}

// ExecutionRecord is the trailer appended before an executed item's final
// relocation to Done. errNote is included only on failure.
func ExecutionRecord(agentID string, at time.Time, errNote string) string {
	var b strings.Builder
	b.WriteString("\n\n---\n\n## Execution Record\n\n")
	fmt.Fprintf(&b, "- **Executed by:** %s\n", agentID)
	fmt.Fprintf(&b, "- **Executed at:** %s\n", at.UTC().Format(time.RFC3339))
	if errNote != "" {
		fmt.Fprintf(&b, "- **Error:** %s\n", errNote)
	}
	return b.String()
}

// ErrorNote is the trailer appended when processing fails and the item is
// routed back to Needs_Action for a later pass.
func ErrorNote(agentID string, at time.Time, errNote string) string {
	var b strings.Builder
	b.WriteString("\n\n---\n\n## Processing Error\n\n")
	fmt.Fprintf(&b, "- **Agent:** %s\n", agentID)
	fmt.Fprintf(&b, "- **At:** %s\n", at.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Error:** %s\n", errNote)
	return b.String()
}

func writeKV(buf *bytes.Buffer, key, value string) {
	if value == "" {
		return
	}
	// yaml.Marshal handles quoting of values with special characters.
	line, err := yaml.Marshal(map[string]string{key: value})
	if err != nil {
		fmt.Fprintf(buf, "%s: %s\n", key, value)
		return
	}
	buf.Write(line)
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
