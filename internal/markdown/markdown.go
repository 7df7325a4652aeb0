// Package markdown renders synced conversations as markdown documents with a
// YAML front-matter block.
package markdown

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/claude-sync/internal/api"
)

type frontMatter struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	CreatedAt    string `yaml:"created_at"`
	UpdatedAt    string `yaml:"updated_at"`
	MessageCount int    `yaml:"message_count"`
	SyncedAt     string `yaml:"synced_at"`
}

// Conversation renders a full conversation: front matter, then one section
// per message with a sender heading, the message body, and a rule separator.
func Conversation(convo *api.Conversation, syncedAt time.Time) string {
	fm, err := yaml.Marshal(frontMatter{
		ID:           convo.UUID,
		Name:         convo.Name,
		CreatedAt:    convo.CreatedAt,
		UpdatedAt:    convo.UpdatedAt,
		MessageCount: len(convo.Messages),
		SyncedAt:     syncedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		// A flat struct of strings and an int cannot fail to marshal.
		panic(err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fm)
	b.WriteString("---\n")

	for _, msg := range convo.Messages {
		b.WriteString("\n")
		b.WriteString(heading(msg))
		b.WriteString("\n")
		if body := messageBody(msg); body != "" {
			b.WriteString("\n")
			b.WriteString(body)
			b.WriteString("\n")
		}
		b.WriteString("\n---\n")
	}
	return b.String()
}

// heading labels the sender, with the message time in parentheses when it
// parses.
func heading(msg api.Message) string {
	label := roleLabel(msg.Sender)
	t, err := api.ParseTime(msg.CreatedAt)
	if err != nil {
		return fmt.Sprintf("## %s", label)
	}
	return fmt.Sprintf("## %s (%s)", label, t.Format("2006-01-02 15:04"))
}

func roleLabel(sender string) string {
	switch sender {
	case "human":
		return "Human"
	case "assistant":
		return "Claude"
	case "":
		return "Unknown"
	}
	r := []rune(sender)
	return string(unicode.ToUpper(r[0])) + string(r[1:])
}

// messageBody joins the text blocks of a message. Thinking blocks become a
// collapsible aside; messages without structured blocks fall back to the
// legacy flat text field.
func messageBody(msg api.Message) string {
	if len(msg.Content) == 0 {
		return strings.TrimSpace(msg.Text)
	}

	var parts []string
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if t := strings.TrimSpace(block.Text); t != "" {
				parts = append(parts, t)
			}
		case "thinking":
			t := strings.TrimSpace(block.Thinking)
			if t == "" {
				t = strings.TrimSpace(block.Text)
			}
			if t != "" {
				parts = append(parts, "<details>\n<summary>Thinking</summary>\n\n"+t+"\n\n</details>")
			}
		}
	}
	return strings.Join(parts, "\n\n")
}
