package api

import "time"

// Wire records for the claude.ai web API, one explicit type per endpoint
// shape. Timestamps stay as the raw strings the API sent; ParseTime is for
// callers that need instants. Unknown fields are ignored; a response that does
// not decode into the expected shape is rejected as malformed rather than
// silently defaulted.

// Organization is one entry of the organizations listing.
type Organization struct {
	UUID         string   `json:"uuid"`
	Name         string   `json:"name"`
	Capabilities []string `json:"capabilities"`
}

// ProjectSummary is one entry of an organization's project listing. The
// listing carries no instructions text; fetch the full Project for that.
type ProjectSummary struct {
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	IsPrivate bool   `json:"is_private"`
}

// Project is the full project record.
type Project struct {
	UUID           string `json:"uuid"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
	IsPrivate      bool   `json:"is_private"`
	PromptTemplate string `json:"prompt_template"`
}

// Document is one project document, content included. The API has used both
// file_name and filename for the same field across revisions; FileName returns
// whichever is set.
type Document struct {
	UUID       string `json:"uuid"`
	Name       string `json:"file_name"`
	LegacyName string `json:"filename"`
	Content    string `json:"content"`
	CreatedAt  string `json:"created_at"`
}

// FileName returns the remote-supplied filename, or "" when the document has
// none under either key.
func (d Document) FileName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.LegacyName
}

// ConversationSummary is one entry of a project's conversation listing:
// enough to decide whether the expensive full fetch is needed, nothing more.
type ConversationSummary struct {
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Conversation is the full record with the current branch's message sequence.
type Conversation struct {
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
	Messages  []Message `json:"chat_messages"`
}

// Message is one turn of a conversation. Current records carry typed content
// blocks; legacy records carry flat Text instead.
type Message struct {
	UUID      string         `json:"uuid"`
	Sender    string         `json:"sender"`
	CreatedAt string         `json:"created_at"`
	Content   []ContentBlock `json:"content"`
	Text      string         `json:"text"`
}

// ContentBlock is one typed span of a message body.
type ContentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Thinking string `json:"thinking"`
}

// timeLayouts covers the timestamp shapes the API has been seen to emit.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
}

// ParseTime parses a remote timestamp string. RFC 3339 with Z or an explicit
// offset is the normal case; zone-less variants are read as UTC.
func ParseTime(ts string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, ts)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
