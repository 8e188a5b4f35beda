package types

import (
	"fmt"
	"time"
)

// MessageType identifies who authored a message.
type MessageType string

const (
	MessageTypeUser      MessageType = "user"
	MessageTypeCharacter MessageType = "character"
)

// ErrorType categorizes a failed generation.
type ErrorType string

const (
	ErrorTypeAPIKey    ErrorType = "api_key"
	ErrorTypeRateLimit ErrorType = "rate_limit"
	ErrorTypeNetwork   ErrorType = "network"
	ErrorTypeQuota     ErrorType = "quota"
	ErrorTypeTimeout   ErrorType = "timeout"
	ErrorTypeGeneric   ErrorType = "generic"
)

// Version is one alternative response of a character message.
// VersionIndex is 1-based.
type Version struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
	VersionIndex int       `json:"versionIndex"`
	IsError      bool      `json:"isError,omitempty"`
	ErrorType    ErrorType `json:"errorType,omitempty"`
}

// Message is one entry of a conversation. When Versions is non-empty,
// Content mirrors the version selected by CurrentVersionIndex (1-based).
type Message struct {
	ID                  string      `json:"id"`
	Type                MessageType `json:"type"`
	Content             string      `json:"content"`
	Sender              string      `json:"sender"`
	IsError             bool        `json:"isError,omitempty"`
	ErrorType           ErrorType   `json:"errorType,omitempty"`
	IsEdited            bool        `json:"isEdited,omitempty"`
	OriginalContent     string      `json:"originalContent,omitempty"`
	IsEditing           bool        `json:"isEditing,omitempty"`
	Versions            []Version   `json:"versions,omitempty"`
	CurrentVersionIndex int         `json:"currentVersionIndex,omitempty"`
	CreatedAt           time.Time   `json:"createdAt"`
}

// Clone returns a deep copy of m.
func (m Message) Clone() Message {
	if m.Versions != nil {
		m.Versions = append([]Version(nil), m.Versions...)
	}
	return m
}

// slot converts the 1-based CurrentVersionIndex into a slice position.
func (m Message) slot() int {
	return m.CurrentVersionIndex - 1
}

// selectSlot makes Versions[slot] current and mirrors it into the message.
func (m *Message) selectSlot(slot int) {
	v := m.Versions[slot]
	m.CurrentVersionIndex = slot + 1
	m.Content = v.Content
	m.IsError = v.IsError
	m.ErrorType = v.ErrorType
}

// CurrentVersion returns the selected version, if the message has any.
func (m Message) CurrentVersion() (Version, bool) {
	s := m.slot()
	if s < 0 || s >= len(m.Versions) {
		return Version{}, false
	}
	return m.Versions[s], true
}

// AddVersion appends v and makes it current. The first call materializes the
// message's existing content as version 1.
func (m Message) AddVersion(v Version) Message {
	out := m.Clone()
	if len(out.Versions) == 0 {
		out.Versions = []Version{{
			ID:           fmt.Sprintf("ver_%s_1", m.ID),
			Content:      m.Content,
			CreatedAt:    m.CreatedAt,
			VersionIndex: 1,
			IsError:      m.IsError,
			ErrorType:    m.ErrorType,
		}}
	}
	v.VersionIndex = len(out.Versions) + 1
	out.Versions = append(out.Versions, v)
	out.selectSlot(len(out.Versions) - 1)
	return out
}

// ShiftVersion moves the selection one step in the direction of delta,
// clamped to the available versions. It reports whether anything changed.
func (m Message) ShiftVersion(delta int) (Message, bool) {
	if len(m.Versions) <= 1 || delta == 0 {
		return m, false
	}
	step := 1
	if delta < 0 {
		step = -1
	}
	cur := m.slot()
	if cur < 0 || cur >= len(m.Versions) {
		cur = len(m.Versions) - 1
	}
	next := min(max(cur+step, 0), len(m.Versions)-1)
	if next == cur {
		return m, false
	}
	out := m.Clone()
	out.selectSlot(next)
	return out, true
}

// CloneMessages deep-copies a message list.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, msg := range msgs {
		out[i] = msg.Clone()
	}
	return out
}

// Turn roles sent to providers.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is a provider-facing conversation turn.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
