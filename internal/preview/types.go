// Package preview defines the domain types and the pure state machine for
// the scrape-preview workflow.
package preview

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ChannelPrefix namespaces per-task push channels.
const ChannelPrefix = "scraper:"

// ChannelForTask derives the push channel name for a task.
func ChannelForTask(taskID string) string {
	return ChannelPrefix + taskID
}

// MessageType tags inbound push messages.
type MessageType string

// Supported push message types.
const (
	MessageProgress MessageType = "progress"
	MessageComplete MessageType = "complete"
	MessageError    MessageType = "error"
)

// Element describes one extractable element detected on the target page.
type Element struct {
	Selector string `json:"selector"`
	Tag      string `json:"tag,omitempty"`
	Name     string `json:"name,omitempty"`
	Sample   string `json:"sample,omitempty"`
	Count    int    `json:"count,omitempty"`
}

// TierInfo describes which extraction tier satisfied a request. It is
// informational only; it never affects correctness, just user messaging.
type TierInfo struct {
	TierUsed    int      `json:"tier_used"`
	TierName    string   `json:"tier_name"`
	CostPerPage float64  `json:"cost_per_page"`
	Escalations []string `json:"escalations,omitempty"`
}

// TaskResult is the payload carried by a successful preview, either from the
// synchronous endpoint or from a complete push message.
type TaskResult struct {
	Elements []Element `json:"elements"`
	TierInfo *TierInfo `json:"tier_info,omitempty"`
}

// Message is one inbound event on a task's push channel. It is transient:
// the orchestrator reads it and discards it.
type Message struct {
	Type     MessageType `json:"type"`
	TaskID   string      `json:"task_id"`
	Status   string      `json:"status,omitempty"`
	Tier     int         `json:"tier,omitempty"`
	TierName string      `json:"tier_name,omitempty"`
	Error    string      `json:"error,omitempty"`
	Data     *TaskResult `json:"data,omitempty"`
}

// UnmarshalJSON decodes a Message, accepting both bare ("progress") and
// channel-namespaced ("scraper:progress") type tags on the wire.
func (m *Message) UnmarshalJSON(data []byte) error {
	type alias Message
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("decode push message: %w", err)
	}
	a.Type = MessageType(strings.TrimPrefix(string(a.Type), ChannelPrefix))
	*m = Message(a)
	return nil
}

// Terminal reports whether the message ends the task lifecycle.
func (m Message) Terminal() bool {
	return m.Type == MessageComplete || m.Type == MessageError
}
