package consultation

import (
	"time"

	"symptom-triage/internal/triage"
)

// AnonymousUser is the log owner for requests that carry no user id.
const AnonymousUser = "anonymous"

// MaxMessageRunes caps the length of an utterance.
const MaxMessageRunes = 4096

// Record is one logged exchange. Records are appended and never changed.
type Record struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	UserInput   string    `json:"user_input"`
	BotResponse string    `json:"bot_response"`
	Symptoms    []string  `json:"symptoms_detected"`
	Conditions  []string  `json:"conditions_found"`
	Language    string    `json:"language"`
	Timestamp   time.Time `json:"timestamp"`
}

// Request is a single utterance to triage. A nil Message means the field
// was absent, which is different from an empty message.
type Request struct {
	Message  *string `json:"message"`
	Language string  `json:"language,omitempty"`
	UserID   string  `json:"user_id,omitempty"`
}

type Response struct {
	Response   string                  `json:"response"`
	Symptoms   []string                `json:"symptoms"`
	Conditions map[string]int          `json:"conditions"`
	Ranked     []triage.ConditionScore `json:"ranked"`
	Emergency  bool                    `json:"emergency"`
	Language   string                  `json:"language"`
	RecordID   int64                   `json:"record_id"`
	Timestamp  time.Time               `json:"timestamp"`
}

// Emergency describes a committed exchange whose ranking hit the
// emergency set.
type Emergency struct {
	RecordID   int64
	UserID     string
	UserInput  string
	Symptoms   []string
	Conditions []string
	Language   string
	Timestamp  time.Time
}

func normalizeUser(id string) string {
	if id == "" {
		return AnonymousUser
	}
	return id
}
