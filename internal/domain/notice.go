package domain

import "time"

// NoticeLevel is the severity of a user-facing notice.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-facing notification, the equivalent of a toast in the browser client.
type Notice struct {
	ID        uint64      `json:"id"`
	Level     NoticeLevel `json:"level"`
	Kind      ErrorKind   `json:"kind,omitempty"`
	Message   string      `json:"message"`
	CreatedAt time.Time   `json:"created_at"`
}
