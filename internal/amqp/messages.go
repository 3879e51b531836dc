package amqp

import (
	"encoding/json"
	"time"
)

// SyncRequestMessage asks the worker to run a provider sync for one user.
// It carries only the user id; the worker fetches everything else itself.
type SyncRequestMessage struct {
	UserID      string    `json:"user_id"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewSyncRequestMessage(userID string) *SyncRequestMessage {
	return &SyncRequestMessage{
		UserID:      userID,
		RequestedAt: time.Now(),
	}
}

func (m *SyncRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SyncRequestMessageFromJSON(data []byte) (*SyncRequestMessage, error) {
	var msg SyncRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
