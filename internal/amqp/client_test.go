package amqp

import (
	"testing"
	"time"
)

func TestNewSyncRequestMessage(t *testing.T) {
	msg := NewSyncRequestMessage("user-1")

	if msg.UserID != "user-1" {
		t.Errorf("NewSyncRequestMessage() UserID = %v, want user-1", msg.UserID)
	}
	if msg.RequestedAt.IsZero() {
		t.Error("NewSyncRequestMessage() RequestedAt should not be zero")
	}
	if time.Since(msg.RequestedAt) > time.Second {
		t.Error("NewSyncRequestMessage() RequestedAt should be recent")
	}
}

func TestSyncRequestMessage_JSON(t *testing.T) {
	requestedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := &SyncRequestMessage{
		UserID:      "user-1",
		RequestedAt: requestedAt,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsedMsg, err := SyncRequestMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("SyncRequestMessageFromJSON() error = %v", err)
	}

	if parsedMsg.UserID != msg.UserID {
		t.Errorf("Parsed UserID = %v, want %v", parsedMsg.UserID, msg.UserID)
	}
	if !parsedMsg.RequestedAt.Equal(msg.RequestedAt) {
		t.Errorf("Parsed RequestedAt = %v, want %v", parsedMsg.RequestedAt, msg.RequestedAt)
	}
}

func TestSyncRequestMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"user_id": 42}`)

	if _, err := SyncRequestMessageFromJSON(invalidJSON); err == nil {
		t.Error("SyncRequestMessageFromJSON() should fail with invalid JSON")
	}
}
