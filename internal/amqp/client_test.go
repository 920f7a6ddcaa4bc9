package amqp

import (
	"testing"
	"time"
)

func TestNewTransactionEventMessage(t *testing.T) {
	msg := NewTransactionEventMessage(42, "recurring")

	if msg.ID != 42 {
		t.Errorf("ID = %v, want 42", msg.ID)
	}
	if msg.Source != "recurring" {
		t.Errorf("Source = %v, want recurring", msg.Source)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestTransactionEventMessage_JSON(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &TransactionEventMessage{
		ID:        12345,
		Source:    "manual",
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := TransactionEventMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("TransactionEventMessageFromJSON() error = %v", err)
	}

	if parsed.ID != msg.ID {
		t.Errorf("Parsed ID = %v, want %v", parsed.ID, msg.ID)
	}
	if parsed.Source != msg.Source {
		t.Errorf("Parsed Source = %v, want %v", parsed.Source, msg.Source)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestTransactionEventMessage_InvalidJSON(t *testing.T) {
	invalid := []byte(`{"id": "not_a_number", "source": "manual"}`)

	if _, err := TransactionEventMessageFromJSON(invalid); err == nil {
		t.Error("TransactionEventMessageFromJSON() should fail with invalid JSON")
	}
}
