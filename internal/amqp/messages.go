package amqp

import (
	"encoding/json"
	"time"
)

// TransactionEventMessage announces a newly created transaction. It carries
// only the ID and source; consumers fetch the full row from the database.
type TransactionEventMessage struct {
	ID        int64     `json:"id"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEventMessage(id int64, source string) *TransactionEventMessage {
	return &TransactionEventMessage{
		ID:        id,
		Source:    source,
		Timestamp: time.Now(),
	}
}

func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
