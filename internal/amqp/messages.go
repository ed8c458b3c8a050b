package amqp

import (
	"encoding/json"
	"time"
)

// TransactionCreatedMessage tells the export worker a ledger row exists.
// It carries only the row id; the worker reads the full transaction from
// the store so the queue never holds user data.
type TransactionCreatedMessage struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func NewTransactionCreatedMessage(id int64) *TransactionCreatedMessage {
	return &TransactionCreatedMessage{ID: id, CreatedAt: time.Now()}
}

func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionCreatedMessageFromJSON(data []byte) (*TransactionCreatedMessage, error) {
	var msg TransactionCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
