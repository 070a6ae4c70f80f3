package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entities and operations carried by change messages.
const (
	EntityTransaction = "transaction"
	EntityBudget      = "budget"

	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// ChangeMessage announces a confirmed mutation. Consumers re-read the backend
// for the current data; the message only says what changed.
type ChangeMessage struct {
	Entity    string    `json:"entity"`
	Operation string    `json:"operation"`
	ID        string    `json:"id"`
	Month     string    `json:"month,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(entity, operation, id, month string) *ChangeMessage {
	return &ChangeMessage{
		Entity:    entity,
		Operation: operation,
		ID:        id,
		Month:     month,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes and checks a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Entity {
	case EntityTransaction, EntityBudget:
	default:
		return nil, fmt.Errorf("unknown entity %q", msg.Entity)
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("change message without id")
	}
	return &msg, nil
}
