package amqp

import (
	"encoding/json"
	"time"
)

// ExpenseRecordedMessage announces a newly journaled expense. It carries only
// the id; the export worker fetches the full record from the database.
type ExpenseRecordedMessage struct {
	ID          int64     `json:"id"`
	FromSavings int64     `json:"from_savings_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

// ExpenseDeletedMessage announces a deleted expense.
type ExpenseDeletedMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// envelope wraps both message kinds on the wire so a single queue can carry
// them.
type envelope struct {
	Kind     string          `json:"kind"`
	Recorded json.RawMessage `json:"recorded,omitempty"`
	Deleted  json.RawMessage `json:"deleted,omitempty"`
}

const (
	kindRecorded = "expense.recorded"
	kindDeleted  = "expense.deleted"
)

func NewExpenseRecordedMessage(id, fromSavingsCents int64) *ExpenseRecordedMessage {
	return &ExpenseRecordedMessage{
		ID:          id,
		FromSavings: fromSavingsCents,
		Timestamp:   time.Now(),
	}
}

func NewExpenseDeletedMessage(id int64) *ExpenseDeletedMessage {
	return &ExpenseDeletedMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseRecordedMessage) ToJSON() ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: kindRecorded, Recorded: body})
}

func (m *ExpenseDeletedMessage) ToJSON() ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: kindDeleted, Deleted: body})
}

// DecodeMessage parses an envelope and returns exactly one of the two message
// kinds.
func DecodeMessage(data []byte) (*ExpenseRecordedMessage, *ExpenseDeletedMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, err
	}
	switch env.Kind {
	case kindRecorded:
		var msg ExpenseRecordedMessage
		if err := json.Unmarshal(env.Recorded, &msg); err != nil {
			return nil, nil, err
		}
		return &msg, nil, nil
	case kindDeleted:
		var msg ExpenseDeletedMessage
		if err := json.Unmarshal(env.Deleted, &msg); err != nil {
			return nil, nil, err
		}
		return nil, &msg, nil
	default:
		return nil, nil, ErrUnknownMessageKind
	}
}
