package amqp

import (
	"errors"
	"testing"
)

func TestRecordedMessageRoundTrip(t *testing.T) {
	msg := NewExpenseRecordedMessage(42, 500)
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	recorded, deleted, err := DecodeMessage(body)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if deleted != nil {
		t.Fatalf("unexpected deleted message: %+v", deleted)
	}
	if recorded == nil || recorded.ID != 42 || recorded.FromSavings != 500 {
		t.Fatalf("unexpected recorded message: %+v", recorded)
	}
	if recorded.Timestamp.IsZero() {
		t.Fatalf("timestamp not carried")
	}
}

func TestDeletedMessageRoundTrip(t *testing.T) {
	msg := NewExpenseDeletedMessage(7)
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	recorded, deleted, err := DecodeMessage(body)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if recorded != nil {
		t.Fatalf("unexpected recorded message: %+v", recorded)
	}
	if deleted == nil || deleted.ID != 7 {
		t.Fatalf("unexpected deleted message: %+v", deleted)
	}
}

func TestDecodeMessageErrors(t *testing.T) {
	if _, _, err := DecodeMessage([]byte(`{"kind":"expense.renamed"}`)); !errors.Is(err, ErrUnknownMessageKind) {
		t.Fatalf("expected ErrUnknownMessageKind, got %v", err)
	}
	if _, _, err := DecodeMessage([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}
