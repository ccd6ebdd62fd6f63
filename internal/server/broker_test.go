package server

import (
	"strings"
	"testing"
)

func TestBrokerPublish(t *testing.T) {
	b := NewBroker()

	ch := b.Subscribe("game-1")
	other := b.Subscribe("game-2")

	b.Publish("game-1", GameEvent{
		Type:         eventEvidenceDiscovered,
		EvidenceID:   "evidence_1",
		EvidenceName: "Exhibit 1",
	})

	select {
	case data := <-ch:
		if !strings.Contains(string(data), eventEvidenceDiscovered) {
			t.Errorf("payload = %s", data)
		}
		if !strings.Contains(string(data), `"evidenceId":"evidence_1"`) {
			t.Errorf("payload missing evidence id: %s", data)
		}
	default:
		t.Fatal("subscriber received nothing")
	}

	// Events stay within their game.
	select {
	case data := <-other:
		t.Fatalf("game-2 subscriber received %s", data)
	default:
	}

	b.Unsubscribe("game-1", ch)
	b.Publish("game-1", GameEvent{Type: eventHintUsed})
	select {
	case data := <-ch:
		t.Fatalf("unsubscribed channel received %s", data)
	default:
	}
}

func TestBrokerDropsSlowSubscriber(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("game-1")

	// Fill the buffer and keep going; publishes must not block.
	for i := 0; i < 40; i++ {
		b.Publish("game-1", GameEvent{Type: eventHintUsed, HintLevel: 1})
	}

	if got := len(ch); got != cap(ch) {
		t.Errorf("buffered = %d, want full buffer %d", got, cap(ch))
	}
}
