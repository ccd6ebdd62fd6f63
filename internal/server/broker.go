package server

import (
	"encoding/json"
	"sync"
)

// Event types published on a game's feed.
const (
	eventEvidenceDiscovered = "evidence_discovered"
	eventDeductionSubmitted = "deduction_submitted"
	eventHintUsed           = "hint_used"
)

// GameEvent is the payload published to a game's subscribers, for companion
// screens following a playthrough.
type GameEvent struct {
	Type            string `json:"type"`
	EvidenceID      string `json:"evidenceId,omitempty"`
	EvidenceName    string `json:"evidenceName,omitempty"`
	DiscoveredCount int    `json:"discoveredCount,omitempty"`
	TotalEvidence   int    `json:"totalEvidence,omitempty"`
	SuspectName     string `json:"suspectName,omitempty"`
	Correct         bool   `json:"correct,omitempty"`
	Score           int    `json:"score,omitempty"`
	HintLevel       int    `json:"hintLevel,omitempty"`
}

// Broker is an in-process pub/sub for SSE events, keyed by game id.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the given game.
func (b *Broker) Subscribe(gameID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[gameID] == nil {
		b.subs[gameID] = make(map[chan []byte]struct{})
	}
	b.subs[gameID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the game's subscribers.
func (b *Broker) Unsubscribe(gameID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[gameID], ch)
	if len(b.subs[gameID]) == 0 {
		delete(b.subs, gameID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given game.
func (b *Broker) Publish(gameID string, event GameEvent) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[gameID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
