package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimelineEvent_DecodePayload(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		payload   string
		check     func(t *testing.T, p EventPayload)
	}{
		{
			name:      "proposal",
			eventType: EventProposal,
			payload:   `{"price_ton":"150","creative_text":"updated","retention_hours":24}`,
			check: func(t *testing.T, p EventPayload) {
				proposal, ok := p.(*ProposalPayload)
				if !ok {
					t.Fatalf("Expected *ProposalPayload, got %T", p)
				}
				if proposal.PriceTON == nil || *proposal.PriceTON != "150" {
					t.Errorf("Unexpected price: %v", proposal.PriceTON)
				}
				if proposal.CreativeText == nil || *proposal.CreativeText != "updated" {
					t.Errorf("Unexpected text: %v", proposal.CreativeText)
				}
				if proposal.AdType != nil {
					t.Error("Absent fields must stay nil")
				}
			},
		},
		{
			name:      "message",
			eventType: EventMessage,
			payload:   `{"text":"can you post it earlier?"}`,
			check: func(t *testing.T, p EventPayload) {
				message, ok := p.(*MessagePayload)
				if !ok {
					t.Fatalf("Expected *MessagePayload, got %T", p)
				}
				if message.Text != "can you post it earlier?" {
					t.Errorf("Unexpected text %q", message.Text)
				}
			},
		},
		{
			name:      "transition",
			eventType: EventTransition,
			payload:   `{"action":"accept"}`,
			check: func(t *testing.T, p EventPayload) {
				transition, ok := p.(*TransitionPayload)
				if !ok {
					t.Fatalf("Expected *TransitionPayload, got %T", p)
				}
				if transition.Action != "accept" {
					t.Errorf("Unexpected action %q", transition.Action)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := TimelineEvent{
				EventType: tt.eventType,
				Payload:   json.RawMessage(tt.payload),
			}
			payload, err := event.DecodePayload()
			if err != nil {
				t.Fatalf("DecodePayload() returned error: %v", err)
			}
			tt.check(t, payload)
		})
	}
}

func TestTimelineEvent_DecodePayload_UnknownType(t *testing.T) {
	event := TimelineEvent{EventType: "escrow_released", Payload: json.RawMessage(`{"tx":"abc"}`)}
	payload, err := event.DecodePayload()
	if err != nil {
		t.Fatalf("DecodePayload() returned error: %v", err)
	}
	if payload != nil {
		t.Errorf("Unknown event types must decode to nil, got %T", payload)
	}
}

func TestTimelineEvent_DecodePayload_Empty(t *testing.T) {
	event := TimelineEvent{EventType: EventTransition}
	payload, err := event.DecodePayload()
	if err != nil {
		t.Fatalf("DecodePayload() returned error: %v", err)
	}
	if payload != nil {
		t.Errorf("Empty payload must decode to nil, got %T", payload)
	}
}

func TestTimelineEvent_Identity(t *testing.T) {
	at := time.Date(2025, time.February, 9, 6, 16, 0, 0, time.UTC)
	actor := int64(100)
	event := TimelineEvent{EventType: EventProposal, ActorID: &actor, CreatedAt: at}

	same := TimelineEvent{EventType: EventProposal, ActorID: &actor, CreatedAt: at}
	if event.Identity() != same.Identity() {
		t.Error("Equal events must share an identity")
	}

	otherActor := int64(200)
	different := []TimelineEvent{
		{EventType: EventMessage, ActorID: &actor, CreatedAt: at},
		{EventType: EventProposal, ActorID: &otherActor, CreatedAt: at},
		{EventType: EventProposal, ActorID: &actor, CreatedAt: at.Add(time.Nanosecond)},
		{EventType: EventProposal, CreatedAt: at},
	}
	for i := range different {
		if different[i].Identity() == event.Identity() {
			t.Errorf("Event %d must not collide with the reference identity", i)
		}
	}
}

func TestDealState_Negotiable(t *testing.T) {
	negotiable := map[DealState]bool{
		StateDraft:             true,
		StateNegotiation:       true,
		StateRejected:          false,
		StateAccepted:          false,
		StateCreativeSubmitted: false,
		StateFunded:            false,
		StatePosted:            false,
		StateReleased:          false,
		StateRefunded:          false,
	}
	for state, want := range negotiable {
		if got := state.Negotiable(); got != want {
			t.Errorf("%s.Negotiable() = %v, want %v", state, got, want)
		}
	}
}

func TestDeal_PartyRole(t *testing.T) {
	deal := Deal{AdvertiserID: 100, ChannelOwnerID: 200}

	role, err := deal.PartyRole(100)
	if err != nil || role != RoleAdvertiser {
		t.Errorf("PartyRole(100) = %v, %v; want advertiser", role, err)
	}
	role, err = deal.PartyRole(200)
	if err != nil || role != RoleOwner {
		t.Errorf("PartyRole(200) = %v, %v; want owner", role, err)
	}
	if _, err := deal.PartyRole(999); err == nil {
		t.Error("Expected ErrNotParty for a stranger")
	}
}
