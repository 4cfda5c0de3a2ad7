package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Timeline event types. Anything else coming off the wire is kept as-is
// but exposed without a typed payload.
const (
	EventProposal   = "proposal"
	EventMessage    = "message"
	EventTransition = "transition"
)

// TimelineEvent is one immutable record of the per-deal negotiation log.
// from_state/to_state are only set for transition events. The payload
// shape depends on event_type; use DecodePayload for typed access.
type TimelineEvent struct {
	EventType string          `json:"event_type"`
	FromState *DealState      `json:"from_state"`
	ToState   *DealState      `json:"to_state"`
	ActorID   *int64          `json:"actor_id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Identity is the dedup key for pagination. The backend assigns no
// stable event id, so (event_type, actor_id, created_at) stands in.
func (e *TimelineEvent) Identity() string {
	actor := int64(0)
	if e.ActorID != nil {
		actor = *e.ActorID
	}
	return fmt.Sprintf("%s|%d|%d", e.EventType, actor, e.CreatedAt.UnixNano())
}

// EventPayload is the tagged union over per-event-type payload shapes.
type EventPayload interface {
	eventPayload()
}

// ProposalPayload carries one party's full counter-offer. Only the
// fields the proposer actually changed are present; absent fields fall
// back to the deal's persisted terms.
type ProposalPayload struct {
	PriceTON          *string        `json:"price_ton,omitempty"`
	AdType            *string        `json:"ad_type,omitempty"`
	PlacementType     *string        `json:"placement_type,omitempty"`
	ExclusiveHours    *int           `json:"exclusive_hours,omitempty"`
	RetentionHours    *int           `json:"retention_hours,omitempty"`
	CreativeText      *string        `json:"creative_text,omitempty"`
	CreativeMediaType *string        `json:"creative_media_type,omitempty"`
	CreativeMediaRef  *string        `json:"creative_media_ref,omitempty"`
	StartAt           *time.Time     `json:"start_at,omitempty"`
	PostingParams     map[string]any `json:"posting_params,omitempty"`
}

// MessagePayload is a free-text note in the timeline.
type MessagePayload struct {
	Text string `json:"text"`
}

// TransitionPayload annotates a state change.
type TransitionPayload struct {
	Action string `json:"action,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func (*ProposalPayload) eventPayload()   {}
func (*MessagePayload) eventPayload()    {}
func (*TransitionPayload) eventPayload() {}

// DecodePayload parses the raw payload according to event_type.
// Unknown event types and empty payloads yield (nil, nil).
func (e *TimelineEvent) DecodePayload() (EventPayload, error) {
	if len(e.Payload) == 0 {
		return nil, nil
	}
	switch e.EventType {
	case EventProposal:
		var p ProposalPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return nil, fmt.Errorf("decoding proposal payload: %w", err)
		}
		return &p, nil
	case EventMessage:
		var p MessagePayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return nil, fmt.Errorf("decoding message payload: %w", err)
		}
		return &p, nil
	case EventTransition:
		var p TransitionPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return nil, fmt.Errorf("decoding transition payload: %w", err)
		}
		return &p, nil
	}
	return nil, nil
}

// TimelinePage is one page of timeline events, newest first. A nil
// next_cursor means no older events remain.
type TimelinePage struct {
	Items      []TimelineEvent `json:"items"`
	NextCursor *string         `json:"next_cursor"`
}
