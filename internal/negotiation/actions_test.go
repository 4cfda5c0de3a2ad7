package negotiation

import (
	"errors"
	"testing"

	"github.com/tgadmarket/miniapp/internal/models"
)

const (
	advertiserID = int64(100)
	ownerID      = int64(200)
	strangerID   = int64(999)
)

func deal(state models.DealState) *models.Deal {
	return &models.Deal{
		ID:             1,
		AdvertiserID:   advertiserID,
		ChannelOwnerID: ownerID,
		State:          state,
	}
}

func actor(id int64) *int64 { return &id }

func TestPermittedActions(t *testing.T) {
	tests := []struct {
		name        string
		state       models.DealState
		latestActor *int64
		viewerID    int64
		want        ActionSet
	}{
		{
			name:        "counterparty proposal pending gets all controls",
			state:       models.StateNegotiation,
			latestActor: actor(ownerID),
			viewerID:    advertiserID,
			want:        ActionSet{CanEdit: true, CanApprove: true, CanReject: true},
		},
		{
			name:        "own proposal pending gets nothing",
			state:       models.StateNegotiation,
			latestActor: actor(advertiserID),
			viewerID:    advertiserID,
			want:        ActionSet{},
		},
		{
			name:     "draft without proposal offers edit only",
			state:    models.StateDraft,
			viewerID: ownerID,
			want:     ActionSet{CanEdit: true},
		},
		{
			name:        "non-party sees nothing",
			state:       models.StateNegotiation,
			latestActor: actor(ownerID),
			viewerID:    strangerID,
			want:        ActionSet{},
		},
		{
			name:        "rejected deal is closed",
			state:       models.StateRejected,
			latestActor: actor(ownerID),
			viewerID:    advertiserID,
			want:        ActionSet{},
		},
		{
			name:        "accepted deal is past negotiation",
			state:       models.StateAccepted,
			latestActor: actor(ownerID),
			viewerID:    advertiserID,
			want:        ActionSet{},
		},
		{
			name:        "funded deal is past negotiation",
			state:       models.StateFunded,
			latestActor: actor(ownerID),
			viewerID:    advertiserID,
			want:        ActionSet{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PermittedActions(deal(tt.state), tt.latestActor, tt.viewerID)
			if got != tt.want {
				t.Errorf("PermittedActions() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPermittedActions_AtMostOnePartyCanRespond(t *testing.T) {
	// Whoever authored the latest proposal waits; the two parties can
	// never both hold approve/reject at the same time.
	for _, proposer := range []int64{advertiserID, ownerID} {
		d := deal(models.StateNegotiation)
		advertiser := PermittedActions(d, actor(proposer), advertiserID)
		owner := PermittedActions(d, actor(proposer), ownerID)
		if advertiser.CanApprove && owner.CanApprove {
			t.Errorf("proposer %d: both parties offered approve", proposer)
		}
		if !advertiser.Any() && !owner.Any() {
			t.Errorf("proposer %d: nobody can respond to a live proposal", proposer)
		}
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name        string
		action      Action
		state       models.DealState
		latestActor *int64
		viewerID    int64
		wantErr     error
	}{
		{
			name:        "approve counterparty proposal",
			action:      ActionApprove,
			state:       models.StateNegotiation,
			latestActor: actor(ownerID),
			viewerID:    advertiserID,
		},
		{
			name:        "reject counterparty proposal",
			action:      ActionReject,
			state:       models.StateNegotiation,
			latestActor: actor(ownerID),
			viewerID:    advertiserID,
		},
		{
			name:     "edit draft without proposal",
			action:   ActionEdit,
			state:    models.StateDraft,
			viewerID: advertiserID,
		},
		{
			name:        "own proposal still pending",
			action:      ActionEdit,
			state:       models.StateNegotiation,
			latestActor: actor(advertiserID),
			viewerID:    advertiserID,
			wantErr:     ErrAwaitingCounterparty,
		},
		{
			name:     "approve with nothing on the table",
			action:   ActionApprove,
			state:    models.StateDraft,
			viewerID: advertiserID,
			wantErr:  ErrNoProposal,
		},
		{
			name:        "deal already accepted",
			action:      ActionApprove,
			state:       models.StateAccepted,
			latestActor: actor(ownerID),
			viewerID:    advertiserID,
			wantErr:     ErrNotNegotiable,
		},
		{
			name:        "stranger blocked",
			action:      ActionEdit,
			state:       models.StateNegotiation,
			latestActor: actor(ownerID),
			viewerID:    strangerID,
			wantErr:     models.ErrNotParty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.action, deal(tt.state), tt.latestActor, tt.viewerID)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Authorize() returned error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authorize() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNextState(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		current models.DealState
		want    models.DealState
		wantErr bool
	}{
		{"first proposal opens negotiation", ActionEdit, models.StateDraft, models.StateNegotiation, false},
		{"counter-offer keeps negotiation", ActionEdit, models.StateNegotiation, models.StateNegotiation, false},
		{"approve locks terms", ActionApprove, models.StateNegotiation, models.StateCreativeApproved, false},
		{"reject closes deal", ActionReject, models.StateNegotiation, models.StateRejected, false},
		{"no moves from rejected", ActionEdit, models.StateRejected, models.StateRejected, true},
		{"no moves from released", ActionApprove, models.StateReleased, models.StateReleased, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextState(tt.action, tt.current)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NextState() returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NextState(%s, %s) = %s, want %s", tt.action, tt.current, got, tt.want)
			}
		})
	}
}

func TestNextState_UnknownAction(t *testing.T) {
	if _, err := NextState(Action("archive"), models.StateNegotiation); err == nil {
		t.Error("Expected error for unknown action")
	}
}
