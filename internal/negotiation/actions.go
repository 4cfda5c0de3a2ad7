// Package negotiation computes which moves each party may make on a
// deal, from the deal's persisted state plus the authorship of the
// latest proposal in the timeline. The server stays authoritative; this
// logic exists so the client never offers a control that is guaranteed
// to be rejected.
package negotiation

import (
	"errors"
	"fmt"

	"github.com/tgadmarket/miniapp/internal/models"
)

// Action is a negotiation move.
type Action string

const (
	ActionEdit    Action = "edit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

var (
	// ErrAwaitingCounterparty: the viewer authored the latest proposal
	// and must wait for the other side to respond.
	ErrAwaitingCounterparty = errors.New("awaiting counterparty response")
	// ErrNotNegotiable: the deal has left the negotiation stage.
	ErrNotNegotiable = errors.New("deal is no longer negotiable")
	// ErrNoProposal: approve/reject need a counterparty proposal on the
	// table.
	ErrNoProposal = errors.New("no proposal to respond to")
)

// ActionSet is the controls visible to one viewer.
type ActionSet struct {
	CanEdit    bool
	CanApprove bool
	CanReject  bool
}

// Any reports whether at least one control is visible.
func (a ActionSet) Any() bool {
	return a.CanEdit || a.CanApprove || a.CanReject
}

// PermittedActions computes the viewer's visible controls.
//
// Nothing is offered to non-parties, in terminal or later-stage states,
// or to the author of the latest proposal (the proposer waits). With no
// proposal on the table yet, either party may submit initial terms but
// there is nothing to approve or reject.
func PermittedActions(deal *models.Deal, latestProposalActor *int64, viewerID int64) ActionSet {
	if _, err := deal.PartyRole(viewerID); err != nil {
		return ActionSet{}
	}
	if !deal.State.Negotiable() {
		return ActionSet{}
	}
	if latestProposalActor == nil {
		return ActionSet{CanEdit: true}
	}
	if *latestProposalActor == viewerID {
		return ActionSet{}
	}
	return ActionSet{CanEdit: true, CanApprove: true, CanReject: true}
}

// Authorize checks a single action ahead of the API call so doomed
// requests are prevented rather than round-tripped.
func Authorize(action Action, deal *models.Deal, latestProposalActor *int64, viewerID int64) error {
	if _, err := deal.PartyRole(viewerID); err != nil {
		return err
	}
	if !deal.State.Negotiable() {
		return fmt.Errorf("%w: state %s", ErrNotNegotiable, deal.State)
	}
	if latestProposalActor != nil && *latestProposalActor == viewerID {
		return ErrAwaitingCounterparty
	}
	if action == ActionApprove || action == ActionReject {
		if latestProposalActor == nil {
			return ErrNoProposal
		}
	}
	return nil
}

// NextState predicts the server-side transition for an action, used for
// optimistic bookkeeping only; responses overwrite it.
//
// A proposal against a DRAFT deal advances it to NEGOTIATION (first
// proposal opens the negotiation); later proposals keep the state.
func NextState(action Action, current models.DealState) (models.DealState, error) {
	if !current.Negotiable() {
		return current, fmt.Errorf("%w: state %s", ErrNotNegotiable, current)
	}
	switch action {
	case ActionEdit:
		if current == models.StateDraft {
			return models.StateNegotiation, nil
		}
		return current, nil
	case ActionApprove:
		return models.StateCreativeApproved, nil
	case ActionReject:
		return models.StateRejected, nil
	}
	return current, fmt.Errorf("unknown action %q", action)
}
