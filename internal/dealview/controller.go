// Package dealview orchestrates the deal detail screen: loading the
// deal and its timeline, the proposal edit flow with upload-before-save
// gating, and approve/reject round trips. Errors stay scoped to where
// they originate: load failures belong to the view, save failures to
// the edit form, approve/reject failures to the action panel.
package dealview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tgadmarket/miniapp/internal/api"
	"github.com/tgadmarket/miniapp/internal/models"
	"github.com/tgadmarket/miniapp/internal/negotiation"
	"github.com/tgadmarket/miniapp/internal/timeline"
	"github.com/tgadmarket/miniapp/internal/validator"
)

// ErrUploadPending blocks saving while a media upload is in flight.
// The UI disables the save control; this error is the backstop.
var ErrUploadPending = errors.New("media upload still in progress")

// ErrTermsLocked rejects edits to price/ad type the backend would
// refuse: listing deals lock both, campaign deals lock them for the
// channel owner.
var ErrTermsLocked = errors.New("price and ad type are locked for this deal")

// Service is the slice of the marketplace API the controller needs.
type Service interface {
	GetDeal(ctx context.Context, dealID int64) (*models.Deal, error)
	UpdateProposal(ctx context.Context, dealID int64, update api.ProposalUpdate) (*models.Deal, error)
	Accept(ctx context.Context, dealID int64) (*models.Deal, error)
	Reject(ctx context.Context, dealID int64) (*models.Deal, error)
	UploadProposalMedia(ctx context.Context, dealID int64, filename string, file io.Reader) (*api.MediaUpload, error)
}

// Draft is the editable proposal form state.
type Draft struct {
	PriceTON          string `validate:"omitempty,numeric"`
	AdType            string
	PlacementType     string `validate:"omitempty,oneof=post story"`
	ExclusiveHours    int    `validate:"gte=0"`
	RetentionHours    int    `validate:"gte=0"`
	CreativeText      string `validate:"required"`
	CreativeMediaType string `validate:"omitempty,oneof=image video"`
	CreativeMediaRef  string
	StartAt           *time.Time
	PostingParams     map[string]any
}

type Controller struct {
	service  Service
	timeline *timeline.Store
	validate *validator.Validator
	dealID   int64
	viewerID int64

	mu             sync.Mutex
	deal           *models.Deal
	viewErr        error
	actionErr      error
	uploadsPending int
}

func New(service Service, store *timeline.Store, dealID, viewerID int64) *Controller {
	return &Controller{
		service:  service,
		timeline: store,
		validate: validator.New(),
		dealID:   dealID,
		viewerID: viewerID,
	}
}

// Load fetches the deal and the first timeline page. Both must settle
// before Actions returns anything meaningful.
func (c *Controller) Load(ctx context.Context) error {
	deal, err := c.service.GetDeal(ctx, c.dealID)
	if err != nil {
		c.mu.Lock()
		c.viewErr = err
		c.mu.Unlock()
		return fmt.Errorf("loading deal %d: %w", c.dealID, err)
	}

	c.mu.Lock()
	c.deal = deal
	c.viewErr = nil
	c.mu.Unlock()

	if err := c.timeline.LoadInitial(ctx, c.dealID); err != nil {
		c.mu.Lock()
		c.viewErr = err
		c.mu.Unlock()
		return err
	}
	return nil
}

// Deal returns a copy of the loaded deal.
func (c *Controller) Deal() (*models.Deal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deal == nil {
		return nil, false
	}
	copied := *c.deal
	return &copied, true
}

// ViewErr is the last load failure, owned by the whole view.
func (c *Controller) ViewErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewErr
}

// ActionErr is the last approve/reject failure, owned by the action
// panel. Load and form errors never end up here.
func (c *Controller) ActionErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.actionErr
}

// Actions computes the controls visible to the viewer from the current
// deal state and latest proposal authorship.
func (c *Controller) Actions() negotiation.ActionSet {
	c.mu.Lock()
	deal := c.deal
	c.mu.Unlock()
	if deal == nil {
		return negotiation.ActionSet{}
	}
	return negotiation.PermittedActions(deal, c.latestProposalActor(), c.viewerID)
}

func (c *Controller) latestProposalActor() *int64 {
	if actor, ok := c.timeline.LatestProposalActor(); ok {
		return &actor
	}
	return nil
}

// BeginEdit builds a draft prefilled from the latest proposal when one
// exists, falling back to the deal's persisted terms.
func (c *Controller) BeginEdit() (Draft, error) {
	c.mu.Lock()
	deal := c.deal
	c.mu.Unlock()
	if deal == nil {
		return Draft{}, errors.New("deal not loaded")
	}

	draft := Draft{
		PriceTON:          deal.PriceTON,
		AdType:            deal.AdType,
		CreativeText:      deal.CreativeText,
		CreativeMediaType: deal.CreativeMediaType,
		CreativeMediaRef:  deal.CreativeMediaRef,
		StartAt:           deal.ScheduledAt,
		PostingParams:     deal.PostingParams,
	}
	if deal.PlacementType != nil {
		draft.PlacementType = *deal.PlacementType
	}
	if deal.ExclusiveHours != nil {
		draft.ExclusiveHours = *deal.ExclusiveHours
	}
	if deal.RetentionHours != nil {
		draft.RetentionHours = *deal.RetentionHours
	}

	if event, ok := c.timeline.LatestProposal(); ok {
		payload, err := event.DecodePayload()
		if err == nil {
			if proposal, ok := payload.(*models.ProposalPayload); ok {
				overlayProposal(&draft, proposal)
			}
		}
	}
	return draft, nil
}

func overlayProposal(draft *Draft, p *models.ProposalPayload) {
	if p.PriceTON != nil {
		draft.PriceTON = *p.PriceTON
	}
	if p.AdType != nil {
		draft.AdType = *p.AdType
	}
	if p.PlacementType != nil {
		draft.PlacementType = *p.PlacementType
	}
	if p.ExclusiveHours != nil {
		draft.ExclusiveHours = *p.ExclusiveHours
	}
	if p.RetentionHours != nil {
		draft.RetentionHours = *p.RetentionHours
	}
	if p.CreativeText != nil {
		draft.CreativeText = *p.CreativeText
	}
	if p.CreativeMediaType != nil {
		draft.CreativeMediaType = *p.CreativeMediaType
	}
	if p.CreativeMediaRef != nil {
		draft.CreativeMediaRef = *p.CreativeMediaRef
	}
	if p.StartAt != nil {
		draft.StartAt = p.StartAt
	}
	if p.PostingParams != nil {
		draft.PostingParams = p.PostingParams
	}
}

// AttachMedia uploads a creative file and writes the returned media
// reference into the draft. Saving is blocked until the upload settles;
// the media fields always come from the server response, never from a
// locally-guessed value.
func (c *Controller) AttachMedia(ctx context.Context, draft *Draft, filename string, file io.Reader) error {
	c.mu.Lock()
	c.uploadsPending++
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.uploadsPending--
		c.mu.Unlock()
	}()

	upload, err := c.service.UploadProposalMedia(ctx, c.dealID, filename, file)
	if err != nil {
		return fmt.Errorf("uploading proposal media: %w", err)
	}
	draft.CreativeMediaRef = upload.CreativeMediaRef
	draft.CreativeMediaType = upload.CreativeMediaType
	return nil
}

// CanSave reports whether the save control should be enabled.
func (c *Controller) CanSave() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uploadsPending == 0
}

// SaveProposal validates and submits the draft as a counter-proposal.
// On success the deal is refreshed from the response and the timeline
// gets an optimistic proposal echo. Failures are returned to the edit
// form; loaded timeline state is never discarded.
func (c *Controller) SaveProposal(ctx context.Context, draft Draft) error {
	c.mu.Lock()
	deal := c.deal
	pending := c.uploadsPending
	c.mu.Unlock()
	if deal == nil {
		return errors.New("deal not loaded")
	}
	if pending > 0 {
		return ErrUploadPending
	}
	if err := negotiation.Authorize(negotiation.ActionEdit, deal, c.latestProposalActor(), c.viewerID); err != nil {
		return err
	}
	if err := c.validate.ValidateStruct(draft); err != nil {
		return err
	}

	update, err := buildUpdate(deal, draft, c.viewerID)
	if err != nil {
		return err
	}

	updated, err := c.service.UpdateProposal(ctx, c.dealID, update)
	if err != nil {
		return fmt.Errorf("saving proposal: %w", err)
	}

	c.mu.Lock()
	c.deal = updated
	c.mu.Unlock()

	c.timeline.Prepend(optimisticProposalEvent(update, c.viewerID))
	return nil
}

// buildUpdate maps the draft onto the wire payload, enforcing the
// backend's term locking ahead of the call.
func buildUpdate(deal *models.Deal, draft Draft, viewerID int64) (api.ProposalUpdate, error) {
	priceChanged := draft.PriceTON != deal.PriceTON
	adTypeChanged := draft.AdType != deal.AdType
	if priceChanged || adTypeChanged {
		if deal.SourceType == models.SourceListing {
			return api.ProposalUpdate{}, ErrTermsLocked
		}
		if role, err := deal.PartyRole(viewerID); err == nil && role == models.RoleOwner {
			return api.ProposalUpdate{}, ErrTermsLocked
		}
	}

	update := api.ProposalUpdate{
		CreativeText:  &draft.CreativeText,
		StartAt:       draft.StartAt,
		PostingParams: draft.PostingParams,
	}
	if priceChanged {
		update.PriceTON = &draft.PriceTON
	}
	if adTypeChanged {
		update.AdType = &draft.AdType
	}
	if draft.PlacementType != "" {
		update.PlacementType = &draft.PlacementType
	}
	if draft.ExclusiveHours > 0 {
		update.ExclusiveHours = &draft.ExclusiveHours
	}
	if draft.RetentionHours > 0 {
		update.RetentionHours = &draft.RetentionHours
	}
	if draft.CreativeMediaType != "" {
		update.CreativeMediaType = &draft.CreativeMediaType
	}
	if draft.CreativeMediaRef != "" {
		update.CreativeMediaRef = &draft.CreativeMediaRef
	}
	return update, nil
}

func optimisticProposalEvent(update api.ProposalUpdate, actorID int64) models.TimelineEvent {
	payload, _ := json.Marshal(update)
	return models.TimelineEvent{
		EventType: models.EventProposal,
		ActorID:   &actorID,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}

// Approve accepts the counterparty's latest proposal. On failure the
// local deal state is left untouched pending a manual refresh.
func (c *Controller) Approve(ctx context.Context) error {
	return c.respond(ctx, negotiation.ActionApprove, c.service.Accept)
}

// Reject declines the counterparty's latest proposal.
func (c *Controller) Reject(ctx context.Context) error {
	return c.respond(ctx, negotiation.ActionReject, c.service.Reject)
}

func (c *Controller) respond(ctx context.Context, action negotiation.Action, call func(context.Context, int64) (*models.Deal, error)) error {
	c.mu.Lock()
	deal := c.deal
	c.mu.Unlock()
	if deal == nil {
		return errors.New("deal not loaded")
	}
	if err := negotiation.Authorize(action, deal, c.latestProposalActor(), c.viewerID); err != nil {
		return err
	}

	updated, err := call(ctx, c.dealID)
	if err != nil {
		// Stale-state rejections surface verbatim; local state stays as
		// it was until a fresh fetch.
		c.mu.Lock()
		c.actionErr = err
		c.mu.Unlock()
		return fmt.Errorf("%s failed: %w", action, err)
	}

	c.mu.Lock()
	c.deal = updated
	c.actionErr = nil
	c.mu.Unlock()
	return nil
}

// Timeline exposes the backing store for pagination triggers and
// subscriptions.
func (c *Controller) Timeline() *timeline.Store {
	return c.timeline
}
