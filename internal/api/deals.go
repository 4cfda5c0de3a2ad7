package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tgadmarket/miniapp/internal/models"
)

// ProposalUpdate is the PATCH /deals/{id} body. Only non-nil fields are
// sent; the backend records the submitted subset as a proposal event.
type ProposalUpdate struct {
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

// MediaUpload is the response of a proposal media upload.
type MediaUpload struct {
	CreativeMediaRef  string `json:"creative_media_ref"`
	CreativeMediaType string `json:"creative_media_type"`
}

// DealMessage is the created timeline message summary.
type DealMessage struct {
	ID        int64     `json:"id"`
	DealID    int64     `json:"deal_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ListDealsParams filters the deals inbox.
type ListDealsParams struct {
	Role     models.Role
	State    models.DealState
	Page     int
	PageSize int
}

// GetDeal fetches one deal by id.
func (c *Client) GetDeal(ctx context.Context, dealID int64) (*models.Deal, error) {
	var deal models.Deal
	if err := c.getJSON(ctx, fmt.Sprintf("/deals/%d", dealID), &deal); err != nil {
		return nil, err
	}
	return &deal, nil
}

// ListDeals fetches a page of the caller's deal inbox.
func (c *Client) ListDeals(ctx context.Context, params ListDealsParams) (*models.DealInboxPage, error) {
	query := url.Values{}
	if params.Role != "" {
		query.Set("role", string(params.Role))
	}
	if params.State != "" {
		query.Set("state", string(params.State))
	}
	if params.Page > 0 {
		query.Set("page", strconv.Itoa(params.Page))
	}
	if params.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(params.PageSize))
	}
	path := "/deals"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var page models.DealInboxPage
	if err := c.getJSON(ctx, path, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListTimelineEvents fetches one page of the deal's negotiation log,
// newest first. A nil cursor requests the newest page; the returned
// next_cursor continues toward older events.
func (c *Client) ListTimelineEvents(ctx context.Context, dealID int64, cursor *string, limit int) (*models.TimelinePage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if cursor != nil {
		query.Set("cursor", *cursor)
	}
	var page models.TimelinePage
	path := fmt.Sprintf("/deals/%d/events?%s", dealID, query.Encode())
	if err := c.getJSON(ctx, path, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdateProposal submits edited terms as a counter-proposal and returns
// the refreshed deal. An idempotency key guards against double submits.
func (c *Client) UpdateProposal(ctx context.Context, dealID int64, update ProposalUpdate) (*models.Deal, error) {
	var deal models.Deal
	path := fmt.Sprintf("/deals/%d", dealID)
	if err := c.sendIdempotent(ctx, http.MethodPatch, path, update, &deal); err != nil {
		return nil, err
	}
	return &deal, nil
}

// Accept approves the counterparty's latest proposal.
func (c *Client) Accept(ctx context.Context, dealID int64) (*models.Deal, error) {
	var deal models.Deal
	path := fmt.Sprintf("/deals/%d/accept", dealID)
	if err := c.sendIdempotent(ctx, http.MethodPost, path, nil, &deal); err != nil {
		return nil, err
	}
	return &deal, nil
}

// Reject declines the counterparty's latest proposal.
func (c *Client) Reject(ctx context.Context, dealID int64) (*models.Deal, error) {
	var deal models.Deal
	path := fmt.Sprintf("/deals/%d/reject", dealID)
	if err := c.sendIdempotent(ctx, http.MethodPost, path, nil, &deal); err != nil {
		return nil, err
	}
	return &deal, nil
}

// UploadProposalMedia uploads a creative attachment and returns the
// stored media reference the subsequent proposal save must carry.
func (c *Client) UploadProposalMedia(ctx context.Context, dealID int64, filename string, file io.Reader) (*MediaUpload, error) {
	var upload MediaUpload
	path := fmt.Sprintf("/deals/%d/proposal/media", dealID)
	if err := c.sendMultipart(ctx, path, filename, file, &upload); err != nil {
		return nil, err
	}
	return &upload, nil
}

// SendMessage posts a free-text message into the deal timeline.
func (c *Client) SendMessage(ctx context.Context, dealID int64, text string) (*DealMessage, error) {
	var message DealMessage
	path := fmt.Sprintf("/deals/%d/messages", dealID)
	body := map[string]string{"text": text}
	if err := c.sendJSON(ctx, http.MethodPost, path, body, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// ProposalMediaURL builds the display URL for a proposal's creative.
func (c *Client) ProposalMediaURL(dealID int64, mediaRef string) string {
	return fmt.Sprintf("%s/deals/%d/proposal/media?media_ref=%s", c.baseURL, dealID, url.QueryEscape(mediaRef))
}

// sendIdempotent is sendJSON plus a ULID Idempotency-Key header so the
// backend can drop duplicate deliveries of the same mutation.
func (c *Client) sendIdempotent(ctx context.Context, method, path string, body, out any) error {
	key := ulid.Make().String()
	return c.sendJSONWithHeader(ctx, method, path, body, out, "Idempotency-Key", key)
}
