package models

import (
	"errors"
	"time"
)

// ErrNotParty is returned when a user is neither the advertiser nor the
// channel owner of a deal.
var ErrNotParty = errors.New("user is not a party to this deal")

// Role is a user's stored marketplace role preference.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleAdvertiser Role = "advertiser"
)

// Valid reports whether the role is one of the known preferences.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleAdvertiser
}

// DealState enumerates the deal lifecycle. Values are part of the wire
// contract with the backend and must not be renamed.
type DealState string

const (
	StateDraft                    DealState = "DRAFT"
	StateNegotiation              DealState = "NEGOTIATION"
	StateRejected                 DealState = "REJECTED"
	StateAccepted                 DealState = "ACCEPTED"
	StateCreativeSubmitted        DealState = "CREATIVE_SUBMITTED"
	StateCreativeChangesRequested DealState = "CREATIVE_CHANGES_REQUESTED"
	StateCreativeApproved         DealState = "CREATIVE_APPROVED"
	StateFunded                   DealState = "FUNDED"
	StateScheduled                DealState = "SCHEDULED"
	StatePosted                   DealState = "POSTED"
	StateVerified                 DealState = "VERIFIED"
	StateReleased                 DealState = "RELEASED"
	StateRefunded                 DealState = "REFUNDED"
)

// Negotiable reports whether proposal edits and approve/reject are still
// on the table. Everything past NEGOTIATION belongs to the creative,
// funding and verification stages.
func (s DealState) Negotiable() bool {
	return s == StateDraft || s == StateNegotiation
}

// Source types for deals.
const (
	SourceListing  = "listing"
	SourceCampaign = "campaign"
)

// Deal is the full deal detail payload served by the marketplace
// backend. JSON field names are the compatibility surface and are
// preserved verbatim.
type Deal struct {
	ID                    int64          `json:"id"`
	SourceType            string         `json:"source_type"`
	AdvertiserID          int64          `json:"advertiser_id"`
	ChannelID             int64          `json:"channel_id"`
	ChannelOwnerID        int64          `json:"channel_owner_id"`
	ListingID             *int64         `json:"listing_id"`
	ListingFormatID       *int64         `json:"listing_format_id"`
	CampaignID            *int64         `json:"campaign_id"`
	CampaignApplicationID *int64         `json:"campaign_application_id"`
	PriceTON              string         `json:"price_ton"`
	AdType                string         `json:"ad_type"`
	PlacementType         *string        `json:"placement_type"`
	ExclusiveHours        *int           `json:"exclusive_hours"`
	RetentionHours        *int           `json:"retention_hours"`
	CreativeText          string         `json:"creative_text"`
	CreativeMediaType     string         `json:"creative_media_type"`
	CreativeMediaRef      string         `json:"creative_media_ref"`
	PostingParams         map[string]any `json:"posting_params,omitempty"`
	ScheduledAt           *time.Time     `json:"scheduled_at"`
	VerificationWindowHrs *int           `json:"verification_window_hours"`
	PostedAt              *time.Time     `json:"posted_at"`
	PostedMessageID       *string        `json:"posted_message_id"`
	PostedContentHash     *string        `json:"posted_content_hash"`
	VerifiedAt            *time.Time     `json:"verified_at"`
	State                 DealState      `json:"state"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	ChannelUsername       *string        `json:"channel_username,omitempty"`
	ChannelTitle          *string        `json:"channel_title,omitempty"`
	AdvertiserUsername    *string        `json:"advertiser_username,omitempty"`
	AdvertiserFirstName   *string        `json:"advertiser_first_name,omitempty"`
	AdvertiserLastName    *string        `json:"advertiser_last_name,omitempty"`
}

// PartyRole resolves which side of the deal userID is on.
func (d *Deal) PartyRole(userID int64) (Role, error) {
	switch userID {
	case d.AdvertiserID:
		return RoleAdvertiser, nil
	case d.ChannelOwnerID:
		return RoleOwner, nil
	}
	return "", ErrNotParty
}

// User is the authenticated profile returned by /auth/me.
type User struct {
	ID               int64   `json:"id"`
	TelegramUserID   int64   `json:"telegram_user_id"`
	PreferredRole    *Role   `json:"preferred_role"`
	TonWalletAddress *string `json:"ton_wallet_address"`
	HasWallet        bool    `json:"has_wallet"`
}

// DealInboxItem is one row of the deals inbox list.
type DealInboxItem struct {
	ID              int64     `json:"id"`
	State           DealState `json:"state"`
	ChannelID       int64     `json:"channel_id"`
	ChannelUsername *string   `json:"channel_username,omitempty"`
	ChannelTitle    *string   `json:"channel_title,omitempty"`
	AdvertiserID    int64     `json:"advertiser_id"`
	PriceTON        string    `json:"price_ton"`
	AdType          string    `json:"ad_type"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DealInboxPage is a page of the deals inbox.
type DealInboxPage struct {
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Total    int             `json:"total"`
	Items    []DealInboxItem `json:"items"`
}
