package entities

import (
	"strings"
	"time"
	"unicode/utf8"
)

// AdType is the placement an advertiser pays for
type AdType string

const (
	AdTypeText      AdType = "text"
	AdTypeBanner    AdType = "banner"
	AdTypeSponsored AdType = "sponsored"
)

// AdTypes lists the placements in the order they are offered
func AdTypes() []AdType {
	return []AdType{AdTypeText, AdTypeBanner, AdTypeSponsored}
}

// ParseAdType accepts the type name in any case
func ParseAdType(s string) (AdType, error) {
	switch AdType(strings.ToLower(strings.TrimSpace(s))) {
	case AdTypeText:
		return AdTypeText, nil
	case AdTypeBanner:
		return AdTypeBanner, nil
	case AdTypeSponsored:
		return AdTypeSponsored, nil
	}
	return "", ErrInvalidAdType
}

// Cost is the flat price in kyat quoted for the placement
func (t AdType) Cost() int64 {
	switch t {
	case AdTypeBanner:
		return 7500
	case AdTypeSponsored:
		return 10000
	default:
		return 5000
	}
}

// DisplayName is the label shown on buttons and summaries
func (t AdType) DisplayName() string {
	switch t {
	case AdTypeText:
		return "Text"
	case AdTypeBanner:
		return "Banner"
	case AdTypeSponsored:
		return "Sponsored"
	default:
		return string(t)
	}
}

// AdField bounds one free-text field of an advertisement, counted in characters
type AdField struct {
	Name string
	Min  int
	Max  int
}

var (
	AdFieldAdvertiser = AdField{Name: "advertiser name", Min: 2, Max: 64}
	AdFieldTitle      = AdField{Name: "title", Min: 5, Max: 100}
	AdFieldContent    = AdField{Name: "content", Min: 10, Max: 1000}
)

// AdFieldError reports a field outside its length bounds
type AdFieldError struct {
	Field AdField
}

func (e *AdFieldError) Error() string {
	return "invalid advertisement " + e.Field.Name
}

// Clean trims the value and checks its length
func (f AdField) Clean(value string) (string, error) {
	value = strings.TrimSpace(value)
	n := utf8.RuneCountInString(value)
	if n < f.Min || n > f.Max || strings.HasPrefix(value, "/") {
		return "", &AdFieldError{Field: f}
	}
	return value, nil
}

// AdDraft is what the advertiser enters before submitting
type AdDraft struct {
	AdvertiserName string
	Title          string
	Content        string
	Type           AdType
}

// Advertisement is a paid ad a user submits for admin review.
// An approved ad is posted once to the announcement channel.
type Advertisement struct {
	ID             int64         `db:"id"`
	UserID         int64         `db:"user_id"`
	AdvertiserName string        `db:"advertiser_name"`
	Title          string        `db:"title"`
	Content        string        `db:"content"`
	Type           AdType        `db:"ad_type"`
	Cost           int64         `db:"cost"`
	Status         RequestStatus `db:"status"`
	AdminID        *int64        `db:"admin_id"`
	AdminNote      string        `db:"admin_note"`
	CreatedAt      time.Time     `db:"created_at"`
	ProcessedAt    *time.Time    `db:"processed_at"`
}

// Ref returns the request reference
func (a *Advertisement) Ref() RequestRef {
	return RequestRef{Kind: RequestKindAdvertisement, ID: a.ID}
}

// IsPending reports whether the ad still awaits a decision
func (a *Advertisement) IsPending() bool {
	return a.Status == RequestStatusPending
}

// SummaryOfAdvertisement builds a RequestSummary from an advertisement; the amount is the quoted cost
func SummaryOfAdvertisement(a *Advertisement) *RequestSummary {
	return &RequestSummary{
		Ref:       a.Ref(),
		UserID:    a.UserID,
		Amount:    a.Cost,
		Detail:    a.Type.DisplayName() + ": " + a.Title,
		Status:    a.Status,
		AdminID:   a.AdminID,
		AdminNote: a.AdminNote,
		CreatedAt: a.CreatedAt,
	}
}
