package domain

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

type ShopStatus string

const (
	ShopPending   ShopStatus = "PENDING"
	ShopApproved  ShopStatus = "APPROVED"
	ShopRejected  ShopStatus = "REJECTED"
	ShopSuspended ShopStatus = "SUSPENDED"
)

func ParseShopStatus(raw string) (ShopStatus, error) {
	switch s := ShopStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case ShopPending, ShopApproved, ShopRejected, ShopSuspended:
		return s, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse shop status", fmt.Errorf("unknown status %q", raw))
	}
}

const registrationNote = "Shop registration submitted for review"

// shopTransitions lists every allowed status change. Anything absent is rejected.
var shopTransitions = map[ShopStatus][]ShopStatus{
	ShopPending:   {ShopApproved, ShopRejected},
	ShopApproved:  {ShopSuspended},
	ShopRejected:  {ShopSuspended},
	ShopSuspended: {ShopPending, ShopApproved},
}

func CanTransition(from, to ShopStatus) bool {
	for _, next := range shopTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// reasonRequired reports target statuses that cannot be entered without a justification.
func reasonRequired(to ShopStatus) bool {
	return to == ShopRejected || to == ShopSuspended
}

type StatusHistoryEntry struct {
	Status    ShopStatus `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
	Notes     string     `json:"notes,omitempty"`
	Actor     string     `json:"actor,omitempty"`
}

type Shop struct {
	ID            int64                `json:"id"`
	Code          string               `json:"code"`
	Name          string               `json:"name"`
	OwnerName     string               `json:"owner_name"`
	OwnerEmail    string               `json:"owner_email"`
	OwnerPhone    string               `json:"owner_phone,omitempty"`
	Category      BusinessCategory     `json:"category"`
	Status        ShopStatus           `json:"status"`
	StatusHistory []StatusHistoryEntry `json:"status_history"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

type ShopRegistration struct {
	Name       string `json:"name"`
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
	OwnerPhone string `json:"owner_phone,omitempty"`
	Category   string `json:"category"`
}

// NewShop validates a registration and returns a PENDING shop with its first history entry.
func NewShop(reg ShopRegistration, code string, now time.Time) (*Shop, error) {
	category, err := ParseBusinessCategory(reg.Category)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(reg.Name)
	if name == "" {
		return nil, WrapError(ErrInvalidInput, "new shop", errors.New("name is required"))
	}
	email := strings.TrimSpace(reg.OwnerEmail)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, WrapError(ErrInvalidInput, "new shop", fmt.Errorf("owner email: %w", err))
	}

	now = now.UTC()
	return &Shop{
		Code:       code,
		Name:       name,
		OwnerName:  strings.TrimSpace(reg.OwnerName),
		OwnerEmail: email,
		OwnerPhone: strings.TrimSpace(reg.OwnerPhone),
		Category:   category,
		Status:     ShopPending,
		StatusHistory: []StatusHistoryEntry{{
			Status:    ShopPending,
			Timestamp: now,
			Notes:     registrationNote,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Transition moves the shop to status `to` and appends a history entry.
// On error the shop is not modified.
func (s *Shop) Transition(to ShopStatus, notes, actor string, at time.Time) (StatusHistoryEntry, error) {
	if !CanTransition(s.Status, to) {
		return StatusHistoryEntry{}, &InvalidTransitionError{From: string(s.Status), To: string(to)}
	}
	if reasonRequired(to) {
		if err := requireReason("reason", notes); err != nil {
			return StatusHistoryEntry{}, err
		}
	}

	entry := StatusHistoryEntry{
		Status:    to,
		Timestamp: at.UTC(),
		Notes:     notes,
		Actor:     actor,
	}
	s.Status = to
	s.StatusHistory = append(s.StatusHistory, entry)
	s.UpdatedAt = entry.Timestamp
	return entry, nil
}

// NotifiesOwner reports statuses the shop owner is told about.
func (s ShopStatus) NotifiesOwner() bool {
	return s == ShopApproved || s == ShopRejected || s == ShopSuspended
}

type ApprovalStats struct {
	Total              int64   `json:"total"`
	Pending            int64   `json:"pending"`
	Approved           int64   `json:"approved"`
	Rejected           int64   `json:"rejected"`
	Suspended          int64   `json:"suspended"`
	PendingPercentage  float64 `json:"pending_percentage"`
	ApprovedPercentage float64 `json:"approved_percentage"`
}

// NewApprovalStats derives totals and percentages from per-status counts.
func NewApprovalStats(counts map[ShopStatus]int64) ApprovalStats {
	stats := ApprovalStats{
		Pending:   counts[ShopPending],
		Approved:  counts[ShopApproved],
		Rejected:  counts[ShopRejected],
		Suspended: counts[ShopSuspended],
	}
	stats.Total = stats.Pending + stats.Approved + stats.Rejected + stats.Suspended
	if stats.Total > 0 {
		stats.PendingPercentage = float64(stats.Pending) * 100 / float64(stats.Total)
		stats.ApprovedPercentage = float64(stats.Approved) * 100 / float64(stats.Total)
	}
	return stats
}

type ShopFilter struct {
	Status   ShopStatus
	Category BusinessCategory
	Limit    int
	Offset   int
}
