package payment

import (
	"context"
	"errors"
	"fmt"
)

// Default pagination values
const (
	DefaultPage    = 1   // Default to first page
	DefaultPerPage = 50  // Default pagination size
	MaxPerPage     = 100 // Maximum items per page
)

// Page represents a page number for pagination
type Page uint64

// PerPage represents items per page for pagination
type PerPage uint64

// Criteria validation errors
var (
	ErrPerPageTooLarge = errors.New("per_page exceeds maximum limit")
	ErrInvalidStatus   = errors.New("unknown payment status")
)

// ErrNotFound is returned by finders when no payment or batch matches
var ErrNotFound = errors.New("not found")

// ParsePageFromUint64 creates a Page from uint64 with default handling
func ParsePageFromUint64(page uint64) Page {
	// Zero means use default page
	if page == 0 {
		return Page(DefaultPage)
	}
	return Page(page)
}

// ParsePerPageFromUint64 creates a PerPage from uint64 with domain validation
func ParsePerPageFromUint64(perPage uint64) (PerPage, error) {
	// Zero means use default per_page
	if perPage == 0 {
		return PerPage(DefaultPerPage), nil
	}
	if perPage > MaxPerPage {
		return 0, fmt.Errorf("%w: must be between 1 and %d", ErrPerPageTooLarge, MaxPerPage)
	}
	return PerPage(perPage), nil
}

// ParseStatus validates an optional status filter. Empty means no filtering.
func ParseStatus(status string) (Status, error) {
	switch Status(status) {
	case "", StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled:
		return Status(status), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
}

// Uint64 returns the underlying uint64 value
func (p Page) Uint64() uint64 {
	return uint64(p)
}

// Uint64 returns the underlying uint64 value
func (pp PerPage) Uint64() uint64 {
	return uint64(pp)
}

// ListCriteria specifies criteria for querying payments using domain Value
// Objects
type ListCriteria struct {
	User   string // Match sender or recipient. Empty means no user filtering
	Status Status // Status filter. Empty means no status filtering
	Page   Page   // 1-based page number
	Size   PerPage
}

// NewListCriteria creates ListCriteria from raw query values with validation
func NewListCriteria(user, status string, page, perPage uint64) (ListCriteria, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return ListCriteria{}, err
	}

	pp, err := ParsePerPageFromUint64(perPage)
	if err != nil {
		return ListCriteria{}, err
	}

	return ListCriteria{
		User:   user,
		Status: st,
		Page:   ParsePageFromUint64(page),
		Size:   pp,
	}, nil
}

// ItemsPerPage returns the number of items requested per page
func (c ListCriteria) ItemsPerPage() uint64 {
	return c.Size.Uint64()
}

// ItemsToSkip returns the number of items to skip for pagination
func (c ListCriteria) ItemsToSkip() uint64 {
	return (c.Page.Uint64() - 1) * c.Size.Uint64()
}

// PaymentsPage represents a page of payment results with navigation metadata
type PaymentsPage struct {
	Payments []Payment
	HasMore  bool    // True if there are more pages after this one
	Number   Page    // Current page number
	Size     PerPage // Page size
}

// Helper methods for pagination state
func (p *PaymentsPage) HasNext() bool     { return p.HasMore }
func (p *PaymentsPage) HasPrevious() bool { return p.Number > 1 }

// Finder defines the read side used by the HTTP layer
type Finder interface {
	FindPayments(ctx context.Context, criteria ListCriteria) (*PaymentsPage, error)
	FindPayment(ctx context.Context, id string) (*Payment, error)
	FindBatch(ctx context.Context, id string) (*Batch, error)
	CountByUser(ctx context.Context, user string) (uint64, error)
}
