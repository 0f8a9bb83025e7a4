package ports

import (
	"context"
	"encoding/json"
)

// ReviewRequest is an open pull request waiting for the user's review.
// Raw keeps the record exactly as the provider returned it.
type ReviewRequest struct {
	Title      string
	URL        string
	Repository string
	Author     string
	CreatedAt  string
	UpdatedAt  string
	Raw        json.RawMessage
}

// ReviewStatus is the result of a review lookup. Authenticated is false
// when the provider has no usable credentials.
type ReviewStatus struct {
	Authenticated bool
	Items         []ReviewRequest
}

// ReviewLister defines the interface for pending review requests
type ReviewLister interface {
	ListReviewRequests(ctx context.Context) (*ReviewStatus, error)
}
