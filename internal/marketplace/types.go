// Package marketplace holds the domain types shared by the job and bid
// stores, the query service and the transports.
package marketplace

import (
	"encoding/json"
	"time"
)

// Buyer is the job owner embedded in every Job.
type Buyer struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name,omitempty"`
	Photo string `json:"photo,omitempty"`
}

// Job is a posted work item.
type Job struct {
	ID          string          `json:"id"`
	Title       string          `json:"title" validate:"required,max=200"`
	Category    string          `json:"category" validate:"required,max=64"`
	Deadline    Date            `json:"deadline"`
	Description string          `json:"description,omitempty"`
	MinPrice    float64         `json:"min_price" validate:"gte=0"`
	MaxPrice    float64         `json:"max_price" validate:"gte=0,gtefield=MinPrice"`
	Buyer       Buyer           `json:"buyer"`
	BidCount    int             `json:"bid_count"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Bid is a bidder's offer against a single Job. At most one Bid exists per
// (Email, JobID).
type Bid struct {
	ID         string          `json:"id"`
	JobID      string          `json:"jobId" validate:"required,uuid"`
	Email      string          `json:"email" validate:"required,email"`
	Category   string          `json:"category,omitempty" validate:"max=64"`
	JobTitle   string          `json:"job_title,omitempty"`
	BuyerEmail string          `json:"buyer_email,omitempty"`
	Price      float64         `json:"price" validate:"gte=0"`
	Comment    string          `json:"comment,omitempty" validate:"max=2000"`
	Deadline   *Date           `json:"deadline,omitempty"`
	Status     BidStatus       `json:"status"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// BidResult reports the outcome of placing a bid: either the id of the new
// bid or Duplicate when the bidder already bid on the job.
type BidResult struct {
	ID        string
	Duplicate bool
}

// UpsertResult reports the id written and whether the row was newly created.
type UpsertResult struct {
	ID      string `json:"upsertedId"`
	Created bool   `json:"created"`
}

// Identity is the verified caller carried by a session token.
type Identity struct {
	Email string `json:"email"`
}

// SortOrder orders search results by deadline.
type SortOrder string

const (
	SortNatural SortOrder = ""
	SortAsc     SortOrder = "asc"
	SortDesc    SortOrder = "desc"
)

// Filter narrows job searches and counts.
type Filter struct {
	Category string
	Text     string
}

// Window is a resolved offset/limit pair.
type Window struct {
	Offset int
	Limit  int
}

// SearchParams are the raw inputs of a paginated job search. Page is
// 1-based.
type SearchParams struct {
	Page   int
	Size   int
	Filter Filter
	Sort   string
}
