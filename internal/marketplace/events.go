package marketplace

import (
	"context"
	"time"
)

type EventType string

const (
	EventRequestCreated      EventType = "request.created"
	EventInterestRecorded    EventType = "interest.recorded"
	EventInspectionPending   EventType = "request.inspection_pending"
	EventRequestReopened     EventType = "request.reopened"
	EventInspectionScheduled EventType = "inspection.scheduled"
	EventBiddingOpened       EventType = "bidding.opened"
	EventBiddingClosed       EventType = "bidding.closed"
	EventBidSubmitted        EventType = "bid.submitted"
	EventBidWithdrawn        EventType = "bid.withdrawn"
	EventContractorSelected  EventType = "contractor.selected"
	EventRequestCompleted    EventType = "request.completed"
	EventRequestClosed       EventType = "request.closed"
)

// Event describes a committed change. Recipients are account ids.
type Event struct {
	Type       EventType         `json:"type"`
	RequestID  int64             `json:"requestId"`
	BidID      int64             `json:"bidId,omitempty"`
	Recipients []int64           `json:"recipients"`
	Data       map[string]string `json:"data,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// Notifier receives events after commit. Notify must not block and its
// failures are never reported back.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) {}
