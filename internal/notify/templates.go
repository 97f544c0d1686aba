package notify

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/mingunC/renovationPlatform-sub000/internal/marketplace"
)

type messageTemplate struct {
	subject *template.Template
	body    *template.Template
}

// Templates renders one subject/body pair per event type.
type Templates struct {
	byType map[marketplace.EventType]messageTemplate
}

var defaultMessages = map[marketplace.EventType][2]string{
	marketplace.EventRequestCreated: {
		"Your renovation request #{{.RequestID}} is live",
		"We posted your {{index .Data \"category\"}} request. Contractors near {{index .Data \"postalCode\"}} can now register for a site inspection.",
	},
	marketplace.EventInterestRecorded: {
		"Contractor update on request #{{.RequestID}}",
		"{{if eq (index .Data \"willParticipate\") \"true\"}}A contractor will attend{{else}}A contractor will not attend{{end}} the inspection of request #{{.RequestID}}.",
	},
	marketplace.EventInspectionPending: {
		"Request #{{.RequestID}} is waiting for an inspection date",
		"Contractors are interested in request #{{.RequestID}}. An inspection date will be set shortly.",
	},
	marketplace.EventRequestReopened: {
		"Request #{{.RequestID}} is open again",
		"All contractors withdrew from the inspection of request #{{.RequestID}}. It is visible to contractors again.",
	},
	marketplace.EventInspectionScheduled: {
		"Inspection scheduled for request #{{.RequestID}}",
		"The site inspection is set for {{index .Data \"inspectionDate\"}}.{{with index .Data \"notes\"}} Notes: {{.}}{{end}}",
	},
	marketplace.EventBiddingOpened: {
		"Bidding is open on request #{{.RequestID}}",
		"Submit your quote before {{index .Data \"biddingEndDate\"}}.",
	},
	marketplace.EventBiddingClosed: {
		"Bidding closed on request #{{.RequestID}}",
		"Bidding has closed with {{index .Data \"bids\"}} bid(s). The customer will now choose a contractor.",
	},
	marketplace.EventBidSubmitted: {
		"New bid on request #{{.RequestID}}",
		"A contractor {{if eq (index .Data \"revised\") \"true\"}}revised their{{else}}submitted a{{end}} bid of ${{index .Data \"totalAmount\"}}.",
	},
	marketplace.EventBidWithdrawn: {
		"A bid was withdrawn from request #{{.RequestID}}",
		"Bid #{{.BidID}} is no longer available.",
	},
	marketplace.EventContractorSelected: {
		"A contractor was selected for request #{{.RequestID}}",
		"Bid #{{.BidID}} (${{index .Data \"totalAmount\"}}) was accepted. All other bids were declined.",
	},
	marketplace.EventRequestCompleted: {
		"Request #{{.RequestID}} is complete",
		"The renovation work for request #{{.RequestID}} has been marked as finished.",
	},
	marketplace.EventRequestClosed: {
		"Request #{{.RequestID}} was closed",
		"Request #{{.RequestID}} is closed.{{with index .Data \"reason\"}} Reason: {{.}}{{end}}",
	},
}

// DefaultTemplates parses the built-in plain-text messages.
func DefaultTemplates() *Templates {
	t := &Templates{byType: make(map[marketplace.EventType]messageTemplate, len(defaultMessages))}
	for eventType, parts := range defaultMessages {
		t.byType[eventType] = messageTemplate{
			subject: template.Must(template.New(string(eventType) + ".subject").Parse(parts[0])),
			body:    template.Must(template.New(string(eventType) + ".body").Parse(parts[1])),
		}
	}
	return t
}

func (t *Templates) Render(e marketplace.Event, to string) (Message, error) {
	mt, ok := t.byType[e.Type]
	if !ok {
		return Message{}, fmt.Errorf("no template for event %q", e.Type)
	}
	if e.Data == nil {
		e.Data = map[string]string{}
	}

	var subject, body bytes.Buffer
	if err := mt.subject.Execute(&subject, e); err != nil {
		return Message{}, fmt.Errorf("render subject for %q: %w", e.Type, err)
	}
	if err := mt.body.Execute(&body, e); err != nil {
		return Message{}, fmt.Errorf("render body for %q: %w", e.Type, err)
	}
	return Message{To: to, Subject: strings.TrimSpace(subject.String()), Body: body.String()}, nil
}
