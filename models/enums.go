package models

import (
	"database/sql/driver"
	"fmt"
)

type RequestStatus string

const (
	StatusOpen                RequestStatus = "OPEN"
	StatusInspectionPending   RequestStatus = "INSPECTION_PENDING"
	StatusInspectionScheduled RequestStatus = "INSPECTION_SCHEDULED"
	StatusBiddingOpen         RequestStatus = "BIDDING_OPEN"
	StatusBiddingClosed       RequestStatus = "BIDDING_CLOSED"
	StatusContractorSelected  RequestStatus = "CONTRACTOR_SELECTED"
	StatusCompleted           RequestStatus = "COMPLETED"
	StatusClosed              RequestStatus = "CLOSED"
)

// RequestStatuses lists every status in lifecycle order.
var RequestStatuses = []RequestStatus{
	StatusOpen,
	StatusInspectionPending,
	StatusInspectionScheduled,
	StatusBiddingOpen,
	StatusBiddingClosed,
	StatusContractorSelected,
	StatusCompleted,
	StatusClosed,
}

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInspectionPending, StatusInspectionScheduled, StatusBiddingOpen,
		StatusBiddingClosed, StatusContractorSelected, StatusCompleted, StatusClosed:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is possible.
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusClosed
}

// Value refuses to write a status outside the enum.
func (s RequestStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid request status %q", string(s))
	}
	return string(s), nil
}

func (s *RequestStatus) Scan(src any) error {
	v, err := scanEnum(src)
	if err != nil {
		return err
	}
	status := RequestStatus(v)
	if !status.Valid() {
		return fmt.Errorf("invalid request status %q", v)
	}
	*s = status
	return nil
}

var statusLabels = map[RequestStatus]string{
	StatusOpen:                "Open for interest",
	StatusInspectionPending:   "Awaiting inspection date",
	StatusInspectionScheduled: "Inspection scheduled",
	StatusBiddingOpen:         "Accepting bids",
	StatusBiddingClosed:       "Bidding closed",
	StatusContractorSelected:  "Contractor selected",
	StatusCompleted:           "Completed",
	StatusClosed:              "Closed",
}

// StatusLabel maps a status to its display label.
func StatusLabel(s RequestStatus) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return "Unknown"
}

type BidStatus string

const (
	BidPending   BidStatus = "PENDING"
	BidAccepted  BidStatus = "ACCEPTED"
	BidRejected  BidStatus = "REJECTED"
	BidWithdrawn BidStatus = "WITHDRAWN"
)

func (s BidStatus) Valid() bool {
	switch s {
	case BidPending, BidAccepted, BidRejected, BidWithdrawn:
		return true
	default:
		return false
	}
}

func (s BidStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid bid status %q", string(s))
	}
	return string(s), nil
}

func (s *BidStatus) Scan(src any) error {
	v, err := scanEnum(src)
	if err != nil {
		return err
	}
	status := BidStatus(v)
	if !status.Valid() {
		return fmt.Errorf("invalid bid status %q", v)
	}
	*s = status
	return nil
}

func scanEnum(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("unsupported enum source %T", src)
	}
}

type Category string

const (
	CategoryKitchen   Category = "kitchen"
	CategoryBathroom  Category = "bathroom"
	CategoryBasement  Category = "basement"
	CategoryRoofing   Category = "roofing"
	CategoryFlooring  Category = "flooring"
	CategoryPainting  Category = "painting"
	CategoryExterior  Category = "exterior"
	CategoryWholeHome Category = "whole_home"
	CategoryOther     Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryKitchen, CategoryBathroom, CategoryBasement, CategoryRoofing, CategoryFlooring,
		CategoryPainting, CategoryExterior, CategoryWholeHome, CategoryOther:
		return true
	default:
		return false
	}
}

type PropertyType string

const (
	PropertyDetached     PropertyType = "detached"
	PropertySemiDetached PropertyType = "semi_detached"
	PropertyTownhouse    PropertyType = "townhouse"
	PropertyCondo        PropertyType = "condo"
	PropertyCommercial   PropertyType = "commercial"
)

func (p PropertyType) Valid() bool {
	switch p {
	case PropertyDetached, PropertySemiDetached, PropertyTownhouse, PropertyCondo, PropertyCommercial:
		return true
	default:
		return false
	}
}

type BudgetRange string

const (
	BudgetUnder10K BudgetRange = "under_10k"
	Budget10To25K  BudgetRange = "10k_25k"
	Budget25To50K  BudgetRange = "25k_50k"
	Budget50To100K BudgetRange = "50k_100k"
	BudgetOver100K BudgetRange = "over_100k"
)

func (b BudgetRange) Valid() bool {
	switch b {
	case BudgetUnder10K, Budget10To25K, Budget25To50K, Budget50To100K, BudgetOver100K:
		return true
	default:
		return false
	}
}

type Timeline string

const (
	TimelineASAP        Timeline = "asap"
	TimelineWithinMonth Timeline = "within_1_month"
	TimelineOneToThree  Timeline = "1_3_months"
	TimelineThreeToSix  Timeline = "3_6_months"
	TimelineFlexible    Timeline = "flexible"
)

func (t Timeline) Valid() bool {
	switch t {
	case TimelineASAP, TimelineWithinMonth, TimelineOneToThree, TimelineThreeToSix, TimelineFlexible:
		return true
	default:
		return false
	}
}
