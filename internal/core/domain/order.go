package domain

import (
	"time"

	apperrors "github.com/novatech/repair-desk-backend/internal/core/errors"
)

// Field length limits enforced at the domain level.
const (
	MaxSubjectLength  = 255
	MaxNameLength     = 255
	MaxFreeTextLength = 5000
)

// OrderStatus represents the lifecycle state of a repair order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusInProgress OrderStatus = "in-progress"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

// ValidStatuses lists every accepted order status value.
var ValidStatuses = []OrderStatus{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

// IsValid reports whether the status is one of the accepted values.
func (s OrderStatus) IsValid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// RepairOrder is the core domain entity. OrderNo and CreatedAt are immutable
// after creation; LastModifiedAt moves forward on every successful mutation.
type RepairOrder struct {
	OrderNo            string
	Subject            string
	DeviceName         string
	Department         string
	ReportedBy         string
	Status             OrderStatus
	Items              string
	RootCause          string
	Action             string
	AssignedTechnician string
	Notes              string
	CreatedAt          time.Time
	LastModifiedAt     time.Time
}

// OrderParams holds the required input for creating a repair order.
type OrderParams struct {
	Subject    string
	DeviceName string
	Department string
	ReportedBy string
	Items      string
	Notes      string
}

// NewRepairOrder is a factory function to create a valid new repair order.
// OrderNo is assigned by the persistence layer.
func NewRepairOrder(params OrderParams) (*RepairOrder, error) {
	if params.Subject == "" {
		return nil, apperrors.ErrSubjectRequired
	}
	if len(params.Subject) > MaxSubjectLength {
		return nil, apperrors.ErrSubjectTooLong
	}
	if params.DeviceName == "" {
		return nil, apperrors.ErrDeviceNameRequired
	}
	if params.Department == "" {
		return nil, apperrors.ErrDepartmentRequired
	}
	if params.ReportedBy == "" {
		return nil, apperrors.ErrReporterRequired
	}

	now := time.Now().UTC()
	return &RepairOrder{
		Subject:        params.Subject,
		DeviceName:     params.DeviceName,
		Department:     params.Department,
		ReportedBy:     params.ReportedBy,
		Items:          params.Items,
		Notes:          params.Notes,
		Status:         StatusPending,
		CreatedAt:      now,
		LastModifiedAt: now,
	}, nil
}

// OrderUpdate carries the partial fields of an update. Nil pointers leave the
// corresponding field untouched.
type OrderUpdate struct {
	Subject            *string
	DeviceName         *string
	Department         *string
	ReportedBy         *string
	Status             *OrderStatus
	Items              *string
	RootCause          *string
	Action             *string
	AssignedTechnician *string
	Notes              *string
}

// Apply mutates the order with the non-nil fields of the update and bumps
// LastModifiedAt. The LastModifiedAt >= CreatedAt invariant holds because the
// clock only moves forward from the creation timestamp.
func (o *RepairOrder) Apply(update OrderUpdate) error {
	if update.Subject != nil {
		if *update.Subject == "" {
			return apperrors.ErrSubjectRequired
		}
		if len(*update.Subject) > MaxSubjectLength {
			return apperrors.ErrSubjectTooLong
		}
	}
	if update.Status != nil && !update.Status.IsValid() {
		return apperrors.ErrInvalidStatus
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	setString(&o.Subject, update.Subject)
	setString(&o.DeviceName, update.DeviceName)
	setString(&o.Department, update.Department)
	setString(&o.ReportedBy, update.ReportedBy)
	setString(&o.Items, update.Items)
	setString(&o.RootCause, update.RootCause)
	setString(&o.Action, update.Action)
	setString(&o.AssignedTechnician, update.AssignedTechnician)
	setString(&o.Notes, update.Notes)
	if update.Status != nil {
		o.Status = *update.Status
	}

	o.LastModifiedAt = time.Now().UTC()
	return nil
}
