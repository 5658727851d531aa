package leavetype

import "github.com/shopspring/decimal"

type CreateLeaveTypeDTO struct {
	Name                  string           `json:"name"`
	IsDefault             bool             `json:"is_default"`
	IsEnabled             bool             `json:"is_enabled"`
	MaxDuration           *int             `json:"max_duration,omitempty"`
	Paid                  bool             `json:"paid"`
	AccrualBased          bool             `json:"accrual_based"`
	AccrualRate           *decimal.Decimal `json:"accrual_rate,omitempty"`
	IsCarryForwardEnabled bool             `json:"is_carry_forward_enabled"`
	CarryForwardCap       *decimal.Decimal `json:"carry_forward_cap,omitempty"`
	RequireReason         bool             `json:"require_reason"`
	RequireDocument       bool             `json:"require_document"`
}

func (dto CreateLeaveTypeDTO) toLeaveType() *LeaveType {
	return &LeaveType{
		Name:                  dto.Name,
		IsDefault:             dto.IsDefault,
		IsEnabled:             dto.IsEnabled,
		MaxDuration:           dto.MaxDuration,
		Paid:                  dto.Paid,
		AccrualBased:          dto.AccrualBased,
		AccrualRate:           dto.AccrualRate,
		IsCarryForwardEnabled: dto.IsCarryForwardEnabled,
		CarryForwardCap:       dto.CarryForwardCap,
		RequireReason:         dto.RequireReason,
		RequireDocument:       dto.RequireDocument,
	}
}

// UpdateLeaveTypeDTO is a partial update; nil fields keep their current value.
type UpdateLeaveTypeDTO struct {
	Name                  *string          `json:"name,omitempty"`
	IsDefault             *bool            `json:"is_default,omitempty"`
	IsEnabled             *bool            `json:"is_enabled,omitempty"`
	MaxDuration           *int             `json:"max_duration,omitempty"`
	Paid                  *bool            `json:"paid,omitempty"`
	AccrualBased          *bool            `json:"accrual_based,omitempty"`
	AccrualRate           *decimal.Decimal `json:"accrual_rate,omitempty"`
	IsCarryForwardEnabled *bool            `json:"is_carry_forward_enabled,omitempty"`
	CarryForwardCap       *decimal.Decimal `json:"carry_forward_cap,omitempty"`
	RequireReason         *bool            `json:"require_reason,omitempty"`
	RequireDocument       *bool            `json:"require_document,omitempty"`
}

// applyTo merges the non-nil fields. Switching accrual or carry forward off
// without a replacement value also clears the rate or cap.
func (dto UpdateLeaveTypeDTO) applyTo(lt *LeaveType) {
	if dto.Name != nil {
		lt.Name = *dto.Name
	}
	if dto.IsDefault != nil {
		lt.IsDefault = *dto.IsDefault
	}
	if dto.IsEnabled != nil {
		lt.IsEnabled = *dto.IsEnabled
	}
	if dto.MaxDuration != nil {
		lt.MaxDuration = dto.MaxDuration
	}
	if dto.Paid != nil {
		lt.Paid = *dto.Paid
	}
	if dto.AccrualBased != nil {
		lt.AccrualBased = *dto.AccrualBased
		if !lt.AccrualBased && dto.AccrualRate == nil {
			lt.AccrualRate = nil
		}
	}
	if dto.AccrualRate != nil {
		lt.AccrualRate = dto.AccrualRate
	}
	if dto.IsCarryForwardEnabled != nil {
		lt.IsCarryForwardEnabled = *dto.IsCarryForwardEnabled
		if !lt.IsCarryForwardEnabled && dto.CarryForwardCap == nil {
			lt.CarryForwardCap = nil
		}
	}
	if dto.CarryForwardCap != nil {
		lt.CarryForwardCap = dto.CarryForwardCap
	}
	if dto.RequireReason != nil {
		lt.RequireReason = *dto.RequireReason
	}
	if dto.RequireDocument != nil {
		lt.RequireDocument = *dto.RequireDocument
	}
}

type LeaveTypesResponse struct {
	LeaveTypes []*LeaveType `json:"leave_types"`
}
