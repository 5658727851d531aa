package leavetype

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/common/amount"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
	leavetypeDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leavetype"
)

var (
	MaxAccrualRate = decimal.RequireFromString("31.00")
	monthsPerYear  = decimal.NewFromInt(12)
)

type LeaveType struct {
	ID                    int64            `json:"id"`
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
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// Validate checks field ranges and the cross-field configuration rules.
func (lt *LeaveType) Validate() error {
	v := validation.NewValidator()
	v.Field("name", lt.Name).Required().MaxLength(100)
	v.Field("max_duration", lt.MaxDuration).PositiveInt()
	v.Field("accrual_rate", lt.AccrualRate).NonNegativeDecimal().MaxDecimal(MaxAccrualRate).Digits(2, amount.Scale)
	v.Field("carry_forward_cap", lt.CarryForwardCap).NonNegativeDecimal().Digits(3, amount.Scale)

	hasRate := lt.AccrualRate != nil && lt.AccrualRate.IsPositive()
	v.Rule(lt.AccrualBased == hasRate, "accrual_rate",
		"accrual rate must be set and positive exactly when the type is accrual based", internal.ErrCodeValidationFailed)

	hasCap := lt.CarryForwardCap != nil && lt.CarryForwardCap.IsPositive()
	v.Rule(lt.IsCarryForwardEnabled == hasCap, "carry_forward_cap",
		"carry forward cap must be set and positive exactly when carry forward is enabled", internal.ErrCodeValidationFailed)

	if hasRate && lt.MaxDuration != nil {
		yearly := lt.AccrualRate.Mul(monthsPerYear)
		v.Rule(yearly.LessThanOrEqual(amount.FromInt(*lt.MaxDuration)), "accrual_rate",
			"yearly accrual must not exceed max duration", internal.ErrCodeValidationFailed)
	}

	v.Rule(!lt.IsDefault || lt.IsEnabled, "is_enabled",
		"default leave types must stay enabled", internal.ErrCodeDefaultTypeDisabled)

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func (lt *LeaveType) IsEligibleForAccrual() bool {
	return lt.AccrualBased && lt.AccrualRate != nil && lt.AccrualRate.IsPositive()
}

func (lt *LeaveType) IsEligibleForCarryForward() bool {
	return lt.IsCarryForwardEnabled && lt.CarryForwardCap != nil && lt.CarryForwardCap.IsPositive()
}

// MonthlyRate is zero for types that do not accrue.
func (lt *LeaveType) MonthlyRate() decimal.Decimal {
	if !lt.IsEligibleForAccrual() {
		return decimal.Zero
	}
	return *lt.AccrualRate
}

func ToDataModel(lt *LeaveType) *leavetypeDatamodel.LeaveType {
	return &leavetypeDatamodel.LeaveType{
		ID:                    lt.ID,
		Name:                  lt.Name,
		IsDefault:             lt.IsDefault,
		IsEnabled:             lt.IsEnabled,
		MaxDuration:           lt.MaxDuration,
		Paid:                  lt.Paid,
		AccrualBased:          lt.AccrualBased,
		AccrualRate:           amount.Nullable(lt.AccrualRate),
		IsCarryForwardEnabled: lt.IsCarryForwardEnabled,
		CarryForwardCap:       amount.Nullable(lt.CarryForwardCap),
		RequireReason:         lt.RequireReason,
		RequireDocument:       lt.RequireDocument,
		CreatedAt:             lt.CreatedAt,
		UpdatedAt:             lt.UpdatedAt,
	}
}

func FromDataModel(lt *leavetypeDatamodel.LeaveType) *LeaveType {
	if lt == nil {
		return nil
	}
	return &LeaveType{
		ID:                    lt.ID,
		Name:                  lt.Name,
		IsDefault:             lt.IsDefault,
		IsEnabled:             lt.IsEnabled,
		MaxDuration:           lt.MaxDuration,
		Paid:                  lt.Paid,
		AccrualBased:          lt.AccrualBased,
		AccrualRate:           amount.FromNullable(lt.AccrualRate),
		IsCarryForwardEnabled: lt.IsCarryForwardEnabled,
		CarryForwardCap:       amount.FromNullable(lt.CarryForwardCap),
		RequireReason:         lt.RequireReason,
		RequireDocument:       lt.RequireDocument,
		CreatedAt:             lt.CreatedAt,
		UpdatedAt:             lt.UpdatedAt,
	}
}

func FromDataModelSlice(types []*leavetypeDatamodel.LeaveType) []*LeaveType {
	result := make([]*LeaveType, len(types))
	for i, lt := range types {
		result[i] = FromDataModel(lt)
	}
	return result
}
