package intervention

import (
	"strings"

	"esilogis/internal/errs"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusApproved   Status = "APPROVED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusPaused     Status = "PAUSED"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusDenied     Status = "DENIED"
)

var allStatuses = []Status{
	StatusPending,
	StatusApproved,
	StatusInProgress,
	StatusPaused,
	StatusCompleted,
	StatusCancelled,
	StatusDenied,
}

// Statuses returns the closed status set in lifecycle order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

type Type string

const (
	TypeCorrective Type = "CORRECTIVE"
	TypePreventive Type = "PREVENTIVE"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleTechnician Role = "TECHNICIAN"
	RoleUser       Role = "USER"
)

type EquipmentStatus string

const (
	EquipmentInService        EquipmentStatus = "IN_SERVICE"
	EquipmentOutOfService     EquipmentStatus = "OUT_OF_SERVICE"
	EquipmentUnderMaintenance EquipmentStatus = "UNDER_MAINTENANCE"
)

func ParseStatus(raw string) (Status, error) {
	v := Status(normalizeEnum(raw))
	for _, s := range allStatuses {
		if s == v {
			return v, nil
		}
	}
	return "", errs.Validation("invalid status %q", raw)
}

func ParseType(raw string) (Type, error) {
	switch v := Type(normalizeEnum(raw)); v {
	case TypeCorrective, TypePreventive:
		return v, nil
	}
	return "", errs.Validation("invalid intervention type %q", raw)
}

// ParsePriority returns PriorityMedium for an empty value.
func ParsePriority(raw string) (Priority, error) {
	if strings.TrimSpace(raw) == "" {
		return PriorityMedium, nil
	}
	switch v := Priority(normalizeEnum(raw)); v {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return v, nil
	}
	return "", errs.Validation("invalid priority %q", raw)
}

func ParseRole(raw string) (Role, error) {
	switch v := Role(normalizeEnum(raw)); v {
	case RoleAdmin, RoleTechnician, RoleUser:
		return v, nil
	}
	return "", errs.Validation("invalid role %q", raw)
}

func ParseEquipmentStatus(raw string) (EquipmentStatus, error) {
	switch v := EquipmentStatus(normalizeEnum(raw)); v {
	case EquipmentInService, EquipmentOutOfService, EquipmentUnderMaintenance:
		return v, nil
	}
	return "", errs.Validation("invalid equipment status %q", raw)
}

func normalizeEnum(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
