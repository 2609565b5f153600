package repository

import (
	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/infrastructure/persistence/model"
	"esilogis/internal/ports"
)

func mapIntervention(row model.Intervention) ports.Intervention {
	out := ports.Intervention{
		ID:                 row.ID,
		Description:        row.Description,
		Type:               domain.Type(row.Type),
		Status:             domain.Status(row.Status),
		Priority:           domain.Priority(row.Priority),
		IsRecurring:        row.IsRecurring,
		RecurrenceInterval: row.RecurrenceInterval,
		PlannedAt:          row.PlannedAt,
		ResolutionSummary:  row.ResolutionSummary,
		PartsUsed:          row.PartsUsed,
		LocationID:         row.LocationID,
		EquipmentID:        row.EquipmentID,
		ReportedByID:       row.ReportedByID,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
		ApprovedAt:         row.ApprovedAt,
		CancelledAt:        row.CancelledAt,
		DeniedAt:           row.DeniedAt,
		ResolvedAt:         row.ResolvedAt,
	}

	if row.Location != nil {
		location := mapLocation(*row.Location)
		out.Location = &location
	}
	if row.Equipment != nil {
		equipment := mapEquipment(*row.Equipment)
		out.Equipment = &equipment
	}
	if row.ReportedBy != nil {
		account := mapAccount(*row.ReportedBy)
		out.ReportedBy = &account
	}
	for _, assignment := range row.Assignments {
		if assignment.Person != nil {
			out.Assignees = append(out.Assignees, mapPerson(*assignment.Person))
		}
	}
	for _, entry := range row.History {
		out.History = append(out.History, mapHistory(entry))
	}
	for _, pause := range row.Pauses {
		out.Pauses = append(out.Pauses, mapPause(pause))
	}
	return out
}

func mapPause(row model.Pause) ports.Pause {
	return ports.Pause{
		ID:             row.ID,
		InterventionID: row.InterventionID,
		PausedAt:       row.PausedAt,
		ResumedAt:      row.ResumedAt,
	}
}

func mapHistory(row model.InterventionHistory) ports.HistoryEntry {
	return ports.HistoryEntry{
		ID:             row.ID,
		InterventionID: row.InterventionID,
		Action:         row.Action,
		Notes:          row.Notes,
		PartsUsed:      row.PartsUsed,
		LoggedByID:     row.LoggedByID,
		UserAccountID:  row.UserAccountID,
		LoggedAt:       row.LoggedAt,
	}
}

func mapAccount(row model.UserAccount) ports.UserAccount {
	return ports.UserAccount{
		ID:           row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Role:         domain.Role(row.Role),
		IsBlocked:    row.IsBlocked,
		CreatedAt:    row.CreatedAt,
	}
}

func mapPerson(row model.Person) ports.Person {
	out := ports.Person{
		ID:            row.ID,
		UserAccountID: row.UserAccountID,
		FirstName:     row.FirstName,
		LastName:      row.LastName,
		Phone:         row.Phone,
	}
	if row.UserAccount != nil {
		out.Email = row.UserAccount.Email
	}
	return out
}

func mapLocation(row model.Location) ports.Location {
	return ports.Location{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
	}
}

func mapEquipment(row model.Equipment) ports.Equipment {
	return ports.Equipment{
		ID:                       row.ID,
		Name:                     row.Name,
		InventoryCode:            row.InventoryCode,
		LocationID:               row.LocationID,
		Status:                   domain.EquipmentStatus(row.Status),
		NextScheduledMaintenance: row.NextScheduledMaintenance,
	}
}

func mapNotification(row model.Notification) ports.Notification {
	return ports.Notification{
		ID:                 row.ID,
		RecipientAccountID: row.RecipientAccountID,
		InterventionID:     row.InterventionID,
		Kind:               row.Kind,
		Message:            row.Message,
		EmailStatus:        row.EmailStatus,
		ReadAt:             row.ReadAt,
		CreatedAt:          row.CreatedAt,
	}
}
