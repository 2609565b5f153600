package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"esilogis/internal/bootstrap"
	"esilogis/internal/bootstrap/logging"
	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
	"esilogis/internal/ports"
)

var locationCmd = &cobra.Command{
	Use:   "location",
	Short: "Manage locations",
}

var locationCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a location",
	RunE: withApp(func(cmd *cobra.Command, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")
		name = strings.TrimSpace(name)
		if name == "" {
			return errs.Validation("name is required")
		}

		location, err := svc.Assets.CreateLocation(ctx, ports.Location{Name: name, Description: strings.TrimSpace(description)})
		if err != nil {
			logging.Error(ctx, "create location failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "create location")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "created location: id=%d name=%s\n", location.ID, location.Name); err != nil {
			return errs.Wrap(err, "write location output")
		}
		return nil
	}),
}

var equipmentCmd = &cobra.Command{
	Use:   "equipment",
	Short: "Manage equipment",
}

var equipmentCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a piece of equipment",
	RunE: withApp(func(cmd *cobra.Command, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		name, _ := cmd.Flags().GetString("name")
		code, _ := cmd.Flags().GetString("code")
		locationID, _ := cmd.Flags().GetUint64("location")
		rawStatus, _ := cmd.Flags().GetString("status")

		name = strings.TrimSpace(name)
		if name == "" {
			return errs.Validation("name is required")
		}
		status, err := domain.ParseEquipmentStatus(rawStatus)
		if err != nil {
			return err
		}

		equipment := ports.Equipment{
			Name:          name,
			InventoryCode: strings.TrimSpace(code),
			Status:        status,
		}
		if locationID != 0 {
			if _, err := svc.Assets.GetLocation(ctx, locationID); err != nil {
				return errs.Wrap(err, "check location")
			}
			equipment.LocationID = &locationID
		}

		created, err := svc.Assets.CreateEquipment(ctx, equipment)
		if err != nil {
			logging.Error(ctx, "create equipment failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "create equipment")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "created equipment: id=%d name=%s status=%s\n", created.ID, created.Name, created.Status); err != nil {
			return errs.Wrap(err, "write equipment output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(locationCmd)
	rootCmd.AddCommand(equipmentCmd)
	locationCmd.AddCommand(locationCreateCmd)
	equipmentCmd.AddCommand(equipmentCreateCmd)

	locationCreateCmd.Flags().String("name", "", "Location name")
	locationCreateCmd.Flags().String("description", "", "Location description")
	_ = locationCreateCmd.MarkFlagRequired("name")

	equipmentCreateCmd.Flags().String("name", "", "Equipment name")
	equipmentCreateCmd.Flags().String("code", "", "Inventory code")
	equipmentCreateCmd.Flags().Uint64("location", 0, "Location id")
	equipmentCreateCmd.Flags().String("status", string(domain.EquipmentInService), "IN_SERVICE, OUT_OF_SERVICE or UNDER_MAINTENANCE")
	_ = equipmentCreateCmd.MarkFlagRequired("name")
}
