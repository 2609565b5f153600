package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"esilogis/internal/bootstrap"
	"esilogis/internal/bootstrap/logging"
	"esilogis/internal/errs"
	"esilogis/internal/usecase/auth"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage user accounts",
}

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user account, optionally with a person profile",
	RunE: withApp(func(cmd *cobra.Command, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		role, _ := cmd.Flags().GetString("role")
		firstName, _ := cmd.Flags().GetString("first-name")
		lastName, _ := cmd.Flags().GetString("last-name")
		phone, _ := cmd.Flags().GetString("phone")
		noPerson, _ := cmd.Flags().GetBool("no-person")

		account, err := svc.Auth.CreateAccount(ctx, auth.CreateAccountInput{
			Email:      email,
			Password:   password,
			Role:       role,
			FirstName:  firstName,
			LastName:   lastName,
			Phone:      phone,
			WithPerson: !noPerson,
		})
		if err != nil {
			logging.Error(ctx, "create account failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "create account")
		}

		personID := "-"
		if !noPerson {
			person, err := svc.Identity.PersonForAccount(ctx, account.ID)
			if err != nil {
				return errs.Wrap(err, "load person profile")
			}
			personID = fmt.Sprintf("%d", person.ID)
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "created account: id=%d email=%s role=%s person=%s\n", account.ID, account.Email, account.Role, personID); err != nil {
			return errs.Wrap(err, "write account output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountCreateCmd)

	accountCreateCmd.Flags().String("email", "", "Login email")
	accountCreateCmd.Flags().String("password", "", "Initial password")
	accountCreateCmd.Flags().String("role", "USER", "ADMIN, TECHNICIAN or USER")
	accountCreateCmd.Flags().String("first-name", "", "Person first name")
	accountCreateCmd.Flags().String("last-name", "", "Person last name")
	accountCreateCmd.Flags().String("phone", "", "Person phone number")
	accountCreateCmd.Flags().Bool("no-person", false, "Do not create a person profile")
	_ = accountCreateCmd.MarkFlagRequired("email")
	_ = accountCreateCmd.MarkFlagRequired("password")
}
