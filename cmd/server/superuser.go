package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/iliyamo/gusto-eats/internal/config"
	"github.com/iliyamo/gusto-eats/internal/database"
	"github.com/iliyamo/gusto-eats/internal/repository"
	"github.com/iliyamo/gusto-eats/internal/utils"
)

func newSuperuserCommand() *cobra.Command {
	var phone, password string
	cmd := &cobra.Command{
		Use:   "superuser",
		Short: "Create the administrator account",
		Long:  "Create a staff superuser.  Phone and password default to SUPERUSER_PHONE and SUPERUSER_PASSWORD.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if phone == "" {
				phone = cfg.SuperuserPhone
			}
			if password == "" {
				password = cfg.SuperuserPassword
			}
			phone = utils.NormalizePhone(phone)
			if !utils.ValidPhone(phone) {
				return errors.New("phone number must be 998 followed by nine digits")
			}
			if !utils.StrongPassword(password) {
				return errors.New("password needs at least 6 characters with upper, lower case and a digit")
			}

			db, err := database.Open(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			u, err := repository.NewUserRepo(db).Create(cmd.Context(), repository.NewUser{
				PhoneNumber: phone,
				Password:    password,
				IsStaff:     true,
				IsSuperuser: true,
			}, cfg.BcryptCost)
			if err != nil {
				return err
			}
			newLogger("superuser", cfg).Infof("superuser %d created for %s", u.ID, u.PhoneNumber)
			return nil
		},
	}
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number (998xxxxxxxxx)")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	return cmd
}
