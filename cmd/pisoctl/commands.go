package main

import (
	"context"
	"fmt"
	"time"

	"room_rental/internal/config"
	"room_rental/internal/db"
	"room_rental/internal/service"
	"room_rental/internal/utils"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// connect loads the configuration and opens the database.
func connect() (*config.Config, *gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gdb, nil
}

func HashPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash of a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cost, _ := cmd.Flags().GetInt("cost")
			if cost < config.MinBcryptCost {
				return fmt.Errorf("cost must be at least %d", config.MinBcryptCost)
			}
			hash, err := utils.HashPassword(args[0], cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().Int("cost", 10, "bcrypt cost factor")
	return cmd
}

func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gdb, err := connect()
			if err != nil {
				return err
			}
			return db.Migrate(gdb)
		},
	}
}

func SeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo dataset into an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gdb, err := connect()
			if err != nil {
				return err
			}
			if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
				if err := db.Migrate(gdb); err != nil {
					return err
				}
			}
			if err := db.Seed(gdb, cfg.BcryptCost); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "demo accounts use password %q\n", db.SeedPassword)
			return nil
		},
	}
	cmd.Flags().Bool("migrate", false, "run the migration first")
	return cmd
}

func CreateAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin <email> <password>",
		Short: "Create an admin account or promote an existing one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gdb, err := connect()
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("name")
			svc := service.New(gdb, cfg)
			user, err := svc.BootstrapAdmin(cmd.Context(), service.RegisterInput{Name: name, Email: args[0], Password: args[1]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s (id %d) ready\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().String("name", "Admin", "display name for a new account")
	return cmd
}

func PingDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping-db",
		Short: "Check that the configured database answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gdb, err := connect()
			if err != nil {
				return err
			}
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := sqlDB.PingContext(ctx); err != nil {
				return fmt.Errorf("ping %s: %w", cfg.DBDriver, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s ok\n", cfg.DBDriver)
			return nil
		},
	}
}
