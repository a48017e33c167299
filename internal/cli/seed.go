package cli

import (
	"fmt"

	"github.com/parisxmas/OxiEnroll/internal/seed"
	"github.com/parisxmas/OxiEnroll/internal/service"
	"github.com/spf13/cobra"
)

func newSeedCmd(configPath *string) *cobra.Command {
	var (
		force      bool
		resetAdmin bool
		file       string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the initial enrollment configuration and admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			if file == "" {
				file = a.cfg.SeedFile
			}
			cfg, err := seed.Load(file)
			if err != nil {
				return err
			}
			if err := a.ensureIndexes(ctx); err != nil {
				return err
			}

			created, err := service.NewConfigService(a.configRepo, a.log).Seed(ctx, cfg, force)
			if err != nil {
				return fmt.Errorf("seed configuration: %w", err)
			}
			if err := a.authService().SeedAdmin(ctx, a.cfg.AdminUser, a.cfg.AdminPass); err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
			if resetAdmin {
				if err := a.authService().ResetPassword(ctx, a.cfg.AdminUser, a.cfg.AdminPass); err != nil {
					return fmt.Errorf("reset admin password: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			if created {
				fmt.Fprintln(out, "configuration seeded")
			} else {
				fmt.Fprintln(out, "configuration already present (use --force to overwrite)")
			}
			fmt.Fprintf(out, "admin account %q ready\n", a.cfg.AdminUser)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration")
	cmd.Flags().BoolVar(&resetAdmin, "reset-admin", false, "set the admin password to the configured one")
	cmd.Flags().StringVar(&file, "file", "", "JSONC seed file (default: built-in)")
	return cmd
}
