package seed

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/mealmatch/mealmatch-api/internal/config"
	"github.com/mealmatch/mealmatch-api/internal/database"
	"github.com/mealmatch/mealmatch-api/internal/tools/common"
)

type options struct {
	envFile      string
	demoEmail    string
	demoPassword string
	ci           bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "seed", Short: "Database seed tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().StringVar(&opts.demoEmail, "demo-email", "demo@mealmatch.dev", "demo account email")
	cmd.PersistentFlags().StringVar(&opts.demoPassword, "demo-password", "", "demo account password (required for apply)")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newApplyCommand(opts), newDryRunCommand(opts), newVerifyEmailCommand(opts))
	return cmd
}

func newApplyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Migrate and apply default seed data",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := func() ([]string, error) {
				if opts.demoPassword == "" {
					return nil, fmt.Errorf("--demo-password is required")
				}
				_, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				if err := database.Migrate(db); err != nil {
					return nil, err
				}
				if err := database.Seed(db, opts.demoEmail, opts.demoPassword); err != nil {
					return nil, err
				}
				return []string{
					"ran schema migration",
					"ensured demo account: " + opts.demoEmail,
				}, nil
			}()
			report(opts, "seed apply", details, err)
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func newDryRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run",
		Short: "Show what seeding would do",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := func() ([]string, error) {
				if _, _, err := loadConfigDB(opts.envFile); err != nil {
					return nil, err
				}
				return []string{
					"would migrate users and onboarding_data tables",
					"would ensure demo account if absent: " + opts.demoEmail,
				}, nil
			}()
			report(opts, "seed dry-run", details, err)
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func newVerifyEmailCommand(opts *options) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "verify-email",
		Short: "Mark an account's email as verified",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := func() ([]string, error) {
				email = strings.TrimSpace(strings.ToLower(email))
				if email == "" {
					return nil, fmt.Errorf("email is required")
				}
				_, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				if err := database.MarkEmailVerified(db, email); err != nil {
					return nil, err
				}
				return []string{"marked email verified: " + email}, nil
			}()
			report(opts, "seed verify-email", details, err)
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email to mark verified")
	return cmd
}

func report(opts *options, title string, details []string, err error) {
	if opts.ci {
		common.PrintCIResult(err == nil, title, details, err)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", title, err)
		return
	}
	for _, d := range details {
		fmt.Println(d)
	}
}

func loadConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
