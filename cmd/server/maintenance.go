package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fitlog/internal/db"
	"github.com/fitlog/internal/userdata"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	migrateEmail string
	resetEmail   string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy pre-account global data into a user's namespace",
	Long: `Copy data written before accounts existed into the namespace of the given user.

Only the first user ever migrated receives the data; later runs are no-ops.`,
	RunE: runMigrate,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete stored user data",
	Long: `Delete one user's namespaced data with --email, or every user's data,
the legacy global keys and all per-day records when --email is omitted.`,
	RunE: runReset,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateEmail, "email", "", "identity that receives the legacy data")
	_ = migrateCmd.MarkFlagRequired("email")
	resetCmd.Flags().StringVar(&resetEmail, "email", "", "only clear this identity's data")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	env, err := bootstrap()
	if err != nil {
		return err
	}
	defer env.logger.Sync() //nolint:errcheck

	result, err := userdata.MigrateLegacyData(env.store, db.NormalizeEmail(migrateEmail), time.Now(), env.logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch result.Status {
	case userdata.MigrationApplied:
		fmt.Fprintf(out, "migrated %d keys to %s: %s\n", len(result.CopiedKeys), result.Owner, strings.Join(result.CopiedKeys, ", "))
	case userdata.MigrationAlreadyDone:
		fmt.Fprintf(out, "legacy data was already migrated to %s\n", result.Owner)
	default:
		fmt.Fprintln(out, "no legacy data to migrate")
	}
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	env, err := bootstrap()
	if err != nil {
		return err
	}
	defer env.logger.Sync() //nolint:errcheck

	var removed int
	if email := db.NormalizeEmail(resetEmail); email != "" {
		removed, err = userdata.ClearUser(env.store, email)
	} else {
		removed, err = userdata.ClearAll(env.store)
	}
	if err != nil {
		return fmt.Errorf("reset user data: %w", err)
	}

	env.logger.Info("user data cleared", zap.String("identity", resetEmail), zap.Int("keys", removed))
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d keys\n", removed)
	return nil
}
