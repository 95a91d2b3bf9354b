package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/sora/mas"
	"github.com/rustyeddy/sora/store"
	"github.com/rustyeddy/sora/syncer"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Catch the local store up against the MAS API",
	Long: `Run one sync attempt: probe the newest date on both sides, fetch any
gap page by page, validate, and append in a single transaction.

A store that is already current is left untouched.

Examples:
  sora sync
  sora sync -d ./sora.db -v`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.New(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	client := mas.NewClient(cfg.API.Endpoint, cfg.API.ResourceID, cfg.API.Timeout())
	orch := syncer.New(client, st, syncer.Options{
		PageSize:    cfg.Sync.PageSize,
		MaxAttempts: cfg.Sync.MaxAttempts,
		Backoff:     cfg.Sync.Backoff(),
	}, newLogger())

	rep, err := orch.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("sync %s: %w", rep.RunID, err)
	}

	if rep.UpToDate {
		fmt.Printf("run %s: store already current\n", rep.RunID)
		return nil
	}
	fmt.Printf("run %s: fetched %d, dropped %d, appended %d\n",
		rep.RunID, rep.Fetched, rep.Dropped, rep.Appended)
	return nil
}
