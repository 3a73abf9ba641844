package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaond/tax2go-search/internal/domain/tenant"
	"github.com/shaond/tax2go-search/internal/index"
	logpkg "github.com/shaond/tax2go-search/internal/logger"
)

// statsOutput mirrors the GET /v1/stats response body.
type statsOutput struct {
	UserID       string `json:"user_id"`
	NumDocuments int    `json:"num_documents"`
}

// newStatsCmd prints a user's document count by opening the data directory directly.
// A user without an index reports zero and no index is created.
// It fails while a server holds the directory lock.
func newStatsCmd(opts *rootOptions) *cobra.Command {
	var user string
	var dataDir string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the document count of a user's index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := tenant.Parse(user)
			if err != nil {
				return fmt.Errorf("--user: %w", err)
			}
			if dataDir == "" {
				cfg, err := opts.load()
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				dataDir = cfg.Storage.DataDir
			}

			manager, err := index.NewManager(index.Config{
				DataDir:  dataDir,
				Redactor: logpkg.NewRedactor("", false),
			})
			if err != nil {
				return fmt.Errorf("open data directory: %w", err)
			}
			defer func() { _ = manager.Close() }()

			out := statsOutput{UserID: id.String()}
			exists, err := manager.HasIndex(id)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			if exists {
				st, err := manager.Stats(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("stats: %w", err)
				}
				out.NumDocuments = st.Documents
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User identity (canonical UUID)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory (defaults to storage.data_dir from config)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
