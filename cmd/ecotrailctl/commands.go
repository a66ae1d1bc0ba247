package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ecotrail/ecotrail/internal/eco"
	"github.com/ecotrail/ecotrail/shared/envconfig"
)

type options struct {
	plain bool
}

func (o *options) printer() printer {
	return printer{styled: !o.plain}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "ecotrailctl",
		Short:         "Operator tooling for the EcoTrail eco actions catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	stdout := os.Stdout.Fd()
	root.PersistentFlags().BoolVar(&opts.plain, "plain", !isatty.IsTerminal(stdout) && !isatty.IsCygwinTerminal(stdout), "Disable colors")
	root.AddCommand(newCatalogCmd(opts), newSimulateCmd(opts))
	return root
}

func newCatalogCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and validate action catalogs",
	}
	cmd.AddCommand(newCatalogValidateCmd(), newCatalogShowCmd(opts))
	return cmd
}

func newCatalogValidateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a catalog file and list every problem found",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := eco.LoadCatalogFile(file)
			if err != nil {
				var cfgErr *eco.ConfigurationError
				if errors.As(err, &cfgErr) {
					for _, p := range cfgErr.Problems {
						fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", p)
					}
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "catalog OK: %d actions, %d badges\n", len(c.Actions()), len(c.Badges()))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Catalog YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newCatalogShowCmd(opts *options) *cobra.Command {
	var file string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the actions and badges of a catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := eco.LoadCatalogFile(catalogPath(file))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, map[string]any{"actions": c.Actions(), "badges": c.Badges()})
			}
			_, err = io.WriteString(out, opts.printer().catalog(c))
			return err
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Catalog YAML file (defaults to ECO_CATALOG_FILE or the bundled catalog)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newSimulateCmd(opts *options) *cobra.Command {
	var (
		file      string
		dbPath    string
		sessionID string
		submits   []string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run action submissions through the scoring engine",
		Example: `  ecotrailctl simulate --submit picked_up_trash,stayed_on_trail --submit educated_someone
  ecotrailctl simulate --db ./eco.db --session demo --submit reported_issue`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := eco.LoadCatalogFile(catalogPath(file))
			if err != nil {
				return err
			}

			var regOpts []eco.RegistryOption
			if dbPath != "" {
				db, err := eco.OpenSQLite(dbPath)
				if err != nil {
					return err
				}
				defer db.Close()
				regOpts = append(regOpts, eco.WithStore(eco.NewSQLiteStore(db, nil)))
			}
			registry := eco.NewRegistry(c, regOpts...)

			ctx := context.Background()
			key := eco.SessionKey{UserID: "ecotrailctl", SessionID: sessionID}
			out := cmd.OutOrStdout()

			for i, batch := range submits {
				result, err := registry.Submit(ctx, key, splitIDs(batch))
				if err != nil {
					return fmt.Errorf("submission %d: %w", i+1, err)
				}
				if asJSON {
					if err := writeJSON(out, result); err != nil {
						return err
					}
					continue
				}
				if _, err := io.WriteString(out, opts.printer().result(i+1, result)); err != nil {
					return err
				}
			}

			progress, err := registry.Progress(ctx, key)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, progress)
			}
			fmt.Fprintf(out, "total=%d badges=[%s]\n", progress.TotalPoints, strings.Join(progress.EarnedBadges, ", "))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Catalog YAML file (defaults to ECO_CATALOG_FILE or the bundled catalog)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite file to persist progress across runs")
	cmd.Flags().StringVar(&sessionID, "session", "simulation", "Session id")
	cmd.Flags().StringArrayVar(&submits, "submit", nil, "Comma separated action ids; repeat for several submissions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func splitIDs(batch string) []string {
	var ids []string
	for _, id := range strings.Split(batch, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func catalogPath(flag string) string {
	if flag != "" {
		return flag
	}
	return envconfig.Get("ECO_CATALOG_FILE", "")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
