package main

import (
	"fmt"

	"github.com/example/go-ipatok/internal/doctor"
	"github.com/example/go-ipatok/internal/inventory"
	"github.com/example/go-ipatok/internal/server"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	var (
		require []string
		addr    string
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run inventory preflight checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if cfg.Tokenize.Language != "" {
				require = append(require, cfg.Tokenize.Language)
			}

			dcfg := doctor.Config{
				Source:  inventorySource(cfg),
				Load:    func() (*inventory.Index, error) { return loadIndex(cfg) },
				Require: require,
			}
			if addr != "" {
				dcfg.ServerDigest = func() (string, error) { return server.ProbeHTTP(addr) }
			}

			result := doctor.Run(dcfg, cmd.OutOrStdout())
			if result.Failed() {
				return fmt.Errorf("doctor found %d issue(s)", len(result.Failures()))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&require, "require", nil, "Language ids that must be present")
	cmd.Flags().StringVar(&addr, "addr", "", "Also compare against the digest of the server at this address")

	return cmd
}
