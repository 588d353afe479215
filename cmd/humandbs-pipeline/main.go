// Command humandbs-pipeline is the thin CLI entrypoint wiring the fetch,
// parse, normalize, structure, facet, icd10, and index stages. CLI argument
// plumbing is explicitly out of scope; this stays deliberately minimal.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dbcls/humandbs-sub002/internal/config"
)

var (
	log        = logrus.New()
	cfgManager *config.Manager
)

var rootCmd = &cobra.Command{
	Use:   "humandbs-pipeline",
	Short: "Ingestion and normalization pipeline for the humandbs-sub002 search corpus",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		m, err := config.NewManager()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		cfgManager = m
		log.SetFormatter(&logrus.JSONFormatter{})
		return nil
	},
}

func main() {
	rootCmd.AddCommand(
		fetchCmd,
		parseCmd,
		normalizeCmd,
		structureCmd,
		facetCmd,
		icd10Cmd,
		indexCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("humandbs-pipeline failed")
		os.Exit(1)
	}
}
