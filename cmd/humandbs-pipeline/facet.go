package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbcls/humandbs-sub002/internal/facet"
	"github.com/dbcls/humandbs-sub002/internal/pipeline"
)

var facetCmd = &cobra.Command{
	Use:   "facet",
	Short: "Canonicalize facet values against the editable mapping tables",
	RunE:  runFacet,
}

func runFacet(cmd *cobra.Command, args []string) error {
	cfg := cfgManager.GetConfig()

	facets, err := facet.LoadSet(cfg.Paths.ConfigDir)
	if err != nil {
		return err
	}

	in, err := pipeline.NewArtifactStore(cfg.Paths.ResultsDir, pipeline.StageStructure)
	if err != nil {
		return err
	}
	out, err := pipeline.NewArtifactStore(cfg.Paths.ResultsDir, pipeline.StageFacet)
	if err != nil {
		return err
	}

	keys, err := in.Keys()
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(cfg.Concurrency, 0, log)
	started := time.Now()

	items := make([]pipeline.WorkItem, 0, len(keys))
	for _, humID := range keys {
		humID := humID
		items = append(items, pipeline.WorkItem{
			Key: humID,
			Fn: func(ctx context.Context) error {
				var sr structuredResearch
				found, err := in.Read(humID, &sr)
				if err != nil {
					return err
				}
				if !found {
					return nil
				}
				for di := range sr.Datasets {
					for ei := range sr.Datasets[di].Experiments {
						facets.NormalizeSearchable(&sr.Datasets[di].Experiments[ei].Searchable)
					}
				}
				return out.Write(humID, sr)
			},
		})
	}

	report := runner.Run(cmd.Context(), items)
	manifest := pipeline.NewManifest(pipeline.StageFacet, report, started, time.Now())
	if err := pipeline.WriteManifest(cfg.Paths.ResultsDir, manifest); err != nil {
		return err
	}

	// Facet mappings are edited in place (new raw values recorded as
	// __PENDING__) and rewritten only if anything changed, per spec.md §4.5.
	if err := facets.SaveAll(); err != nil {
		return err
	}

	for _, name := range facet.FacetFields {
		if m := facets.Field(name); m != nil {
			if pending := m.PendingValues(); len(pending) > 0 {
				log.WithField("field", name).WithField("pending", pending).
					Warn("facet values await manual canonicalization")
			}
		}
	}

	log.WithField("succeeded", report.Succeeded).WithField("failed", report.FailedCount()).Info("facet stage complete")
	return nil
}
