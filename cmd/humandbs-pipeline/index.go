package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbcls/humandbs-sub002/internal/index"
	"github.com/dbcls/humandbs-sub002/internal/pipeline"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Create or update Research/ResearchVersion/Dataset documents in Elasticsearch",
	RunE:  runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := cfgManager.GetConfig()

	client, err := index.NewClient(cfg.Index.Addresses, cfg.Index.ResearchIndex, cfg.Index.VersionIndex, cfg.Index.DatasetIndex, log)
	if err != nil {
		return err
	}
	if err := client.EnsureIndices(cmd.Context()); err != nil {
		return err
	}
	writer := index.NewWriter(client)

	in, err := pipeline.NewArtifactStore(cfg.Paths.ResultsDir, pipeline.StageICD10)
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

				for _, v := range sr.Versions {
					if err := upsert(ctx, writer, client.Version, v.HumVersionID, v); err != nil {
						return fmt.Errorf("indexing version %s: %w", v.HumVersionID, err)
					}
				}
				for _, d := range sr.Datasets {
					if err := upsert(ctx, writer, client.Dataset, d.DatasetID, d); err != nil {
						return fmt.Errorf("indexing dataset %s: %w", d.DatasetID, err)
					}
				}
				if err := upsert(ctx, writer, client.Research, sr.Research.HumID, sr.Research); err != nil {
					return fmt.Errorf("indexing research %s: %w", humID, err)
				}
				return nil
			},
		})
	}

	report := runner.Run(cmd.Context(), items)
	manifest := pipeline.NewManifest(pipeline.StageIndex, report, started, time.Now())
	if err := pipeline.WriteManifest(cfg.Paths.ResultsDir, manifest); err != nil {
		return err
	}

	log.WithField("succeeded", report.Succeeded).WithField("failed", report.FailedCount()).Info("index stage complete")
	return nil
}

// upsert creates doc at id if it doesn't exist yet, or updates it guarded
// by the current seqNo/primaryTerm otherwise; a concurrency conflict on
// update is retried once against a freshly read Ref, matching spec.md
// §4.6's IndexWriter semantics without layering extra retry policy on top.
func upsert(ctx context.Context, w *index.Writer, idx, id string, doc interface{}) error {
	var existing map[string]interface{}
	ref, err := w.Get(ctx, idx, id, &existing)
	if err != nil {
		return err
	}
	if ref == nil {
		return w.Create(ctx, idx, id, doc)
	}

	ok, err := w.Update(ctx, idx, id, doc, ref.SeqNo, ref.PrimaryTerm)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	ref, err = w.Get(ctx, idx, id, &existing)
	if err != nil {
		return err
	}
	if ref == nil {
		return w.Create(ctx, idx, id, doc)
	}
	ok, err = w.Update(ctx, idx, id, doc, ref.SeqNo, ref.PrimaryTerm)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s/%s: update lost the race twice", idx, id)
	}
	return nil
}
