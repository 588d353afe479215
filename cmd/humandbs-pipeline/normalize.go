package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbcls/humandbs-sub002/internal/domain"
	"github.com/dbcls/humandbs-sub002/internal/normalizer"
	"github.com/dbcls/humandbs-sub002/internal/pipeline"
)

// normalizedRecords mirrors parsedRecords one stage downstream.
type normalizedRecords struct {
	JA domain.NormalizedRecord `json:"ja"`
	EN domain.NormalizedRecord `json:"en"`
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize parsed RawRecords into NormalizedRecords",
	RunE:  runNormalize,
}

var (
	normalizeHumVersionIDs  *[]string
	normalizeHumVersionFile *string
)

func init() {
	normalizeHumVersionIDs, normalizeHumVersionFile = addHumVersionIDFlags(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg := cfgManager.GetConfig()
	maps, err := loadMappings(cfg)
	if err != nil {
		return err
	}

	svc, err := newRelationService(cmd.Context(), cfg.Relation)
	if err != nil {
		return err
	}
	n := normalizer.New(cfg.Portal.BaseURL, maps, svc)

	in, err := pipeline.NewArtifactStore(cfg.Paths.ResultsDir, pipeline.StageParse)
	if err != nil {
		return err
	}
	out, err := pipeline.NewArtifactStore(cfg.Paths.ResultsDir, pipeline.StageNormalize)
	if err != nil {
		return err
	}

	ids, err := resolveHumVersionIDs(*normalizeHumVersionIDs, *normalizeHumVersionFile)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		ids, err = in.Keys()
		if err != nil {
			return err
		}
	}

	runner := pipeline.NewRunner(cfg.Concurrency, 0, log)
	started := time.Now()

	items := make([]pipeline.WorkItem, 0, len(ids))
	for _, id := range ids {
		id := id
		items = append(items, pipeline.WorkItem{
			Key: id,
			Fn: func(ctx context.Context) error {
				var parsed parsedRecords
				found, err := in.Read(id, &parsed)
				if err != nil {
					return err
				}
				if !found {
					return domain.NewPipelineError(domain.ErrNormalize, "no parsed record for "+id, nil)
				}

				humID, _, ok := domain.ParseHumVersionID(id)
				if !ok {
					return domain.NewPipelineError(domain.ErrNormalize, "malformed humVersionId "+id, nil)
				}

				var normalized normalizedRecords
				var jaReport, enReport domain.StageReport
				normalized.JA, jaReport = n.Normalize(ctx, humID, parsed.JA)
				normalized.EN, enReport = n.Normalize(ctx, humID, parsed.EN)
				if jaReport.FailedCount() > 0 || enReport.FailedCount() > 0 {
					log.WithField("humVersionId", id).
						WithField("jaFailures", jaReport.FailedCount()).
						WithField("enFailures", enReport.FailedCount()).
						Warn("normalize stage recorded field-level failures")
				}

				return out.Write(id, normalized)
			},
		})
	}

	report := runner.Run(cmd.Context(), items)
	manifest := pipeline.NewManifest(pipeline.StageNormalize, report, started, time.Now())
	if err := pipeline.WriteManifest(cfg.Paths.ResultsDir, manifest); err != nil {
		return err
	}

	if m, ok := svc.(interface{ Flush(ctx context.Context) error }); ok {
		if err := m.Flush(cmd.Context()); err != nil {
			log.WithError(err).Warn("failed to flush relation service cache")
		}
	}

	log.WithField("succeeded", report.Succeeded).WithField("failed", report.FailedCount()).Info("normalize stage complete")
	return nil
}
