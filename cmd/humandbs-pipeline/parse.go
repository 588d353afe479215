package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbcls/humandbs-sub002/internal/domain"
	"github.com/dbcls/humandbs-sub002/internal/parser"
	"github.com/dbcls/humandbs-sub002/internal/pipeline"
)

// parsedRecords is the parse stage's artifact: one RawRecord per language
// for a humVersionId.
type parsedRecords struct {
	JA domain.RawRecord `json:"ja"`
	EN domain.RawRecord `json:"en"`
}

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse fetched HTML into RawRecords",
	RunE:  runParse,
}

var (
	parseHumVersionIDs  *[]string
	parseHumVersionFile *string
)

func init() {
	parseHumVersionIDs, parseHumVersionFile = addHumVersionIDFlags(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg := cfgManager.GetConfig()
	maps, err := loadMappings(cfg)
	if err != nil {
		return err
	}

	in, err := pipeline.NewArtifactStore(cfg.Paths.ResultsDir, pipeline.StageFetch)
	if err != nil {
		return err
	}
	out, err := pipeline.NewArtifactStore(cfg.Paths.ResultsDir, pipeline.StageParse)
	if err != nil {
		return err
	}

	ids, err := resolveHumVersionIDs(*parseHumVersionIDs, *parseHumVersionFile)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		ids, err = in.Keys()
		if err != nil {
			return err
		}
	}

	detailParser := parser.NewDetailParser(maps.CrawlHotfix)
	releaseParser := parser.NewReleaseParser()

	runner := pipeline.NewRunner(cfg.Concurrency, 0, log)
	started := time.Now()

	items := make([]pipeline.WorkItem, 0, len(ids))
	for _, id := range ids {
		id := id
		items = append(items, pipeline.WorkItem{
			Key: id,
			Fn: func(ctx context.Context) error {
				var pages fetchedPages
				found, err := in.Read(id, &pages)
				if err != nil {
					return err
				}
				if !found {
					return domain.NewPipelineError(domain.ErrParse, "no fetched pages for "+id, nil)
				}

				var recs parsedRecords
				if recs.JA, err = detailParser.Parse(id, domain.LangJA, pages.DetailJA); err != nil {
					return err
				}
				if recs.EN, err = detailParser.Parse(id, domain.LangEN, pages.DetailEN); err != nil {
					return err
				}
				jaReleases, err := releaseParser.Parse(id, pages.ReleaseJA)
				if err != nil {
					return err
				}
				enReleases, err := releaseParser.Parse(id, pages.ReleaseEN)
				if err != nil {
					return err
				}
				recs.JA.Releases = jaReleases
				recs.EN.Releases = enReleases

				return out.Write(id, recs)
			},
		})
	}

	report := runner.Run(cmd.Context(), items)
	manifest := pipeline.NewManifest(pipeline.StageParse, report, started, time.Now())
	if err := pipeline.WriteManifest(cfg.Paths.ResultsDir, manifest); err != nil {
		return err
	}

	log.WithField("succeeded", report.Succeeded).WithField("failed", report.FailedCount()).Info("parse stage complete")
	return nil
}
