package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbcls/humandbs-sub002/internal/domain"
	"github.com/dbcls/humandbs-sub002/internal/fetcher"
	"github.com/dbcls/humandbs-sub002/internal/pipeline"
)

// fetchedPages is the fetch stage's on-disk artifact: the raw HTML for one
// humVersionId's detail and release pages, in both languages.
type fetchedPages struct {
	DetailJA  []byte `json:"detailJa"`
	DetailEN  []byte `json:"detailEn"`
	ReleaseJA []byte `json:"releaseJa"`
	ReleaseEN []byte `json:"releaseEn"`
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch detail and release pages for the given humVersionIds",
	RunE:  runFetch,
}

var (
	fetchHumVersionIDs *[]string
	fetchHumVersionFile *string
	fetchUseCache bool
)

func init() {
	fetchHumVersionIDs, fetchHumVersionFile = addHumVersionIDFlags(fetchCmd)
	fetchCmd.Flags().BoolVar(&fetchUseCache, "use-cache", true, "serve from the content-addressed cache when available")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := cfgManager.GetConfig()
	ids, err := resolveHumVersionIDs(*fetchHumVersionIDs, *fetchHumVersionFile)
	if err != nil {
		return err
	}

	maps, err := loadMappings(cfg)
	if err != nil {
		return err
	}

	cache, err := fetcher.NewCache(cfg.Paths.CacheDir)
	if err != nil {
		return err
	}
	f := fetcher.New(cfg.Fetch, cfg.Portal.BaseURL, maps.CrawlHotfix, cache, log)

	store, err := pipeline.NewArtifactStore(cfg.Paths.ResultsDir, pipeline.StageFetch)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(cfg.Concurrency, 0, log)
	started := time.Now()

	items := make([]pipeline.WorkItem, 0, len(ids))
	for _, id := range ids {
		id := id
		items = append(items, pipeline.WorkItem{
			Key: id,
			Fn: func(ctx context.Context) error {
				if humID, _, ok := domain.ParseHumVersionID(id); ok && f.Skip(humID) {
					return nil
				}
				var pages fetchedPages
				var err error
				if pages.DetailJA, err = f.Fetch(ctx, id, domain.LangJA, fetcher.PageDetail, fetchUseCache); err != nil {
					return err
				}
				if pages.DetailEN, err = f.Fetch(ctx, id, domain.LangEN, fetcher.PageDetail, fetchUseCache); err != nil {
					return err
				}
				if pages.ReleaseJA, err = f.Fetch(ctx, id, domain.LangJA, fetcher.PageRelease, fetchUseCache); err != nil {
					return err
				}
				if pages.ReleaseEN, err = f.Fetch(ctx, id, domain.LangEN, fetcher.PageRelease, fetchUseCache); err != nil {
					return err
				}
				return store.Write(id, pages)
			},
		})
	}

	report := runner.Run(cmd.Context(), items)
	manifest := pipeline.NewManifest(pipeline.StageFetch, report, started, time.Now())
	if err := pipeline.WriteManifest(cfg.Paths.ResultsDir, manifest); err != nil {
		return err
	}

	log.WithField("succeeded", report.Succeeded).WithField("failed", report.FailedCount()).Info("fetch stage complete")
	return nil
}
