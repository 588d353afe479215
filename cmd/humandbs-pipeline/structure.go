package main

import (
	"context"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbcls/humandbs-sub002/internal/domain"
	"github.com/dbcls/humandbs-sub002/internal/pipeline"
	"github.com/dbcls/humandbs-sub002/internal/structurer"
)

// structuredResearch is the structure stage's per-humId artifact.
type structuredResearch struct {
	Research domain.Research          `json:"research"`
	Versions []domain.ResearchVersion `json:"versions"`
	Datasets []domain.Dataset         `json:"datasets"`
}

var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Merge NormalizedRecords across versions into Research/ResearchVersion/Dataset",
	RunE:  runStructure,
}

func runStructure(cmd *cobra.Command, args []string) error {
	cfg := cfgManager.GetConfig()
	maps, err := loadMappings(cfg)
	if err != nil {
		return err
	}

	in, err := pipeline.NewArtifactStore(cfg.Paths.ResultsDir, pipeline.StageNormalize)
	if err != nil {
		return err
	}
	out, err := pipeline.NewArtifactStore(cfg.Paths.ResultsDir, pipeline.StageStructure)
	if err != nil {
		return err
	}

	keys, err := in.Keys()
	if err != nil {
		return err
	}

	byHumID := map[string][]string{}
	for _, humVersionID := range keys {
		humID, _, ok := domain.ParseHumVersionID(humVersionID)
		if !ok {
			continue
		}
		byHumID[humID] = append(byHumID[humID], humVersionID)
	}

	s := structurer.New(maps.DatasetOverride)
	runner := pipeline.NewRunner(cfg.Concurrency, 0, log)
	started := time.Now()

	items := make([]pipeline.WorkItem, 0, len(byHumID))
	for humID, versionIDs := range byHumID {
		humID, versionIDs := humID, versionIDs
		items = append(items, pipeline.WorkItem{
			Key: humID,
			Fn: func(ctx context.Context) error {
				sort.Strings(versionIDs)
				records := make([]structurer.VersionRecord, 0, len(versionIDs))
				for _, vid := range versionIDs {
					var normalized normalizedRecords
					found, err := in.Read(vid, &normalized)
					if err != nil {
						return err
					}
					if !found {
						continue
					}
					_, version, _ := domain.ParseHumVersionID(vid)
					ja, en := normalized.JA, normalized.EN
					records = append(records, structurer.VersionRecord{
						HumVersionID: vid,
						Version:      version,
						JA:           &ja,
						EN:           &en,
					})
				}

				research, versions, datasets, err := s.Structure(humID, records)
				if err != nil {
					return err
				}
				return out.Write(humID, structuredResearch{Research: research, Versions: versions, Datasets: datasets})
			},
		})
	}

	report := runner.Run(cmd.Context(), items)
	manifest := pipeline.NewManifest(pipeline.StageStructure, report, started, time.Now())
	if err := pipeline.WriteManifest(cfg.Paths.ResultsDir, manifest); err != nil {
		return err
	}

	log.WithField("succeeded", report.Succeeded).WithField("failed", report.FailedCount()).Info("structure stage complete")
	return nil
}
