package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbcls/humandbs-sub002/internal/icd10"
	"github.com/dbcls/humandbs-sub002/internal/pipeline"
)

var icd10Cmd = &cobra.Command{
	Use:   "icd10",
	Short: "Attach ICD10 codes to disease labels",
	RunE:  runICD10,
}

var icd10Check bool

func init() {
	icd10Cmd.Flags().BoolVar(&icd10Check, "check", false, "validate only; exit non-zero on any violation")
}

func runICD10(cmd *cobra.Command, args []string) error {
	cfg := cfgManager.GetConfig()

	masterPath := cfg.Paths.ResultsDir + "/icd10-labels.json"
	icdCfg, err := icd10.Load(masterPath)
	if err != nil {
		return err
	}
	n := icd10.New(icdCfg)

	in, err := pipeline.NewArtifactStore(cfg.Paths.ResultsDir, pipeline.StageFacet)
	if err != nil {
		return err
	}
	out, err := pipeline.NewArtifactStore(cfg.Paths.ResultsDir, pipeline.StageICD10)
	if err != nil {
		return err
	}

	keys, err := in.Keys()
	if err != nil {
		return err
	}

	var violationsMu sync.Mutex
	var violations []icd10.CheckViolation
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
						diseases := sr.Datasets[di].Experiments[ei].Searchable.Diseases
						if icd10Check {
							if v := n.Check(humID, sr.Datasets[di].DatasetID, diseases); len(v) > 0 {
								violationsMu.Lock()
								violations = append(violations, v...)
								violationsMu.Unlock()
							}
							continue
						}
						sr.Datasets[di].Experiments[ei].Searchable.Diseases = n.Normalize(humID, diseases)
					}
				}
				if icd10Check {
					return nil
				}
				return out.Write(humID, sr)
			},
		})
	}

	report := runner.Run(cmd.Context(), items)
	manifest := pipeline.NewManifest(pipeline.StageICD10, report, started, time.Now())
	if err := pipeline.WriteManifest(cfg.Paths.ResultsDir, manifest); err != nil {
		return err
	}

	if icd10Check && len(violations) > 0 {
		for _, v := range violations {
			log.Error(v.String())
		}
		return fmt.Errorf("icd10 --check found %d violation(s)", len(violations))
	}

	log.WithField("succeeded", report.Succeeded).WithField("failed", report.FailedCount()).Info("icd10 stage complete")
	return nil
}
