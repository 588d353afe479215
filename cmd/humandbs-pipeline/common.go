package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbcls/humandbs-sub002/internal/config"
	"github.com/dbcls/humandbs-sub002/internal/mapping"
	"github.com/dbcls/humandbs-sub002/internal/relation"
)

// addHumVersionIDFlags registers --hum-version-id and --hum-version-file so
// the fetch, parse and normalize subcommands share the same "which
// humVersionIds to process" selection, read either from repeated flags or a
// newline-delimited file.
func addHumVersionIDFlags(cmd *cobra.Command) (*[]string, *string) {
	var ids []string
	var file string
	cmd.Flags().StringArrayVar(&ids, "hum-version-id", nil, "humVersionId to process (repeatable)")
	cmd.Flags().StringVar(&file, "hum-version-file", "", "file with one humVersionId per line")
	return &ids, &file
}

func resolveHumVersionIDs(ids []string, file string) ([]string, error) {
	if file == "" {
		return ids, nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", file, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			ids = append(ids, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	return ids, nil
}

func loadMappings(cfg *config.PipelineConfig) (*mapping.Set, error) {
	return mapping.Load(cfg.Paths.ConfigDir)
}

func newRelationService(ctx context.Context, cfg config.RelationConfig) (relation.Service, error) {
	client := relation.NewHTTPClient(cfg.Endpoint, cfg.Timeout)

	var store relation.Store
	switch cfg.CacheKind {
	case "redis":
		s, err := relation.NewRedisStore(cfg.RedisURL, "humandbs:relation-cache")
		if err != nil {
			return nil, fmt.Errorf("constructing redis relation cache: %w", err)
		}
		store = s
	default:
		store = relation.NewFileStore(cfg.CacheFile)
	}

	return relation.NewMemoizedService(ctx, client, store, cfg.LRUSize)
}
