package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dvloznov/finance-clusters/internal/config"
	"github.com/dvloznov/finance-clusters/internal/domain"
	"github.com/dvloznov/finance-clusters/internal/features"
	"github.com/dvloznov/finance-clusters/internal/pipeline"
	"github.com/dvloznov/finance-clusters/internal/report"
	"github.com/dvloznov/finance-clusters/internal/som"
	"github.com/dvloznov/finance-clusters/internal/sources"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// sourceFlags override the source section of the configuration.
type sourceFlags struct {
	kind      string
	paths     []string
	gcsURIs   []string
	delimiter string
	project   string
	startDate string
	endDate   string
	outflows  bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.kind, "source", "", "record source (static, csv, gcs, bigquery)")
	fl.StringArrayVar(&f.paths, "path", nil, "CSV file path for --source csv; repeat to cluster several files together")
	fl.StringArrayVar(&f.gcsURIs, "gcs-uri", nil, "gs://bucket/object for --source gcs; repeatable")
	fl.StringVar(&f.delimiter, "delimiter", "", "CSV field delimiter")
	fl.StringVar(&f.project, "project", "", "GCP project for --source bigquery")
	fl.StringVar(&f.startDate, "start-date", "", "first booking date (YYYY-MM-DD) for --source bigquery")
	fl.StringVar(&f.endDate, "end-date", "", "last booking date (YYYY-MM-DD) for --source bigquery")
	fl.BoolVar(&f.outflows, "outflows-only", false, "read only outgoing payments from BigQuery")
}

// apply copies the flags the user actually set onto cfg.
func (f *sourceFlags) apply(cmd *cobra.Command, cfg *config.SourceConfig) {
	fl := cmd.Flags()
	if fl.Changed("source") {
		cfg.Kind = f.kind
	}
	if fl.Changed("path") {
		cfg.Path, cfg.Paths = "", f.paths
		if !fl.Changed("source") {
			cfg.Kind = config.SourceCSV
		}
	}
	if fl.Changed("gcs-uri") {
		cfg.GCSURI, cfg.GCSURIs = "", f.gcsURIs
		if !fl.Changed("source") {
			cfg.Kind = config.SourceGCS
		}
	}
	if fl.Changed("delimiter") {
		cfg.Delimiter = f.delimiter
	}
	if fl.Changed("project") {
		cfg.BigQuery.ProjectID = f.project
	}
	if fl.Changed("start-date") {
		cfg.BigQuery.StartDate = f.startDate
	}
	if fl.Changed("end-date") {
		cfg.BigQuery.EndDate = f.endDate
	}
	if fl.Changed("outflows-only") {
		cfg.BigQuery.OutflowsOnly = f.outflows
	}
}

// loadRecords applies the source flags, revalidates and reads the records.
func (a *app) loadRecords(cmd *cobra.Command, sf *sourceFlags) ([]domain.TransactionRecord, error) {
	sf.apply(cmd, &a.cfg.Source)
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	src, closer, err := sources.FromConfig(ctx, a.cfg.Source)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	records, err := src.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading %s records: %w", a.cfg.Source.Kind, err)
	}
	a.log.Info().Str("source", a.cfg.Source.Kind).Int("records", len(records)).Msg("Records loaded")
	return records, nil
}

type clusterOptions struct {
	source     sourceFlags
	gridSize   int
	iterations int
	seed       int64
	mode       string
	output     string
}

func newClusterCmd(a *app) *cobra.Command {
	opts := &clusterOptions{}

	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Train a map on the records and print the clusters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCluster(cmd, opts)
		},
	}

	opts.source.register(cmd)
	fl := cmd.Flags()
	fl.IntVar(&opts.gridSize, "grid-size", 0, "map side; 0 sizes the map from the number of accounts")
	fl.IntVar(&opts.iterations, "iterations", 0, "training iterations (online) or epochs (batch)")
	fl.Int64Var(&opts.seed, "seed", 0, "random seed for a reproducible run")
	fl.StringVar(&opts.mode, "mode", "", "training mode (online, batch)")
	fl.StringVarP(&opts.output, "output", "o", outputText, "output format (text, json)")

	return cmd
}

func (a *app) runCluster(cmd *cobra.Command, opts *clusterOptions) error {
	if opts.output != outputText && opts.output != outputJSON {
		return fmt.Errorf("unknown output format %q; expected text|json", opts.output)
	}

	fl := cmd.Flags()
	if fl.Changed("grid-size") {
		if opts.gridSize < 1 {
			return fmt.Errorf("--grid-size %d: %w", opts.gridSize, som.ErrDegenerateMap)
		}
		a.cfg.SOM.GridSize = opts.gridSize
	}
	if fl.Changed("iterations") {
		a.cfg.SOM.Iterations = opts.iterations
	}
	if fl.Changed("seed") {
		seed := opts.seed
		a.cfg.SOM.Seed = &seed
	}
	if fl.Changed("mode") {
		a.cfg.SOM.Mode = opts.mode
	}

	records, err := a.loadRecords(cmd, &opts.source)
	if err != nil {
		return err
	}

	somCfg, err := a.cfg.SOM.ToSOM()
	if err != nil {
		return err
	}

	res, err := pipeline.Run(cmd.Context(), records, pipeline.Options{
		SOM:               somCfg,
		AllowedCategories: a.cfg.SOM.AllowedCategories,
	})
	if err != nil {
		return err
	}

	if opts.output == outputJSON {
		return report.WriteJSON(cmd.OutOrStdout(), res)
	}
	return report.WriteText(cmd.OutOrStdout(), res)
}

func newMatrixCmd(a *app) *cobra.Command {
	sf := &sourceFlags{}

	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Print the account x category spending matrix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.loadRecords(cmd, sf)
			if err != nil {
				return err
			}
			m, err := features.Build(records)
			if err != nil {
				return err
			}
			return report.WriteMatrix(cmd.OutOrStdout(), m)
		},
	}

	sf.register(cmd)
	return cmd
}

func newGridSizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grid-size N",
		Short: "Print the map side chosen for N accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 0 {
				return fmt.Errorf("N must be a non-negative integer, got %q", args[0])
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), som.GridSize(n))
			return err
		},
	}
}
