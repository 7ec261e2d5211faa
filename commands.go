package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/SusheelSathyaraj/TableReplicator/database"
	"github.com/SusheelSathyaraj/TableReplicator/migration"
	"github.com/SusheelSathyaraj/TableReplicator/monitoring"
	"github.com/SusheelSathyaraj/TableReplicator/validation"
	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
)

func newReplicateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replicate",
		Short: "Copy the reference table and then the detail table, skipping rows that already exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, root)
			if err != nil {
				return err
			}
			return a.replicate(cmd)
		},
	}
}

func (a *app) replicate(cmd *cobra.Command) error {
	cfg := a.cfg
	tables := database.TablesFromConfig(cfg)
	policy := database.ConflictPolicy(strings.ToLower(cfg.Replication.ConflictPolicy))

	source, err := database.NewSource(cfg.Source, tables)
	if err != nil {
		return err
	}
	destination, err := database.NewDestination(cfg.Destination, tables, policy)
	if err != nil {
		return err
	}

	var reports *migration.ReportStore
	report := migration.NewRunReport(cfg.Source.Driver, cfg.Destination.Driver, time.Now())
	if cfg.ReportDir != "" {
		if reports, err = migration.NewReportStore(cfg.ReportDir, a.logger); err != nil {
			return err
		}
		if err := reports.Save(report); err != nil {
			a.logger.WithError(err).Warn("Could not save run report")
		}
	}

	metrics := monitoring.NewMetrics()
	opts := migration.Options{
		PageSize:          int64(cfg.Replication.PageSize),
		SkipMissingTables: cfg.Replication.SkipMissingTables,
	}
	result, runErr := migration.NewReplicator(source, destination, tables, opts, a.logger, metrics).Run(cmd.Context())

	report.Complete(result, runErr)
	if reports != nil {
		if err := reports.Save(report); err != nil {
			a.logger.WithError(err).Warn("Could not save run report")
		}
	}
	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			a.logger.WithError(err).Warn("Could not write metrics file")
		}
	}

	if runErr != nil {
		return runErr
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Replication completed: %d %s, %d %s in %s\n",
		result.Reference.RowsWritten, tables.Reference,
		result.Detail.RowsWritten, tables.Detail,
		monitoring.FormatDuration(result.Duration))
	return nil
}

func newVerifyCmd(root *rootOptions) *cobra.Command {
	var sample int64

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare source and destination row counts for both tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, root)
			if err != nil {
				return err
			}

			tables := database.TablesFromConfig(a.cfg)
			source, err := database.NewSource(a.cfg.Source, tables)
			if err != nil {
				return err
			}
			destination, err := database.NewDestination(a.cfg.Destination, tables, database.ConflictSkip)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := source.Connect(ctx); err != nil {
				return errors.Wrap(err, "connect source")
			}
			defer source.Close()
			if err := destination.Connect(ctx); err != nil {
				return errors.Wrap(err, "connect destination")
			}
			defer destination.Close()

			start := time.Now()
			validator := validation.NewReplicationValidator(source, destination, a.logger)
			validator.SkipMissingTables = a.cfg.Replication.SkipMissingTables
			results := validator.Validate(ctx, []string{tables.Reference, tables.Detail})
			summary := validation.GenerateValidationSummary(results, start)

			out := cmd.OutOrStdout()
			summary.Print(out)

			if sample > 0 {
				for _, result := range results {
					if !result.IsValid || result.Skipped {
						continue
					}
					rows, err := destination.SampleRows(ctx, result.TableName, sample)
					if err != nil {
						a.logger.WithError(err).Warnf("Could not sample %s", result.TableName)
						continue
					}
					fmt.Fprintf(out, "Sample of destination %s:\n", result.TableName)
					printRows(out, rows)
				}
			}

			if !summary.OK() {
				return errors.Errorf("verification failed for %d table(s)", summary.InvalidTables)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&sample, "sample", 0, "print the first N destination rows of each verified table")
	return cmd
}

// a store inspect can read from
type inspectStore interface {
	database.Inspector
	database.Sampler
}

func newInspectCmd(root *rootOptions) *cobra.Command {
	var sample int64

	cmd := &cobra.Command{
		Use:       "inspect [source|destination]",
		Short:     "List the tables of a store with their row counts",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"source", "destination"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, root)
			if err != nil {
				return err
			}

			side := "source"
			if len(args) == 1 {
				side = args[0]
			}

			tables := database.TablesFromConfig(a.cfg)
			var store inspectStore
			if side == "source" {
				store, err = database.NewSource(a.cfg.Source, tables)
			} else {
				store, err = database.NewDestination(a.cfg.Destination, tables, database.ConflictSkip)
			}
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := store.Connect(ctx); err != nil {
				return errors.Wrapf(err, "connect %s", side)
			}
			defer store.Close()

			infos, err := store.ListTables(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d tables in %s\n", len(infos), side)
			for _, info := range infos {
				fmt.Fprintf(out, "%-30s %d\n", info.Name, info.Rows)
				if sample <= 0 {
					continue
				}

				ddl, err := store.TableDDL(ctx, info.Name)
				if err != nil {
					return err
				}
				if ddl != "" {
					fmt.Fprintf(out, "%s\n", ddl)
				}
				rows, err := store.SampleRows(ctx, info.Name, sample)
				if err != nil {
					return err
				}
				printRows(out, rows)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&sample, "sample", 0, "also print each table's definition and its first N rows")
	return cmd
}

// printing rows as key=value pairs in column name order
func printRows(out io.Writer, rows []map[string]interface{}) {
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%v", k, row[k]))
		}
		fmt.Fprintf(out, "  %s\n", strings.Join(pairs, " "))
	}
}

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var prune time.Duration

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved run reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, root)
			if err != nil {
				return err
			}
			if a.cfg.ReportDir == "" {
				return errors.New("report_dir is not configured")
			}

			reports, err := migration.NewReportStore(a.cfg.ReportDir, a.logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if prune > 0 {
				removed, err := reports.Prune(prune)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %d report(s) older than %s\n", removed, prune)
			}

			list, err := reports.List()
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(out, "No run reports found")
				return nil
			}
			for _, report := range list {
				var rows int64
				for _, table := range report.Tables {
					rows += table.RowsWritten
				}
				fmt.Fprintf(out, "%s  %-11s  %s  %d rows\n",
					report.StartTime.Format(time.RFC3339), report.Status, report.ID, rows)
				if report.Error != "" {
					fmt.Fprintf(out, "    %s\n", report.Error)
				}
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&prune, "prune", 0, "remove finished reports older than this duration before listing")
	return cmd
}
