package main

import (
	"context"
	"fmt"

	"github.com/go-kit/log/level"
	"github.com/neurodyn/hh"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario and print its summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			scn, err := loadScenario(cmd)
			if err != nil {
				return err
			}
			if dir, _ := cmd.Flags().GetString("csv"); dir != "" {
				scn.Export.AsCSV = true
				scn.Export.OutputDir = dir
			}
			if every, _ := cmd.Flags().GetInt("every"); every > 0 {
				scn.Export.Every = every
			}
			if stamped, _ := cmd.Flags().GetBool("timestamp"); stamped {
				scn.Export.Timestamp = true
			}

			traj, err := simulate(scn, logger)
			if err != nil {
				return err
			}

			if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
				ctx := context.Background()
				store, err := hh.OpenStore(ctx, dbPath)
				if err != nil {
					return err
				}
				defer store.Close()
				id, err := store.Save(ctx, scn.Name, traj)
				if err != nil {
					return err
				}
				level.Info(logger).Log("subsys", "store", "db", dbPath, "run", id)
			}

			if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
				return nil
			}
			if err := hh.Summarize(scn.Name, traj).WriteYAML(cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("failed to write summary: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("csv", "", "directory of the CSV export (enables it)")
	cmd.Flags().Int("every", 0, "keep one CSV record every N samples")
	cmd.Flags().Bool("timestamp", false, "stamp the CSV file name with the current time")
	cmd.Flags().String("db", "", "SQLite database to save the run into")
	cmd.Flags().Bool("quiet", false, "do not print the summary")
	return cmd
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List the runs saved in a database",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			ctx := context.Background()
			store, err := hh.OpenStore(ctx, dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			runs, err := store.List(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, r := range runs {
				fmt.Fprintf(w, "%d\t%s\t%d steps\tdt=%g ms\t%s\n", r.ID, r.Name, r.Steps, r.Dt, r.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	cmd.Flags().String("db", "hh.db", "SQLite database")
	return cmd
}
