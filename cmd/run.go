package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"cmm"
	"cmm/logging"
	"cmm/metrics"
	"cmm/protocol"
	"cmm/record"
	"cmm/store"
	"cmm/types"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "run <constant|linear|cyclic|all>",
		Short:     "Run one loading protocol or all of them",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"constant", "linear", "cyclic", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			withFeedback, _ := cmd.Flags().GetBool("feedback")
			out, _ := cmd.Flags().GetString("out")
			dbPath, _ := cmd.Flags().GetString("db")
			metricsFile, _ := cmd.Flags().GetString("metrics")
			serve, _ := cmd.Flags().GetString("serve")
			quiet, _ := cmd.Flags().GetBool("quiet")
			level, _ := cmd.Flags().GetString("log-level")
			noColor, _ := cmd.Flags().GetBool("no-color")

			p, err := loadParams(cmd)
			if err != nil {
				return err
			}
			logger := logging.New(level, cmd.ErrOrStderr(), noColor)
			collector := metrics.NewCollector()
			model, err := cmm.New(p, cmm.WithLogger(logger), cmm.WithObserver(collector))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if quiet {
				w = io.Discard
			}
			fmt.Fprintf(w, "\nRunning a simulation with protocol '%s'...\n", args[0])
			if withFeedback {
				fmt.Fprintf(w, "Mechanical feedback: K_c+ = %g\n", model.Params().KFeedback)
			}

			set, err := runSet(cmd, model, args[0], withFeedback)
			if err != nil {
				return err
			}
			printSummary(w, set, args[0] == "all")

			rec := record.New("Constrained mixture model", set)
			if out != "" {
				if err := export(rec, out); err != nil {
					return err
				}
				fmt.Fprintf(w, "The results are saved in %s.[csv/html/png]\n", out)
			}
			if dbPath != "" {
				if err := save(cmd, dbPath, model, set, w); err != nil {
					return err
				}
			}
			if metricsFile != "" {
				if err := collector.WriteTextfile(metricsFile); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}
			if serve != "" {
				return serveCharts(cmd, logger, serve, record.NewCharts(rec))
			}
			return nil
		},
	}

	cmd.Flags().Bool("feedback", false, "Activate mechanical feedback")
	cmd.Flags().String("out", "", "Save results to files with this base name (no extension)")
	cmd.Flags().String("db", "", "Store results in this SQLite database")
	cmd.Flags().String("metrics", "", "Write Prometheus metrics to this textfile")
	cmd.Flags().String("serve", "", "Serve the HTML report on this address after the run, e.g. :8080")
	cmd.Flags().Bool("quiet", false, "Don't show progress")
	return cmd
}

func runSet(cmd *cobra.Command, model *cmm.Model, name string, withFeedback bool) (types.ResultSet, error) {
	if name == "all" {
		return model.RunAllProtocols(cmd.Context(), withFeedback)
	}
	id, err := protocol.Parse(name)
	if err != nil {
		return nil, err
	}
	res, err := model.RunProtocol(cmd.Context(), id, withFeedback)
	if err != nil {
		return nil, err
	}
	return types.ResultSet{id: res}, nil
}

func printSummary(w io.Writer, set types.ResultSet, all bool) {
	fmt.Fprintln(w, "Simulation completed successfully!")
	for _, id := range set.Protocols() {
		res := set[id]
		if all {
			fmt.Fprintf(w, "%s: final stress = %.2f kPa\n", id, types.Final(res.SigmaTotal))
		} else {
			fmt.Fprintf(w, "Last value σ_c: %.2f kPa\n", types.Final(res.SigmaC))
		}
		if n := len(res.Warnings); n > 0 {
			fmt.Fprintf(w, "%s: feedback did not converge at %d steps\n", id, n)
		}
	}
}

// export 写出结果文件
func export(rec *record.Record, base string) error {
	for _, id := range rec.Protocols() {
		name := base + ".csv"
		if !rec.IsSingle() {
			name = base + "_" + id.String() + ".csv"
		}
		if err := writeFile(name, func(w io.Writer) error { return record.WriteCSV(w, rec.Results[id]) }); err != nil {
			return err
		}
	}
	if err := writeFile(base+".html", record.NewCharts(rec).Render); err != nil {
		return err
	}
	return rec.SavePNG(base + ".png")
}

func writeFile(name string, write func(io.Writer) error) error {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	return file.Close()
}

func save(cmd *cobra.Command, path string, model *cmm.Model, set types.ResultSet, w io.Writer) error {
	db, err := store.Open(cmd.Context(), path)
	if err != nil {
		return err
	}
	defer db.Close()
	for _, id := range set.Protocols() {
		runID, err := db.SaveRun(cmd.Context(), model.Params().Params, set[id])
		if err != nil {
			return fmt.Errorf("save %s: %w", id, err)
		}
		fmt.Fprintf(w, "%s: stored as run %d\n", id, runID)
	}
	return nil
}

func serveCharts(cmd *cobra.Command, logger *slog.Logger, addr string, c *record.Charts) error {
	srv := &http.Server{Addr: addr, Handler: http.HandlerFunc(c.Handler)}
	go func() {
		<-cmd.Context().Done()
		srv.Close()
	}()
	logger.Info("serving report", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
