package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cmm/params"
	"cmm/record"
	"cmm/store"
)

func newParamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Print the resolved parameter record as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadParams(cmd)
			if err != nil {
				return err
			}
			r, err := params.Resolve(p)
			if err != nil {
				return err
			}
			// 保存未解析的参数，派生值在下次加载时重新计算
			if file, _ := cmd.Flags().GetString("save"); file != "" {
				return params.Save(file, p)
			}
			return params.Encode(cmd.OutOrStdout(), r.Params)
		},
	}
	cmd.Flags().String("save", "", "Write the unresolved parameters to this YAML file instead of printing")
	return cmd
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs stored in a database",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			db, err := store.Open(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			runs, err := db.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPROTOCOL\tFEEDBACK\tSAMPLES\tWARNINGS\tCREATED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%d\t%s\t%t\t%d\t%d\t%s\n",
					r.ID, r.Protocol, r.Feedback, r.Samples, r.Warnings, r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("db", "cmm.sqlite", "SQLite database")
	return cmd
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored run as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}
			db, err := store.Open(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			res, _, err := db.LoadRun(cmd.Context(), id)
			if err != nil {
				return err
			}
			return record.WriteCSV(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().String("db", "cmm.sqlite", "SQLite database")
	return cmd
}
