package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cmm/params"
)

var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cmm",
		Short: "Constrained mixture model simulator",
		Long: `cmm simulates remodeling of a soft tissue made of collagen and elastin
embedded in a proteoglycan matrix under a prescribed stretch history.

Parameters start from built-in defaults, then a YAML file (--params),
then CMM_* environment variables, then --set key=value assignments.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("params", "", "YAML parameter file")
	rootCmd.PersistentFlags().StringArray("set", nil, "Override a parameter, e.g. --set lambda_roof=1.2 (repeatable)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored log output")

	rootCmd.AddCommand(
		newRunCmd(),
		newParamsCmd(),
		newRunsCmd(),
		newShowCmd(),
	)
	return rootCmd
}

// loadParams 按 默认值 → 文件 → 环境变量 → --set 的顺序叠加参数
func loadParams(cmd *cobra.Command) (params.Params, error) {
	file, _ := cmd.Flags().GetString("params")
	sets, _ := cmd.Flags().GetStringArray("set")

	p := params.Default()
	var err error
	if file != "" {
		if p, err = params.Load(file); err != nil {
			return p, err
		}
	}
	if p, err = params.ApplyEnv(p); err != nil {
		return p, err
	}
	for _, s := range sets {
		if p, err = params.Set(p, s); err != nil {
			return p, err
		}
	}
	return p, nil
}
