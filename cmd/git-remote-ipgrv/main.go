package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ipgrv/git-remote-ipgrv/pkg/helper"
)

// logFileName receives all diagnostics: stdout belongs to the protocol and
// must never carry log output.
const logFileName = "git-remote-ipgrv.log"

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "git-remote-ipgrv <remote> <url>",
		Short:         "Git remote helper that rehosts repository objects on an IPFS DAG store",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return fmt.Errorf("set up logger: %w", err)
			}
			defer log.Sync()
			log.Debug("invoked", zap.Strings("args", args))

			h, err := helper.New(log)
			if err != nil {
				return err
			}
			defer h.Close()

			return runProtocol(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), h, log)
		},
	}
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{logFileName}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
