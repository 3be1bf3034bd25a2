package main

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mornyx/getvscodecmd"
)

func main() {
	logger := newLogger(os.Stderr)
	os.Exit(execute(newRootCmd(logger), logger))
}

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		With().Timestamp().
		Logger().
		Level(zerolog.InfoLevel)
}

func newRootCmd(logger zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "getvscodecmd <vscode-output-log>",
		Short: "Extract client commands from a netcoredbg VS Code protocol log",
		Long: `Extract the "-> (C) " commands from a netcoredbg VS Code protocol log and
print them as Content-Length framed records, ready to be replayed:

  $ getvscodecmd vscode_output > cmd
  $ unix2dos cmd
  $ netcoredbg --interpreter=vscode --engineLogging=/tmp < cmd`,
		// Log paths may start with '-', so flags are not parsed. "--" is
		// still accepted in front of the path.
		DisableFlagParsing: true,
		Args: func(cmd *cobra.Command, args []string) error {
			return cobra.ExactArgs(1)(cmd, trimSeparator(args))
		},
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && (args[0] == "-h" || args[0] == "--help") {
				return cmd.Help()
			}
			args = trimSeparator(args)
			cmd.SilenceUsage = true

			out := bufio.NewWriter(cmd.OutOrStdout())
			n, err := getvscodecmd.ExtractFile(args[0], out, getvscodecmd.WithLogger(logger))
			if ferr := out.Flush(); err == nil {
				err = ferr
			}
			if err != nil {
				return err
			}
			logger.Info().Str("path", args[0]).Int("commands", n).Msg("commands extracted")
			return nil
		},
	}
}

func trimSeparator(args []string) []string {
	if len(args) > 0 && args[0] == "--" {
		return args[1:]
	}
	return args
}

// execute runs cmd and maps its outcome to a process exit code.
func execute(cmd *cobra.Command, logger zerolog.Logger) int {
	err := cmd.Execute()
	if err == nil {
		return 0
	}
	var ferr *getvscodecmd.InputFileError
	if errors.As(err, &ferr) {
		logger.Error().Err(ferr.Err).Str("path", ferr.Path).Msg("cannot read input file")
		return 1
	}
	logger.Error().Err(err).Msg("getvscodecmd failed")
	return 1
}
