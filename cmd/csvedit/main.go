// Command csvedit inspects and converts delimited text files offline with
// the same engine the editor server uses.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvedit/internal/logging"
)

// readOptions are the persistent flags describing how input files are read.
type readOptions struct {
	encoding  string
	delimiter string
	quote     string
	noHeader  bool
	sheet     string
	logLevel  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &readOptions{}

	rootCmd := &cobra.Command{
		Use:   "csvedit",
		Short: "Inspect, filter and convert CSV/TSV files",
		Long: `csvedit reads delimited text in UTF-8, Shift_JIS or EUC-JP, detects the
delimiter, and converts between CSV, TSV and Excel workbooks.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), opts.logLevel, "text"))
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.encoding, "encoding", "auto", "Input encoding: auto, utf-8, utf-8-bom, shift_jis, euc-jp")
	flags.StringVarP(&opts.delimiter, "delimiter", "d", "auto", "Input delimiter: auto, comma, tab, semicolon, pipe or a single character")
	flags.StringVar(&opts.quote, "quote", `"`, "Input quote character")
	flags.BoolVar(&opts.noHeader, "no-header", false, "Treat the first line as data")
	flags.StringVar(&opts.sheet, "sheet", "", "Sheet to read from .xlsx input (default: first)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newDetectCmd(opts),
		newConvertCmd(opts),
		newViewCmd(opts),
		newCopyCmd(opts),
	)
	return rootCmd
}
