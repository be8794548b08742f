package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "codesearch",
	Short: "Codesearch - turn source trees into searchable documents",
	Long: `Codesearch parses source files into field-based documents and stores
them in a full-text index.

Each file is checked against exclusion patterns, routed to a language
analyzer by extension, and converted into a document with path, language,
symbol and token fields. Files that are excluded, unsupported or unreadable
are skipped without stopping the run.

Configuration is read from .codesearch/config.yml in the target directory
with CODESEARCH_* environment overrides.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <dir>/.codesearch/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}
