package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/cortex-codesearch/internal/analysis"
)

// analyzersCmd represents the analyzers command
var analyzersCmd = &cobra.Command{
	Use:   "analyzers",
	Short: "List registered analyzers and the file types they handle",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDir, err := targetDir(nil)
		if err != nil {
			return err
		}
		a, err := newApp(appOptions{
			rootDir:    rootDir,
			configFile: cfgFile,
			verbose:    verbose,
			stderr:     cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		defer a.Close()
		return writeAnalyzers(cmd.OutOrStdout(), a.registry)
	},
}

func init() {
	rootCmd.AddCommand(analyzersCmd)
}

func writeAnalyzers(w io.Writer, registry *analysis.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ANALYZER\tFILES")
	for _, name := range registry.Names() {
		fmt.Fprintf(tw, "%s\t%s\n", name, strings.Join(registry.Keys(name), " "))
	}
	return tw.Flush()
}
