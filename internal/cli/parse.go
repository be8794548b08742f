package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mvp-joe/cortex-codesearch/internal/document"
	"github.com/mvp-joe/cortex-codesearch/internal/parsing"
)

var (
	formatFlag  string
	explainFlag bool
	contentFlag bool
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse one file and print the resulting document",
	Long: `Parse runs a single file through the configured parsing service (with
exclusions, analyzer selection, caching, metrics and logging) and prints the
document it produces.

The content field is omitted unless --content is given. With --explain, a
file that cannot be parsed reports why: excluded, unsupported, unreadable or
analysis_failed.

Examples:
  codesearch parse internal/server/server.go
  codesearch parse Program.cs --format yaml
  codesearch parse vendor/lib.dll --explain
`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or yaml")
	parseCmd.Flags().BoolVar(&explainFlag, "explain", false, "Explain why a file was not parsed")
	parseCmd.Flags().BoolVar(&contentFlag, "content", false, "Include the content field")
}

func runParse(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", args[0], err)
	}
	rootDir, err := targetDir(nil)
	if err != nil {
		return err
	}
	return executeParse(cmd.Context(), parseOptions{
		rootDir: rootDir,
		path:    path,
		format:  formatFlag,
		explain: explainFlag,
		content: contentFlag,
	}, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

type parseOptions struct {
	rootDir string
	path    string
	format  string
	explain bool
	content bool
}

// documentOutput is the printed form of a document; fields keep their order.
type documentOutput struct {
	ID     string        `json:"id" yaml:"id"`
	Fields []fieldOutput `json:"fields" yaml:"fields"`
}

type fieldOutput struct {
	Name   string   `json:"name" yaml:"name"`
	Values []string `json:"values" yaml:"values,flow"`
}

func executeParse(ctx context.Context, opts parseOptions, stdout, stderr io.Writer) (err error) {
	if opts.format != "json" && opts.format != "yaml" {
		return fmt.Errorf("unknown format %q (valid: json, yaml)", opts.format)
	}

	a, err := newApp(appOptions{
		rootDir:    opts.rootDir,
		configFile: cfgFile,
		verbose:    verbose,
		stderr:     stderr,
	})
	if err != nil {
		return err
	}
	defer joinClose(&err, "runtime", a.Close)

	svc, err := a.service()
	if err != nil {
		return err
	}

	file, err := parsing.NewFile(opts.path)
	if err != nil {
		return err
	}

	doc, ok := svc.TryParse(ctx, file)
	if !ok {
		if opts.explain {
			if reason := a.base.Explain(ctx, file); reason != nil {
				return fmt.Errorf("parse failed for %s: %s: %w", file.Path(), parsing.Reason(reason), reason)
			}
		}
		return fmt.Errorf("parse failed for %s (use --explain for the reason)", file.Path())
	}

	return writeDocument(stdout, doc, opts.format, opts.content)
}

func writeDocument(w io.Writer, doc *document.Document, format string, withContent bool) error {
	out := documentOutput{ID: doc.ID}
	for _, f := range doc.Fields() {
		if f.Name == document.FieldContent && !withContent {
			continue
		}
		out.Fields = append(out.Fields, fieldOutput{Name: f.Name, Values: f.Values})
	}

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		return nil
	}
}
