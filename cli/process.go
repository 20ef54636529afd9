package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/warp/leave-engine/export"
	"github.com/warp/leave-engine/factory"
	"github.com/warp/leave-engine/ingest"
	"github.com/warp/leave-engine/leave"
)

var (
	rulesPath  string
	outPath    string
	pdfPath    string
	workers    int
	showMisses bool
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process <input.xlsx|input.csv>",
	Short: "Process a roster export into the structured leave report",
	Long: `Process reads a roster export (.xlsx or .csv), parses every row's
leave-details text, splits ranges of the configured types at the period
boundary, and writes the structured report.

Parse misses reduce the output but never fail the run; use --misses to
list them on stderr.

Example:
  leavectl process roster.xlsx
  leavectl process roster.csv --out report.csv --pdf report.pdf
  leavectl process roster.xlsx --rules rules.json --misses`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&rulesPath, "rules", "", "rules JSON file (default: shipped rules)")
	processCmd.Flags().StringVar(&outPath, "out", export.DefaultFilename, "output CSV path")
	processCmd.Flags().StringVar(&pdfPath, "pdf", "", "also write a PDF report to this path")
	processCmd.Flags().IntVar(&workers, "workers", 0, "parallel row workers (0 = CPU count)")
	processCmd.Flags().BoolVar(&showMisses, "misses", false, "list parse misses on stderr")
}

func runProcess(cmd *cobra.Command, args []string) error {
	input := args[0]
	errw := cmd.ErrOrStderr()

	path := rulesPath
	if path == "" {
		path = viper.GetString("rules")
	}
	rules, err := factory.LoadRules(path)
	if err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	engine, err := leave.New(rules.Config)
	if err != nil {
		return fmt.Errorf("rules: %w", err)
	}

	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}
	defer f.Close()

	rows, err := ingest.Read(f, input)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	if verbose {
		fmt.Fprintf(errw, "Input: %s (%d rows)\n", input, len(rows))
		fmt.Fprintf(errw, "Boundary: %s\n", engine.Tokens().Format(engine.Boundary()))
		fmt.Fprintf(errw, "Splittable: %v\n", engine.SplittableTypes())
	}

	result, err := engine.ProcessBatch(cmd.Context(), rows, workers)
	if err != nil {
		return fmt.Errorf("processing: %w", err)
	}

	if err := writeCSVFile(outPath, result.Segments, rules); err != nil {
		return err
	}
	if pdfPath != "" {
		if err := writePDFFile(pdfPath, input, result.Segments, engine, rules); err != nil {
			return err
		}
	}

	fmt.Fprintf(errw, "Processed %d rows into %d segments (%d misses)\n",
		result.Rows, len(result.Segments), len(result.Misses))
	fmt.Fprintf(errw, "Wrote %s\n", outPath)
	if pdfPath != "" {
		fmt.Fprintf(errw, "Wrote %s\n", pdfPath)
	}

	if showMisses {
		printMisses(errw, result.Misses)
	}

	return nil
}

func exportOptions(rules factory.RuleSet) export.Options {
	return export.Options{
		Tokens:           rules.Config.Tokens,
		IncludeAuthority: rules.IncludeAuthority,
	}
}

func writeCSVFile(path string, segments []leave.Segment, rules factory.RuleSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if err := export.WriteCSV(f, segments, exportOptions(rules)); err != nil {
		f.Close()
		return fmt.Errorf("output: %w", err)
	}
	return f.Close()
}

func writePDFFile(path, source string, segments []leave.Segment, engine *leave.Engine, rules factory.RuleSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	meta := export.Meta{
		Source:      source,
		GeneratedAt: time.Now(),
		Boundary:    engine.Tokens().Format(engine.Boundary()),
		Splittable:  engine.SplittableTypes(),
	}
	if err := export.WritePDF(f, segments, meta, exportOptions(rules)); err != nil {
		f.Close()
		return fmt.Errorf("output: %w", err)
	}
	return f.Close()
}

func printMisses(w io.Writer, misses []leave.RowMiss) {
	if len(misses) == 0 {
		fmt.Fprintln(w, "No parse misses")
		return
	}
	fmt.Fprintln(w, "\nParse misses:")
	for _, m := range misses {
		fmt.Fprintf(w, "  row %d [%s] %q: %v\n", m.Row, m.Stage, m.Input, m.Err)
	}
}
