package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/ezachrisen/rulekit"
	"github.com/ezachrisen/rulekit/cel"
	"github.com/markbates/inflect"
	"github.com/spf13/cobra"
)

var evalFlags struct {
	id           string
	data         string
	dataFile     string
	explain      bool
	engine       string
	shortCircuit bool
	maxDepth     int
}

var evalCmd = &cobra.Command{
	Use:   "eval [rule]",
	Short: "Evaluate a rule against records",
	Long: `Evaluate a rule against one record (--data) or a file of records with one
JSON object per line (--data-file).

Examples:
  # Evaluate a rule given on the command line
  rulekit eval "age > 30 AND department = 'Sales'" --data '{"age": 41, "department": "Sales"}'

  # Evaluate a configured rule against many records with CEL
  rulekit eval --config rules.yaml --id senior_sales --data-file people.jsonl --engine cel

  # Show how each part of the rule evaluated
  rulekit eval "age > 30 OR salary > 1000" --data '{"age": 20, "salary": 5000}' --explain`,
	Args: cobra.MaximumNArgs(1),
	RunE: evalRule,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVar(&evalFlags.id, "id", "", "ID of a configured rule")
	evalCmd.Flags().StringVarP(&evalFlags.data, "data", "d", "", "record as a JSON object")
	evalCmd.Flags().StringVarP(&evalFlags.dataFile, "data-file", "f", "", "file of JSON records, one per line")
	evalCmd.Flags().BoolVar(&evalFlags.explain, "explain", false, "print a diagnostic report for each record")
	evalCmd.Flags().StringVar(&evalFlags.engine, "engine", "native", "evaluation engine: native, cel")
	evalCmd.Flags().BoolVar(&evalFlags.shortCircuit, "short-circuit", false, "skip operands that cannot change the result (native engine only)")
	evalCmd.Flags().IntVar(&evalFlags.maxDepth, "max-depth", 0, "maximum tree depth, 0 for no limit (native engine only)")
}

func evalRule(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	var n rulekit.Node
	var source string
	switch {
	case evalFlags.id != "" && len(args) > 0:
		return fmt.Errorf("give either a rule or --id, not both")
	case evalFlags.id != "":
		r, err := a.reg.Get(evalFlags.id)
		if err != nil {
			return err
		}
		n, source = r.AST, r.Expr
	case len(args) == 1:
		source = args[0]
		if n, err = a.compile(source); err != nil {
			return err
		}
	default:
		return fmt.Errorf("a rule or --id must be given")
	}

	records, err := readRecords(cmd.InOrStdin())
	if err != nil {
		return err
	}

	evaluate, err := a.evaluator(n)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var passed, failed, errored int64
	for i, rec := range records {
		if evalFlags.explain {
			d, _, _ := rulekit.Explain(n, rec, a.evalOptions()...)
			fmt.Fprintln(out, d.AsString(source, rec))
		}
		pass, err := evaluate(rec)
		switch {
		case err != nil:
			errored++
			fmt.Fprintf(out, "record %d: error: %v\n", i+1, err)
		case pass:
			passed++
			fmt.Fprintf(out, "record %d: PASS\n", i+1)
		default:
			failed++
			fmt.Fprintf(out, "record %d: FAIL\n", i+1)
		}
	}

	fmt.Fprintf(out, "%s: %s passed, %s failed, %s\n",
		count(int64(len(records)), "record"), humanize.Comma(passed), humanize.Comma(failed), count(errored, "error"))
	a.log.Info("evaluation finished", "engine", evalFlags.engine, "records", len(records),
		"passed", passed, "failed", failed, "errors", errored)
	return nil
}

func (a *app) evalOptions() []rulekit.EvalOption {
	return []rulekit.EvalOption{
		rulekit.ShortCircuit(evalFlags.shortCircuit),
		rulekit.MaxDepth(evalFlags.maxDepth),
	}
}

// count formats n with the noun, pluralized unless n is 1.
func count(n int64, noun string) string {
	if n != 1 {
		noun = inflect.Pluralize(noun)
	}
	return humanize.Comma(n) + " " + noun
}

// evaluator returns the function evaluating n with the selected engine.
func (a *app) evaluator(n rulekit.Node) (func(map[string]any) (bool, error), error) {
	switch evalFlags.engine {
	case "native", "":
		opts := a.evalOptions()
		return func(rec map[string]any) (bool, error) {
			return rulekit.Evaluate(n, rec, opts...)
		}, nil
	case "cel":
		if evalFlags.shortCircuit || evalFlags.maxDepth > 0 {
			return nil, fmt.Errorf("--short-circuit and --max-depth apply to the native engine only")
		}
		prg, err := cel.Compile(n, a.schema)
		if err != nil {
			return nil, err
		}
		a.log.Debug("CEL program built", "source", prg.Source())
		return prg.Eval, nil
	}
	return nil, fmt.Errorf("unknown engine %q", evalFlags.engine)
}

// readRecords reads the records given with --data or --data-file. A
// --data-file of "-" reads stdin.
func readRecords(stdin io.Reader) ([]map[string]any, error) {
	switch {
	case evalFlags.data != "" && evalFlags.dataFile != "":
		return nil, fmt.Errorf("--data and --data-file cannot be used together")
	case evalFlags.data != "":
		rec, err := rulekit.DecodeRecord([]byte(evalFlags.data))
		if err != nil {
			return nil, err
		}
		return []map[string]any{rec}, nil
	case evalFlags.dataFile != "":
		r := stdin
		if evalFlags.dataFile != "-" {
			f, err := os.Open(evalFlags.dataFile)
			if err != nil {
				return nil, fmt.Errorf("opening data file: %w", err)
			}
			defer f.Close()
			r = f
		}
		return scanRecords(r)
	}
	return nil, fmt.Errorf("either --data or --data-file must be specified")
}

func scanRecords(r io.Reader) ([]map[string]any, error) {
	var records []map[string]any
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		rec, err := rulekit.DecodeRecord(sc.Bytes())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	return records, nil
}
