package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/tuannm99/novalogic/internal"
	"github.com/tuannm99/novalogic/internal/logictest"
	"github.com/tuannm99/novalogic/internal/slt"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 && args[0] == "errors" {
		return runErrors(args[1:], stdout, stderr)
	}

	flags := pflag.NewFlagSet("novalogic", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "YAML config file")
	flags.String("engine", logictest.EngineNovaSQL, "engine under test: novasql or sqlite")
	flags.String("classifier", string(logictest.ClassifyAuto), "statement classifier: auto, lexical or syntactic")
	flags.String("type-resolution", string(logictest.ResolveValues), "column type resolution: values or schema")
	flags.String("runner", internal.RunnerBuiltin, "script runner: builtin or logictest")
	flags.Bool("fail-fast", false, "stop on first test failure")
	flags.BoolP("verbose", "v", false, "enable debug logging")
	flags.Int("parallel", 1, "test files run at once in directory mode")
	flags.Bool("strict-types", false, "fail queries whose column types differ from the header")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: novalogic [flags] <file.slt|dir>\n       novalogic errors <log>\n\nflags:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return 2
	}

	cfg, err := internal.LoadConfig(*configPath, flags)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	log := logrus.New()
	log.SetOutput(stderr)
	log.SetLevel(logrus.WarnLevel)
	if cfg.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	s := &suite{cfg: cfg, log: log, stdout: stdout, stderr: stderr}

	path := flags.Arg(0)
	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: Path %s does not exist\n", path)
		return 1
	}

	if !info.IsDir() {
		fmt.Fprintf(stdout, "Running test: %s\n", path)
		if _, err := s.runFile(path); err != nil {
			fmt.Fprintf(stderr, "%s %s - Error: %v\n", failMark, path, err)
			return 1
		}
		fmt.Fprintln(stdout, "All tests completed successfully!")
		return 0
	}

	files, err := slt.CollectTestFiles(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Found %s test files\n", humanize.Comma(int64(len(files))))

	if s.runAll(files) {
		return 1
	}
	fmt.Fprintln(stdout, "All tests completed successfully!")
	return 0
}

var (
	passMark = color.GreenString("✓")
	failMark = color.RedString("✗")
)

type suite struct {
	cfg    *internal.LogicTestConfig
	log    *logrus.Logger
	stdout io.Writer
	stderr io.Writer

	mu sync.Mutex
}

// runFile runs one file in a fresh session.
func (s *suite) runFile(path string) (slt.Stats, error) {
	opts := s.cfg.AdapterOptions(s.log)

	if s.cfg.Runner == internal.RunnerLogicTest {
		h := logictest.NewHarness(s.cfg.Engine, opts)
		defer func() { _ = h.Close() }()
		return runUpstream(h, path, s.log)
	}

	db, err := logictest.Open(s.cfg.Engine, opts)
	if err != nil {
		return slt.Stats{}, err
	}
	defer func() { _ = db.Close() }()

	r := slt.NewRunner(db, slt.Options{
		StrictTypes: s.cfg.StrictTypes,
		Logger:      s.log.WithField("file", path),
	})
	return r.RunFile(path)
}

// runAll runs files on up to cfg.Parallel workers and prints one line per
// file. It reports whether any file failed.
func (s *suite) runAll(files []string) (failed bool) {
	var (
		passed, failures atomic.Int64
		statements       atomic.Int64
		queries          atomic.Int64
		skipped          atomic.Int64
	)

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(s.cfg.Parallel)

	for _, file := range files {
		file := file
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			st, err := s.runFile(file)
			statements.Add(int64(st.Statements))
			queries.Add(int64(st.Queries))
			skipped.Add(int64(st.Skipped))

			s.mu.Lock()
			defer s.mu.Unlock()
			if err != nil {
				failures.Add(1)
				fmt.Fprintf(s.stderr, "%s %s - Error: %v\n", failMark, file, err)
				if s.cfg.FailFast {
					return err
				}
				return nil
			}
			passed.Add(1)
			fmt.Fprintf(s.stdout, "%s %s\n", passMark, file)
			return nil
		})
	}
	_ = g.Wait()

	fmt.Fprintf(s.stdout, "%s passed, %s failed (%s statements, %s queries, %s skipped)\n",
		humanize.Comma(passed.Load()),
		humanize.Comma(failures.Load()),
		humanize.Comma(statements.Load()),
		humanize.Comma(queries.Load()),
		humanize.Comma(skipped.Load()),
	)
	return failures.Load() > 0
}
