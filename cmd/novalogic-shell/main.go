package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/tuannm99/novalogic/internal"
	"github.com/tuannm99/novalogic/internal/logictest"
)

const (
	prompt     = "novalogic> "
	contPrompt = "...> "
)

// statementComplete checks for a terminating ';' outside single quotes.
func statementComplete(buf string) bool {
	inQuote := false
	for _, r := range buf {
		switch {
		case r == '\'':
			inQuote = !inQuote
		case r == ';' && !inQuote:
			return true
		}
	}
	return false
}

// trimStatement drops surrounding whitespace and the terminating ';'.
func trimStatement(buf string) string {
	return strings.TrimSuffix(strings.TrimSpace(buf), ";")
}

func isMetaCommand(line string) bool {
	return strings.HasPrefix(line, "\\") || line == "quit" || line == "exit"
}

// printOutput renders a statement outcome. Row sets print as a table whose
// header is the column type codes.
func printOutput(w io.Writer, out logictest.DBOutput, showTypes bool) {
	if out.Complete {
		fmt.Fprintf(w, "OK (%d affected)\n", out.Count)
		return
	}

	ncols := len(out.Types)
	widths := make([]int, ncols)
	header := make([]string, ncols)
	for i, t := range out.Types {
		header[i] = string(t.Char())
		widths[i] = len(header[i])
	}
	for _, row := range out.Rows {
		for i := 0; i < ncols && i < len(row); i++ {
			widths[i] = max(widths[i], len(row[i]))
		}
	}

	printRow := func(values []string) {
		for i := 0; i < ncols; i++ {
			if i > 0 {
				fmt.Fprint(w, " | ")
			}
			var v string
			if i < len(values) {
				v = values[i]
			}
			fmt.Fprint(w, padRight(v, widths[i]))
		}
		fmt.Fprintln(w)
	}

	if showTypes && ncols > 0 {
		printRow(header)
		for i := range widths {
			if i > 0 {
				fmt.Fprint(w, "-+-")
			}
			fmt.Fprint(w, strings.Repeat("-", widths[i]))
		}
		fmt.Fprintln(w)
	}
	for _, row := range out.Rows {
		printRow(row)
	}
	fmt.Fprintf(w, "(%d rows)\n", len(out.Rows))
}

func padRight(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

const helpText = `meta commands:
  \q | quit | exit       quit
  \history               print history
  \types                 toggle the column type row
  \help                  show help

sql:
  end statements with ';'
  multiline input is supported (the shell waits for ';')`

func main() {
	flags := pflag.NewFlagSet("novalogic-shell", pflag.ExitOnError)
	configPath := flags.String("config", "", "YAML config file")
	flags.String("engine", logictest.EngineNovaSQL, "engine: novasql or sqlite")
	flags.String("classifier", string(logictest.ClassifyAuto), "statement classifier: auto, lexical or syntactic")
	flags.String("type-resolution", string(logictest.ResolveValues), "column type resolution: values or schema")
	flags.BoolP("verbose", "v", false, "enable debug logging")
	flags.String("history-file", "", "history file path (default ~/.novalogic_history)")
	flags.Int("history-max", 2000, "max history lines loaded into memory")
	oneShotSQL := flags.StringP("command", "c", "", "execute one statement and exit")
	_ = flags.Parse(os.Args[1:])

	cfg, err := internal.LoadConfig(*configPath, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	if cfg.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	db, err := logictest.Open(cfg.Engine, cfg.AdapterOptions(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "open: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if strings.TrimSpace(*oneShotSQL) != "" {
		out, err := db.Run(trimStatement(*oneShotSQL))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			_ = db.Close()
			os.Exit(1)
		}
		printOutput(os.Stdout, out, true)
		return
	}

	histPath := cfg.Shell.HistoryFile
	if histPath == "" {
		histPath = defaultHistoryPath()
	}
	h := NewHistory(histPath)
	_ = h.Load(cfg.Shell.HistoryMax)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		_ = db.Close()
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	for _, line := range h.lines {
		_ = rl.SaveHistory(line)
	}

	var (
		buf       strings.Builder
		showTypes = true
	)

	fmt.Printf("%s session, %s type resolution\n", db.EngineName(), cfg.TypeResolution)
	fmt.Println(`type \help for help`)

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			// Ctrl+C clears the pending statement
			if buf.Len() > 0 {
				buf.Reset()
				rl.SetPrompt(prompt)
			}
			continue
		}
		if err != nil {
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buf.Len() == 0 && isMetaCommand(line) {
			switch line {
			case "\\q", "quit", "exit":
				return
			case "\\help":
				fmt.Println(helpText)
			case "\\history":
				h.Print(os.Stdout, 50)
			case "\\types":
				showTypes = !showTypes
				fmt.Printf("type row %s\n", map[bool]string{true: "on", false: "off"}[showTypes])
			default:
				fmt.Printf("unknown command: %s\n", line)
			}
			continue
		}

		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)

		if !statementComplete(buf.String()) {
			rl.SetPrompt(contPrompt)
			continue
		}

		stmt := trimStatement(buf.String())
		buf.Reset()
		rl.SetPrompt(prompt)

		_ = h.Append(stmt + ";")
		_ = rl.SaveHistory(compactOneLine(stmt + ";"))

		out, err := db.Run(stmt)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		printOutput(os.Stdout, out, showTypes)
	}
}
