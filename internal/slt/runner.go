package slt

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tuannm99/novalogic/internal/logictest"
)

// TestError locates a failed record.
type TestError struct {
	File string
	Line int
	SQL  string
	Err  error
}

func (e *TestError) Error() string {
	return fmt.Sprintf("%s:%d: %v\n[SQL] %s", e.File, e.Line, e.Err, e.SQL)
}

func (e *TestError) Unwrap() error { return e.Err }

type Options struct {
	// StrictTypes fails queries whose resolved column types differ from the
	// header.
	StrictTypes bool
	Logger      logrus.FieldLogger
}

// Runner executes scripts against one adapter session.
type Runner struct {
	db   logictest.DB
	opts Options
	log  logrus.FieldLogger

	hashThreshold int
	labels        map[string]string
}

func NewRunner(db logictest.DB, opts Options) *Runner {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Runner{
		db:     db,
		opts:   opts,
		log:    log,
		labels: make(map[string]string),
	}
}

// Stats counts what a script run did.
type Stats struct {
	Statements int
	Queries    int
	Skipped    int
}

// RunFile parses and runs the script at path.
func (r *Runner) RunFile(path string) (Stats, error) {
	s, err := ParseFile(path)
	if err != nil {
		return Stats{}, err
	}
	return r.Run(s)
}

// Run executes every record of s in order and stops at the first failure.
func (r *Runner) Run(s *Script) (Stats, error) {
	var st Stats
	engine := r.db.EngineName()

	for _, rec := range s.Records {
		switch rec := rec.(type) {
		case *HashThreshold:
			r.hashThreshold = rec.N

		case *Halt:
			if rec.Conditions.Skip(engine) {
				continue
			}
			r.log.WithField("line", rec.Line).Debugf("%s: halt", s.Name)
			return st, nil

		case *Statement:
			if rec.Conditions.Skip(engine) {
				st.Skipped++
				continue
			}
			st.Statements++
			if err := r.statement(rec); err != nil {
				return st, &TestError{File: s.Name, Line: rec.Line, SQL: rec.SQL, Err: err}
			}

		case *Query:
			if rec.Conditions.Skip(engine) {
				st.Skipped++
				continue
			}
			st.Queries++
			if err := r.query(rec); err != nil {
				return st, &TestError{File: s.Name, Line: rec.Line, SQL: rec.SQL, Err: err}
			}
		}
	}
	return st, nil
}

func (r *Runner) statement(s *Statement) error {
	out, err := r.db.Run(s.SQL)
	switch s.Expect {
	case ExpectError:
		if err == nil {
			return fmt.Errorf("statement is expected to fail, but succeeded")
		}
		return matchError(s.ErrorPattern, err)
	case ExpectCount:
		if err != nil {
			return fmt.Errorf("statement failed: %w", err)
		}
		if !out.Complete {
			return fmt.Errorf("expected %d affected rows, statement returned rows", s.Count)
		}
		if out.Count != s.Count {
			return fmt.Errorf("expected %d affected rows, got %d", s.Count, out.Count)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("statement failed: %w", err)
	}
	return nil
}

func (r *Runner) query(q *Query) error {
	out, err := r.db.Run(q.SQL)
	if q.ExpectError {
		if err == nil {
			return fmt.Errorf("query is expected to fail, but succeeded")
		}
		return matchError(q.ErrorPattern, err)
	}
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if out.Complete {
		return fmt.Errorf("query returned no rows (%d affected)", out.Count)
	}
	if err := checkTypes(q, out, r.opts.StrictTypes); err != nil {
		return err
	}

	rows := resultValues(q, out)
	vals := flatten(rows)
	if q.Sort == ValueSort {
		slices.Sort(vals)
	}
	summary := hashSummary(len(vals), hashValues(vals))

	if q.Label != "" {
		if prev, ok := r.labels[q.Label]; ok && prev != summary {
			return fmt.Errorf("label %s: result differs from the earlier query (%s vs %s)", q.Label, prev, summary)
		}
		r.labels[q.Label] = summary
	}

	switch {
	case q.Hash != "":
		want := hashSummary(q.HashCount, q.Hash)
		if summary != want {
			return mismatch([]string{want}, []string{summary})
		}
	case !matchExpected(rows, vals, q.Expected):
		if r.hashThreshold > 0 && len(vals) > r.hashThreshold {
			// too many values to print
			return mismatch([]string{hashSummary(len(q.Expected), hashValues(q.Expected))}, []string{summary})
		}
		return mismatch(q.Expected, vals)
	}
	return nil
}

func matchError(pattern string, err error) error {
	if pattern == "" {
		return nil
	}
	re, rerr := regexp.Compile(pattern)
	if rerr != nil {
		if strings.Contains(err.Error(), pattern) {
			return nil
		}
	} else if re.MatchString(err.Error()) {
		return nil
	}
	return fmt.Errorf("error %q does not match %q", err.Error(), pattern)
}

// CollectTestFiles returns the .slt and .test files under dir, sorted.
func CollectTestFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".slt", ".test":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect test files: %w", err)
	}
	slices.Sort(files)
	return files, nil
}
