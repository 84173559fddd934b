package main

import (
	"fmt"
	"os"
	"sync"

	sqllogictest "github.com/dolthub/sqllogictest/go/logictest"
	"github.com/dolthub/sqllogictest/go/logictest/parser"
	"github.com/sirupsen/logrus"

	"github.com/tuannm99/novalogic/internal/slt"
)

// upstreamMu serializes upstream runs. The upstream runner keeps the current
// file and record in package globals and writes its result log to os.Stdout.
var upstreamMu sync.Mutex

// runUpstream runs one file through the upstream runner, capturing its result
// log in a temp file and reading it back. Any record logged as not ok, timed
// out or not run fails the file.
func runUpstream(h sqllogictest.Harness, path string, log logrus.FieldLogger) (slt.Stats, error) {
	entries, err := captureResults(h, path)
	if err != nil {
		return slt.Stats{}, err
	}

	kinds := map[int]parser.RecordType{}
	if records, err := parser.ParseTestFile(path); err == nil {
		for _, rec := range records {
			if rec == nil {
				continue
			}
			kinds[rec.LineNum()] = rec.Type()
		}
	}

	var (
		st       slt.Stats
		failures []*sqllogictest.ResultLogEntry
	)
	for _, e := range entries {
		switch e.Result {
		case sqllogictest.Skipped:
			st.Skipped++
			continue
		case sqllogictest.NotOk, sqllogictest.Timeout, sqllogictest.DidNotRun:
			failures = append(failures, e)
			log.WithFields(logrus.Fields{"file": path, "line": e.LineNum}).
				Errorf("%s: %s", resultName(e.Result), e.ErrorMessage)
		}
		if kinds[e.LineNum] == parser.Query {
			st.Queries++
		} else {
			st.Statements++
		}
	}

	if len(failures) == 0 {
		return st, nil
	}
	first := failures[0]
	msg := first.ErrorMessage
	if msg == "" {
		msg = resultName(first.Result)
	}
	return st, &slt.TestError{
		File: path,
		Line: first.LineNum,
		SQL:  first.Query,
		Err:  fmt.Errorf("%s (%d of %d records failed)", msg, len(failures), len(entries)),
	}
}

func captureResults(h sqllogictest.Harness, path string) (entries []*sqllogictest.ResultLogEntry, err error) {
	upstreamMu.Lock()
	defer upstreamMu.Unlock()

	logFile, err := os.CreateTemp("", "novalogic-*.log")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(logFile.Name()) }()

	// the upstream runner and result parser panic on setup and parse errors
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("logictest runner: %v", r)
		}
	}()

	stdout := os.Stdout
	os.Stdout = logFile
	func() {
		defer func() { os.Stdout = stdout }()
		sqllogictest.RunTestFiles(h, path)
	}()

	if err := logFile.Close(); err != nil {
		return nil, err
	}
	return sqllogictest.ParseResultFile(logFile.Name())
}

func resultName(rt sqllogictest.ResultType) string {
	switch rt {
	case sqllogictest.NotOk:
		return "not ok"
	case sqllogictest.Timeout:
		return "timeout"
	case sqllogictest.DidNotRun:
		return "did not run"
	case sqllogictest.Skipped:
		return "skipped"
	}
	return "ok"
}
