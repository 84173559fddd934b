// Package slt parses and runs sqllogictest scripts against a logictest.DB.
package slt

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/tuannm99/novalogic/internal/logictest"
)

// Record is one executable entry of a script.
type Record interface {
	Pos() int
}

// Condition is a skipif/onlyif line guarding the record that follows it.
type Condition struct {
	Only   bool
	Engine string
}

type Conditions []Condition

// Skip reports whether a record guarded by cs must be skipped on engine.
func (cs Conditions) Skip(engine string) bool {
	for _, c := range cs {
		match := strings.EqualFold(c.Engine, engine)
		if c.Only != match {
			return true
		}
	}
	return false
}

// StatementExpect is what a statement record expects.
type StatementExpect uint8

const (
	ExpectOK StatementExpect = iota
	ExpectError
	ExpectCount
)

type Statement struct {
	Line       int
	Conditions Conditions
	SQL        string
	Expect     StatementExpect

	// Count is checked for ExpectCount.
	Count        uint64
	// ErrorPattern, when set, must match the error message.
	ErrorPattern string
}

type SortMode uint8

const (
	NoSort SortMode = iota
	RowSort
	ValueSort
)

type Query struct {
	Line       int
	Conditions Conditions
	SQL        string
	Types      []logictest.ColumnType
	Sort       SortMode
	Label      string

	ExpectError  bool
	ErrorPattern string

	// Expected holds the result lines. Hashed results set HashCount and Hash
	// instead.
	Expected  []string
	HashCount int
	Hash      string
}

// Halt stops the script.
type Halt struct {
	Line       int
	Conditions Conditions
}

// HashThreshold makes results with more values than N compare by hash.
type HashThreshold struct {
	Line int
	N    int
}

func (s *Statement) Pos() int     { return s.Line }
func (q *Query) Pos() int         { return q.Line }
func (h *Halt) Pos() int          { return h.Line }
func (h *HashThreshold) Pos() int { return h.Line }

// Script is a parsed test file.
type Script struct {
	Name    string
	Records []Record
}

var (
	trailingComment = regexp.MustCompile(`(skipif|onlyif) ([^ ]+) #([^\n]+)\n`)
	hashLine        = regexp.MustCompile(`^(\d+) values hashing to ([0-9a-f]+)$`)
)

// EscapeTrailingComments drops comments after skipif/onlyif conditions,
// which some corpora write as "skipif mysql # not supported".
func EscapeTrailingComments(src string) string {
	return trailingComment.ReplaceAllString(src, "$1 $2\n")
}

// ParseFile reads and parses the script at path.
func ParseFile(path string) (*Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return Parse(path, string(b))
}

// Parse parses script source. name is used in errors.
func Parse(name, src string) (*Script, error) {
	p := &scriptParser{
		name:  name,
		lines: strings.Split(strings.ReplaceAll(EscapeTrailingComments(src), "\r\n", "\n"), "\n"),
	}
	recs, err := p.parse()
	if err != nil {
		return nil, err
	}
	return &Script{Name: name, Records: recs}, nil
}

type scriptParser struct {
	name  string
	lines []string
	i     int
}

func (p *scriptParser) errorf(line int, format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", p.name, line, fmt.Sprintf(format, args...))
}

func (p *scriptParser) parse() ([]Record, error) {
	var (
		recs  []Record
		conds Conditions
	)
	for p.i < len(p.lines) {
		line := strings.TrimSpace(p.lines[p.i])
		lineNo := p.i + 1
		p.i++

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.Index(line, " #"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "skipif", "onlyif":
			if len(fields) < 2 {
				return nil, p.errorf(lineNo, "%s needs an engine name", fields[0])
			}
			conds = append(conds, Condition{Only: fields[0] == "onlyif", Engine: fields[1]})
			continue

		case "halt":
			recs = append(recs, &Halt{Line: lineNo, Conditions: conds})

		case "hash-threshold":
			if len(fields) != 2 {
				return nil, p.errorf(lineNo, "hash-threshold needs a number")
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, p.errorf(lineNo, "bad hash-threshold: %v", err)
			}
			recs = append(recs, &HashThreshold{Line: lineNo, N: n})

		case "statement":
			st, err := p.statement(lineNo, fields)
			if err != nil {
				return nil, err
			}
			st.Conditions = conds
			recs = append(recs, st)

		case "query":
			q, err := p.query(lineNo, fields)
			if err != nil {
				return nil, err
			}
			q.Conditions = conds
			recs = append(recs, q)

		default:
			return nil, p.errorf(lineNo, "unknown record type %q", fields[0])
		}
		conds = nil
	}
	return recs, nil
}

// sql reads statement text up to a blank line or the result separator.
func (p *scriptParser) sql(lineNo int) (string, error) {
	var parts []string
	for p.i < len(p.lines) {
		line := strings.TrimRight(p.lines[p.i], " \t\r")
		if strings.TrimSpace(line) == "" || line == "----" {
			break
		}
		parts = append(parts, line)
		p.i++
	}
	if len(parts) == 0 {
		return "", p.errorf(lineNo, "record has no SQL")
	}
	return strings.Join(parts, "\n"), nil
}

func (p *scriptParser) statement(lineNo int, fields []string) (*Statement, error) {
	if len(fields) < 2 {
		return nil, p.errorf(lineNo, "statement needs ok, error or count")
	}
	st := &Statement{Line: lineNo}
	switch fields[1] {
	case "ok":
		st.Expect = ExpectOK
	case "error":
		st.Expect = ExpectError
		st.ErrorPattern = strings.Join(fields[2:], " ")
	case "count":
		if len(fields) != 3 {
			return nil, p.errorf(lineNo, "statement count needs a number")
		}
		n, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return nil, p.errorf(lineNo, "bad count: %v", err)
		}
		st.Expect = ExpectCount
		st.Count = n
	default:
		return nil, p.errorf(lineNo, "unknown statement expectation %q", fields[1])
	}

	sql, err := p.sql(lineNo)
	if err != nil {
		return nil, err
	}
	st.SQL = sql
	return st, nil
}

func (p *scriptParser) query(lineNo int, fields []string) (*Query, error) {
	if len(fields) < 2 {
		return nil, p.errorf(lineNo, "query needs column types")
	}
	q := &Query{Line: lineNo}

	if fields[1] == "error" {
		q.ExpectError = true
		q.ErrorPattern = strings.Join(fields[2:], " ")
	} else {
		for i := 0; i < len(fields[1]); i++ {
			q.Types = append(q.Types, logictest.ColumnTypeFromChar(fields[1][i]))
		}
		rest := fields[2:]
		if len(rest) > 0 {
			switch rest[0] {
			case "nosort":
				rest = rest[1:]
			case "rowsort":
				q.Sort = RowSort
				rest = rest[1:]
			case "valuesort":
				q.Sort = ValueSort
				rest = rest[1:]
			}
		}
		if len(rest) > 0 {
			q.Label = rest[0]
		}
	}

	sql, err := p.sql(lineNo)
	if err != nil {
		return nil, err
	}
	q.SQL = sql

	if p.i >= len(p.lines) || strings.TrimSpace(p.lines[p.i]) != "----" {
		return q, nil
	}
	p.i++

	for p.i < len(p.lines) {
		line := strings.TrimSpace(p.lines[p.i])
		if line == "" {
			break
		}
		q.Expected = append(q.Expected, line)
		p.i++
	}

	if len(q.Expected) == 1 {
		if m := hashLine.FindStringSubmatch(q.Expected[0]); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, p.errorf(lineNo, "bad hash count: %v", err)
			}
			q.HashCount, q.Hash = n, m[2]
			q.Expected = nil
		}
	}
	return q, nil
}
