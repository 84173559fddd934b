package logictest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dolthub/vitess/go/vt/sqlparser"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

// StatementKind tells whether a statement is expected to return rows.
type StatementKind uint8

const (
	KindEffect StatementKind = iota
	KindRead
)

func (k StatementKind) String() string {
	if k == KindRead {
		return "read"
	}
	return "effect"
}

// Classification is the classifier verdict for one statement. Table is the
// first relation referenced, when the classifier extracts it.
type Classification struct {
	Kind  StatementKind
	Table string
}

// Classifier decides read vs effect for a raw statement.
type Classifier interface {
	Classify(sql string) (Classification, error)
}

// ClassifierMode selects a Classifier implementation.
type ClassifierMode string

const (
	// ClassifyAuto picks lexical for value inference and syntactic for
	// schema introspection, which needs the table name.
	ClassifyAuto      ClassifierMode = "auto"
	ClassifyLexical   ClassifierMode = "lexical"
	ClassifySyntactic ClassifierMode = "syntactic"
)

func ParseClassifierMode(s string) (ClassifierMode, error) {
	switch m := ClassifierMode(strings.ToLower(s)); m {
	case ClassifyAuto, ClassifyLexical, ClassifySyntactic:
		return m, nil
	}
	return "", fmt.Errorf("unknown classifier %q (want auto, lexical or syntactic)", s)
}

// NewClassifier builds the classifier for mode under the given type
// resolution strategy. Schema resolution needs the table name, which only
// the syntactic classifier extracts, so a lexical request is upgraded.
func NewClassifier(mode ClassifierMode, resolution TypeResolution, log logrus.FieldLogger) Classifier {
	switch mode {
	case ClassifyLexical:
		if resolution == ResolveSchema {
			log.Warn("lexical classifier cannot resolve schema types, using syntactic")
			return NewSyntacticClassifier(defaultClassifierCacheSize)
		}
		return LexicalClassifier{}
	case ClassifySyntactic:
		return NewSyntacticClassifier(defaultClassifierCacheSize)
	}
	if resolution == ResolveSchema {
		return NewSyntacticClassifier(defaultClassifierCacheSize)
	}
	return LexicalClassifier{}
}

// LexicalClassifier looks only at the first word.
type LexicalClassifier struct{}

func (LexicalClassifier) Classify(sql string) (Classification, error) {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return Classification{}, ErrEmptyStatement.New()
	}
	if strings.EqualFold(fields[0], "SELECT") {
		return Classification{Kind: KindRead}, nil
	}
	return Classification{Kind: KindEffect}, nil
}

const defaultClassifierCacheSize = 1024

// SyntacticClassifier parses statements with the MySQL grammar. Scripts
// repeat statements a lot, so verdicts are cached by statement text.
type SyntacticClassifier struct {
	cache *lru.Cache[string, Classification]
}

func NewSyntacticClassifier(size int) *SyntacticClassifier {
	cache, err := lru.New[string, Classification](size)
	if err != nil {
		// only a non-positive size fails
		panic(err)
	}
	return &SyntacticClassifier{cache: cache}
}

// errStopWalk ends the tree walk at the first table reference.
var errStopWalk = errors.New("stop walk")

func (c *SyntacticClassifier) Classify(sql string) (Classification, error) {
	if strings.TrimSpace(sql) == "" {
		return Classification{}, ErrEmptyStatement.New()
	}
	if cl, ok := c.cache.Get(sql); ok {
		return cl, nil
	}

	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return Classification{}, ErrClassify.New(err)
	}

	var cl Classification
	if _, ok := stmt.(sqlparser.SelectStatement); ok {
		cl.Kind = KindRead
	}
	if cl.Table, err = firstTable(stmt); err != nil {
		return Classification{}, ErrClassify.New(err)
	}

	c.cache.Add(sql, cl)
	return cl, nil
}

// firstTable returns the first table the statement references. The grammar
// fills an empty FROM with DUAL, which is not a real table.
func firstTable(stmt sqlparser.Statement) (string, error) {
	var name string
	err := sqlparser.Walk(func(node sqlparser.SQLNode) (kontinue bool, err error) {
		switch n := node.(type) {
		case *sqlparser.AliasedTableExpr:
			if tn, ok := n.Expr.(sqlparser.TableName); ok && !tn.Name.IsEmpty() {
				name = tn.Name.String()
				return false, errStopWalk
			}
		case sqlparser.TableName:
			if !n.Name.IsEmpty() {
				name = n.Name.String()
				return false, errStopWalk
			}
		}
		return true, nil
	}, stmt)
	if err != nil && !errors.Is(err, errStopWalk) {
		return "", err
	}
	if strings.EqualFold(name, "dual") {
		return "", nil
	}
	return name, nil
}
