package planner

import (
	"github.com/tuannm99/novalogic/internal/catalog"
	"github.com/tuannm99/novalogic/internal/record"
	"github.com/tuannm99/novalogic/internal/sql/parser"
)

// Plan is the interface for executable plans.
type Plan interface {
	planNode()
}

// ----- DDL -----

type CreateTablePlan struct {
	TableName   string
	Schema      record.Schema
	Schemaless  bool
	IfNotExists bool
}

func (*CreateTablePlan) planNode() {}

type DropTablePlan struct {
	TableNames []string
	IfExists   bool
}

func (*DropTablePlan) planNode() {}

type AlterTablePlan struct {
	TableName string
	RenameTo  string
	AddColumn *record.Column
}

func (*AlterTablePlan) planNode() {}

type CreateIndexPlan struct {
	TableName string
	Index     catalog.IndexMeta
}

func (*CreateIndexPlan) planNode() {}

type DropIndexPlan struct {
	TableName string // empty => search all tables
	IndexName string
}

func (*DropIndexPlan) planNode() {}

type DropFunctionPlan struct {
	Name     string
	IfExists bool
}

func (*DropFunctionPlan) planNode() {}

// ----- DML -----

// InsertPlan carries the target position of every supplied value. For a
// schemaless table Targets is nil and Columns names the document keys.
type InsertPlan struct {
	Table   *catalog.TableMeta
	Columns []string
	Targets []int
	Rows    [][]parser.Expr
}

func (*InsertPlan) planNode() {}

// SelectPlan scans Table (nil => one empty row), filters, sorts, limits and
// projects.
type SelectPlan struct {
	Table   *catalog.TableMeta
	Items   []parser.SelectItem
	Where   parser.Expr
	OrderBy []parser.OrderItem
	Limit   *int64
}

func (*SelectPlan) planNode() {}

type UpdatePlan struct {
	Table       *catalog.TableMeta
	Targets     []int
	Assignments []parser.Assignment
	Where       parser.Expr
}

func (*UpdatePlan) planNode() {}

type DeletePlan struct {
	Table *catalog.TableMeta
	Where parser.Expr
}

func (*DeletePlan) planNode() {}

// ----- transactions / introspection -----

type BeginPlan struct{}
type CommitPlan struct{}
type RollbackPlan struct{}

func (*BeginPlan) planNode()    {}
func (*CommitPlan) planNode()   {}
func (*RollbackPlan) planNode() {}

type ShowColumnsPlan struct {
	Table *catalog.TableMeta
}

func (*ShowColumnsPlan) planNode() {}

type ShowVariablePlan struct {
	Name string
}

func (*ShowVariablePlan) planNode() {}
