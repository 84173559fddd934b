package parser

// Statement is the root interface for all SQL statements.
type Statement interface {
	stmtNode()
}

// ----- CREATE TABLE -----
type ColumnDef struct {
	Name    string
	Type    string // declared type name, upper-cased, without size arguments
	NotNull bool
}

// CreateTableStmt with no Columns creates a schemaless table.
type CreateTableStmt struct {
	TableName   string
	Columns     []ColumnDef
	IfNotExists bool
}

func (*CreateTableStmt) stmtNode() {}

// ----- DROP TABLE -----
type DropTableStmt struct {
	TableNames []string
	IfExists   bool
}

func (*DropTableStmt) stmtNode() {}

// ----- ALTER TABLE -----
type AlterTableStmt struct {
	TableName string
	RenameTo  string     // RENAME TO <name>
	AddColumn *ColumnDef // ADD [COLUMN] <def>
}

func (*AlterTableStmt) stmtNode() {}

// ----- INDEX -----
type CreateIndexStmt struct {
	IndexName string
	TableName string
	Column    string
}

func (*CreateIndexStmt) stmtNode() {}

type DropIndexStmt struct {
	TableName string // optional "t." qualifier
	IndexName string
}

func (*DropIndexStmt) stmtNode() {}

// ----- DROP FUNCTION -----
type DropFunctionStmt struct {
	Name     string
	IfExists bool
}

func (*DropFunctionStmt) stmtNode() {}

// ----- INSERT -----
type InsertStmt struct {
	TableName string
	Columns   []string // empty => schema order
	Rows      [][]Expr
}

func (*InsertStmt) stmtNode() {}

// ----- SELECT -----
type SelectItem struct {
	Star  bool
	Expr  Expr
	Alias string
}

type OrderItem struct {
	Expr Expr
	Desc bool
}

// SelectStmt with an empty TableName selects a single row of constants.
type SelectStmt struct {
	Items     []SelectItem
	TableName string
	Where     Expr
	OrderBy   []OrderItem
	Limit     *int64
}

func (*SelectStmt) stmtNode() {}

// ----- UPDATE -----
type Assignment struct {
	Column string
	Value  Expr
}

type UpdateStmt struct {
	TableName   string
	Assignments []Assignment
	Where       Expr
}

func (*UpdateStmt) stmtNode() {}

// ----- DELETE -----
type DeleteStmt struct {
	TableName string
	Where     Expr
}

func (*DeleteStmt) stmtNode() {}

// ----- TRANSACTIONS -----
type BeginStmt struct{}
type CommitStmt struct{}
type RollbackStmt struct{}

func (*BeginStmt) stmtNode()    {}
func (*CommitStmt) stmtNode()   {}
func (*RollbackStmt) stmtNode() {}

// ----- SHOW -----
type ShowColumnsStmt struct {
	TableName string
}

func (*ShowColumnsStmt) stmtNode() {}

// ShowVariableStmt covers SHOW VERSION and SHOW TABLES.
type ShowVariableStmt struct {
	Name string
}

func (*ShowVariableStmt) stmtNode() {}

// ----- Expressions -----
type Expr interface {
	exprNode()
}

// LiteralExpr holds nil, int64, float64, string or bool.
type LiteralExpr struct {
	Value any
}

type ColumnRef struct {
	Name string
}

// BinaryExpr operators: + - * / % || = <> < <= > >= AND OR.
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
}

// UnaryExpr operators: - NOT.
type UnaryExpr struct {
	Op string
	X  Expr
}

type IsNullExpr struct {
	X   Expr
	Not bool
}

func (*LiteralExpr) exprNode() {}
func (*ColumnRef) exprNode()   {}
func (*BinaryExpr) exprNode()  {}
func (*UnaryExpr) exprNode()   {}
func (*IsNullExpr) exprNode()  {}
