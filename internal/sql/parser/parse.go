package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// reserved words cannot be used as implicit aliases.
var reserved = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "ORDER": true, "BY": true,
	"LIMIT": true, "AND": true, "OR": true, "NOT": true, "IS": true, "NULL": true,
	"AS": true, "ASC": true, "DESC": true, "VALUES": true, "SET": true,
}

// Parse parses a single SQL statement into an AST. A trailing ';' is optional.
func Parse(sql string) (Statement, error) {
	stmts, err := ParseAll(sql)
	if err != nil {
		return nil, err
	}
	if len(stmts) != 1 {
		return nil, fmt.Errorf("expected one statement, got %d", len(stmts))
	}
	return stmts[0], nil
}

// ParseAll parses a ';'-separated batch of statements.
func ParseAll(sql string) ([]Statement, error) {
	toks, err := tokenize(sql)
	if err != nil {
		return nil, err
	}

	var (
		stmts []Statement
		start int
	)
	for i, t := range toks {
		if t.kind != tokEOF && !(t.kind == tokSymbol && t.text == ";") {
			continue
		}
		if i > start {
			seg := append(append([]token(nil), toks[start:i]...), token{kind: tokEOF, pos: t.pos})
			p := &parser{toks: seg}
			stmt, err := p.statement()
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, stmt)
		}
		start = i + 1
	}
	if len(stmts) == 0 {
		return nil, fmt.Errorf("empty statement")
	}
	return stmts, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isKeyword(kw string) bool {
	t := p.peek()
	return t.kind == tokIdent && t.upper() == kw
}

func (p *parser) acceptKeyword(kws ...string) bool {
	save := p.pos
	for _, kw := range kws {
		if !p.isKeyword(kw) {
			p.pos = save
			return false
		}
		p.next()
	}
	return true
}

func (p *parser) expectKeyword(kws ...string) error {
	if !p.acceptKeyword(kws...) {
		return fmt.Errorf("syntax error: expected %s, got %s", strings.Join(kws, " "), p.peek())
	}
	return nil
}

func (p *parser) acceptSymbol(s string) bool {
	t := p.peek()
	if t.kind == tokSymbol && t.text == s {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectSymbol(s string) error {
	if !p.acceptSymbol(s) {
		return fmt.Errorf("syntax error: expected %q, got %s", s, p.peek())
	}
	return nil
}

func (p *parser) ident() (string, error) {
	t := p.peek()
	if t.kind != tokIdent {
		return "", fmt.Errorf("syntax error: expected identifier, got %s", t)
	}
	p.next()
	return t.text, nil
}

func (p *parser) end() error {
	if t := p.peek(); t.kind != tokEOF {
		return fmt.Errorf("syntax error: unexpected %s", t)
	}
	return nil
}

func (p *parser) statement() (Statement, error) {
	t := p.peek()
	if t.kind != tokIdent {
		return nil, fmt.Errorf("unsupported statement starting with %s", t)
	}

	var (
		stmt Statement
		err  error
	)
	switch t.upper() {
	case "CREATE":
		stmt, err = p.parseCreate()
	case "DROP":
		stmt, err = p.parseDrop()
	case "ALTER":
		stmt, err = p.parseAlterTable()
	case "INSERT":
		stmt, err = p.parseInsert()
	case "SELECT":
		stmt, err = p.parseSelect()
	case "UPDATE":
		stmt, err = p.parseUpdate()
	case "DELETE":
		stmt, err = p.parseDelete()
	case "BEGIN":
		p.next()
		p.acceptKeyword("TRANSACTION")
		stmt = &BeginStmt{}
	case "START":
		err = p.expectKeyword("START", "TRANSACTION")
		stmt = &BeginStmt{}
	case "COMMIT":
		p.next()
		p.acceptKeyword("TRANSACTION")
		stmt = &CommitStmt{}
	case "ROLLBACK":
		p.next()
		p.acceptKeyword("TRANSACTION")
		stmt = &RollbackStmt{}
	case "SHOW":
		stmt, err = p.parseShow()
	default:
		return nil, fmt.Errorf("unsupported statement: %s", t.text)
	}
	if err != nil {
		return nil, err
	}
	if err := p.end(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) parseCreate() (Statement, error) {
	p.next() // CREATE
	if p.acceptKeyword("UNIQUE") || p.isKeyword("INDEX") {
		return p.parseCreateIndex()
	}
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}

	stmt := &CreateTableStmt{}
	stmt.IfNotExists = p.acceptKeyword("IF", "NOT", "EXISTS")

	name, err := p.ident()
	if err != nil {
		return nil, fmt.Errorf("invalid CREATE TABLE syntax: %w", err)
	}
	stmt.TableName = name

	// no column list => schemaless
	if !p.acceptSymbol("(") {
		return stmt, nil
	}
	for {
		def, err := p.columnDef()
		if err != nil {
			return nil, fmt.Errorf("invalid CREATE TABLE syntax: %w", err)
		}
		stmt.Columns = append(stmt.Columns, def)
		if p.acceptSymbol(",") {
			continue
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		break
	}
	return stmt, nil
}

func (p *parser) columnDef() (ColumnDef, error) {
	name, err := p.ident()
	if err != nil {
		return ColumnDef{}, err
	}
	typ, err := p.ident()
	if err != nil {
		return ColumnDef{}, fmt.Errorf("missing type for column %s", name)
	}
	// size arguments are accepted and ignored: VARCHAR(10), DECIMAL(10,2)
	if p.acceptSymbol("(") {
		for !p.acceptSymbol(")") {
			if p.peek().kind == tokEOF {
				return ColumnDef{}, fmt.Errorf("unterminated type arguments for column %s", name)
			}
			p.next()
		}
	}

	def := ColumnDef{Name: name, Type: strings.ToUpper(typ)}
	for {
		switch {
		case p.acceptKeyword("NOT", "NULL"):
			def.NotNull = true
		case p.acceptKeyword("NULL"), p.acceptKeyword("UNIQUE"):
		case p.acceptKeyword("PRIMARY", "KEY"):
			def.NotNull = true
		default:
			return def, nil
		}
	}
}

func (p *parser) parseCreateIndex() (Statement, error) {
	if err := p.expectKeyword("INDEX"); err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, fmt.Errorf("invalid CREATE INDEX syntax: %w", err)
	}
	if err := p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	table, err := p.ident()
	if err != nil {
		return nil, fmt.Errorf("invalid CREATE INDEX syntax: %w", err)
	}
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	col, err := p.ident()
	if err != nil {
		return nil, fmt.Errorf("invalid CREATE INDEX syntax: %w", err)
	}
	p.acceptKeyword("ASC")
	p.acceptKeyword("DESC")
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return &CreateIndexStmt{IndexName: name, TableName: table, Column: col}, nil
}

func (p *parser) parseDrop() (Statement, error) {
	p.next() // DROP
	switch {
	case p.acceptKeyword("TABLE"):
		stmt := &DropTableStmt{IfExists: p.acceptKeyword("IF", "EXISTS")}
		for {
			name, err := p.ident()
			if err != nil {
				return nil, fmt.Errorf("invalid DROP TABLE syntax: %w", err)
			}
			stmt.TableNames = append(stmt.TableNames, name)
			if !p.acceptSymbol(",") {
				return stmt, nil
			}
		}

	case p.acceptKeyword("INDEX"):
		first, err := p.ident()
		if err != nil {
			return nil, fmt.Errorf("invalid DROP INDEX syntax: %w", err)
		}
		stmt := &DropIndexStmt{IndexName: first}
		if p.acceptSymbol(".") {
			second, err := p.ident()
			if err != nil {
				return nil, fmt.Errorf("invalid DROP INDEX syntax: %w", err)
			}
			stmt.TableName, stmt.IndexName = first, second
		}
		return stmt, nil

	case p.acceptKeyword("FUNCTION"):
		stmt := &DropFunctionStmt{IfExists: p.acceptKeyword("IF", "EXISTS")}
		name, err := p.ident()
		if err != nil {
			return nil, fmt.Errorf("invalid DROP FUNCTION syntax: %w", err)
		}
		stmt.Name = name
		return stmt, nil

	default:
		return nil, fmt.Errorf("unsupported DROP target %s", p.peek())
	}
}

func (p *parser) parseAlterTable() (Statement, error) {
	if err := p.expectKeyword("ALTER", "TABLE"); err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, fmt.Errorf("invalid ALTER TABLE syntax: %w", err)
	}
	stmt := &AlterTableStmt{TableName: name}

	switch {
	case p.acceptKeyword("RENAME", "TO"):
		to, err := p.ident()
		if err != nil {
			return nil, fmt.Errorf("invalid ALTER TABLE syntax: %w", err)
		}
		stmt.RenameTo = to
	case p.acceptKeyword("ADD"):
		p.acceptKeyword("COLUMN")
		def, err := p.columnDef()
		if err != nil {
			return nil, fmt.Errorf("invalid ALTER TABLE syntax: %w", err)
		}
		stmt.AddColumn = &def
	default:
		return nil, fmt.Errorf("unsupported ALTER TABLE action %s", p.peek())
	}
	return stmt, nil
}

func (p *parser) parseInsert() (Statement, error) {
	if err := p.expectKeyword("INSERT", "INTO"); err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, fmt.Errorf("invalid INSERT syntax: %w", err)
	}
	stmt := &InsertStmt{TableName: name}

	if p.acceptSymbol("(") {
		for {
			col, err := p.ident()
			if err != nil {
				return nil, fmt.Errorf("invalid INSERT column list: %w", err)
			}
			stmt.Columns = append(stmt.Columns, col)
			if p.acceptSymbol(",") {
				continue
			}
			if err := p.expectSymbol(")"); err != nil {
				return nil, err
			}
			break
		}
	}

	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	for {
		if err := p.expectSymbol("("); err != nil {
			return nil, err
		}
		var row []Expr
		for {
			e, err := p.expr()
			if err != nil {
				return nil, err
			}
			row = append(row, e)
			if p.acceptSymbol(",") {
				continue
			}
			if err := p.expectSymbol(")"); err != nil {
				return nil, err
			}
			break
		}
		stmt.Rows = append(stmt.Rows, row)
		if !p.acceptSymbol(",") {
			return stmt, nil
		}
	}
}

func (p *parser) parseSelect() (Statement, error) {
	p.next() // SELECT
	p.acceptKeyword("ALL")

	stmt := &SelectStmt{}
	for {
		item, err := p.selectItem()
		if err != nil {
			return nil, err
		}
		stmt.Items = append(stmt.Items, item)
		if !p.acceptSymbol(",") {
			break
		}
	}

	if p.acceptKeyword("FROM") {
		name, err := p.ident()
		if err != nil {
			return nil, fmt.Errorf("invalid SELECT syntax: %w", err)
		}
		stmt.TableName = name
	}

	if p.acceptKeyword("WHERE") {
		w, err := p.expr()
		if err != nil {
			return nil, err
		}
		stmt.Where = w
	}

	if p.acceptKeyword("ORDER", "BY") {
		for {
			e, err := p.expr()
			if err != nil {
				return nil, err
			}
			item := OrderItem{Expr: e}
			if p.acceptKeyword("DESC") {
				item.Desc = true
			} else {
				p.acceptKeyword("ASC")
			}
			stmt.OrderBy = append(stmt.OrderBy, item)
			if !p.acceptSymbol(",") {
				break
			}
		}
	}

	if p.acceptKeyword("LIMIT") {
		t := p.next()
		n, err := strconv.ParseInt(t.text, 10, 64)
		if t.kind != tokNumber || err != nil || n < 0 {
			return nil, fmt.Errorf("invalid LIMIT %s", t)
		}
		stmt.Limit = &n
	}
	return stmt, nil
}

func (p *parser) selectItem() (SelectItem, error) {
	if p.acceptSymbol("*") {
		return SelectItem{Star: true}, nil
	}
	e, err := p.expr()
	if err != nil {
		return SelectItem{}, err
	}
	item := SelectItem{Expr: e}
	if p.acceptKeyword("AS") {
		alias, err := p.ident()
		if err != nil {
			return SelectItem{}, err
		}
		item.Alias = alias
	} else if t := p.peek(); t.kind == tokIdent && !reserved[t.upper()] {
		item.Alias = p.next().text
	}
	return item, nil
}

func (p *parser) parseUpdate() (Statement, error) {
	p.next() // UPDATE
	name, err := p.ident()
	if err != nil {
		return nil, fmt.Errorf("invalid UPDATE syntax: %w", err)
	}
	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}

	stmt := &UpdateStmt{TableName: name}
	for {
		col, err := p.ident()
		if err != nil {
			return nil, fmt.Errorf("invalid assignment column: %w", err)
		}
		if !p.acceptSymbol("=") && !p.acceptSymbol("==") {
			return nil, fmt.Errorf("invalid assignment for %s", col)
		}
		v, err := p.expr()
		if err != nil {
			return nil, err
		}
		stmt.Assignments = append(stmt.Assignments, Assignment{Column: col, Value: v})
		if !p.acceptSymbol(",") {
			break
		}
	}

	if p.acceptKeyword("WHERE") {
		w, err := p.expr()
		if err != nil {
			return nil, err
		}
		stmt.Where = w
	}
	return stmt, nil
}

func (p *parser) parseDelete() (Statement, error) {
	if err := p.expectKeyword("DELETE", "FROM"); err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, fmt.Errorf("invalid DELETE syntax: %w", err)
	}
	stmt := &DeleteStmt{TableName: name}
	if p.acceptKeyword("WHERE") {
		w, err := p.expr()
		if err != nil {
			return nil, err
		}
		stmt.Where = w
	}
	return stmt, nil
}

func (p *parser) parseShow() (Statement, error) {
	p.next() // SHOW
	switch {
	case p.acceptKeyword("COLUMNS"):
		if !p.acceptKeyword("FROM") && !p.acceptKeyword("IN") {
			return nil, fmt.Errorf("syntax error: expected FROM, got %s", p.peek())
		}
		name, err := p.ident()
		if err != nil {
			return nil, fmt.Errorf("invalid SHOW COLUMNS syntax: %w", err)
		}
		return &ShowColumnsStmt{TableName: name}, nil
	case p.acceptKeyword("VERSION"):
		return &ShowVariableStmt{Name: "VERSION"}, nil
	case p.acceptKeyword("TABLES"):
		return &ShowVariableStmt{Name: "TABLES"}, nil
	default:
		return nil, fmt.Errorf("unsupported SHOW target %s", p.peek())
	}
}

// ----- expressions -----

func (p *parser) expr() (Expr, error) { return p.orExpr() }

func (p *parser) orExpr() (Expr, error) {
	left, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("OR") {
		right, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) andExpr() (Expr, error) {
	left, err := p.notExpr()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("AND") {
		right, err := p.notExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) notExpr() (Expr, error) {
	if p.acceptKeyword("NOT") {
		x, err := p.notExpr()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "NOT", X: x}, nil
	}
	return p.cmpExpr()
}

func (p *parser) cmpExpr() (Expr, error) {
	left, err := p.addExpr()
	if err != nil {
		return nil, err
	}

	if p.acceptKeyword("IS") {
		not := p.acceptKeyword("NOT")
		if err := p.expectKeyword("NULL"); err != nil {
			return nil, err
		}
		return &IsNullExpr{X: left, Not: not}, nil
	}

	t := p.peek()
	if t.kind != tokSymbol {
		return left, nil
	}
	op := t.text
	switch op {
	case "==":
		op = "="
	case "!=":
		op = "<>"
	case "=", "<>", "<", "<=", ">", ">=":
	default:
		return left, nil
	}
	p.next()
	right, err := p.addExpr()
	if err != nil {
		return nil, err
	}
	return &BinaryExpr{Op: op, Left: left, Right: right}, nil
}

func (p *parser) addExpr() (Expr, error) {
	left, err := p.mulExpr()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokSymbol || (t.text != "+" && t.text != "-" && t.text != "||") {
			return left, nil
		}
		p.next()
		right, err := p.mulExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: t.text, Left: left, Right: right}
	}
}

func (p *parser) mulExpr() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokSymbol || (t.text != "*" && t.text != "/" && t.text != "%") {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: t.text, Left: left, Right: right}
	}
}

func (p *parser) unary() (Expr, error) {
	if p.acceptSymbol("-") {
		// the sign is part of the literal so math.MinInt64 stays an integer
		if t := p.peek(); t.kind == tokNumber {
			p.next()
			lit, err := parseNumber("-" + t.text)
			if err != nil {
				return nil, err
			}
			return &LiteralExpr{Value: lit}, nil
		}
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		// fold negative literals so "-1" stays a literal
		if lit, ok := x.(*LiteralExpr); ok {
			switch v := lit.Value.(type) {
			case int64:
				if v != math.MinInt64 {
					return &LiteralExpr{Value: -v}, nil
				}
			case float64:
				return &LiteralExpr{Value: -v}, nil
			}
		}
		return &UnaryExpr{Op: "-", X: x}, nil
	}
	if p.acceptSymbol("+") {
		return p.unary()
	}
	return p.primary()
}

func (p *parser) primary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		lit, err := parseNumber(t.text)
		if err != nil {
			return nil, err
		}
		return &LiteralExpr{Value: lit}, nil

	case tokString:
		return &LiteralExpr{Value: t.text}, nil

	case tokIdent:
		switch t.upper() {
		case "NULL":
			return &LiteralExpr{Value: nil}, nil
		case "TRUE":
			return &LiteralExpr{Value: true}, nil
		case "FALSE":
			return &LiteralExpr{Value: false}, nil
		}
		return &ColumnRef{Name: t.text}, nil

	case tokSymbol:
		if t.text == "(" {
			e, err := p.expr()
			if err != nil {
				return nil, err
			}
			if err := p.expectSymbol(")"); err != nil {
				return nil, err
			}
			return e, nil
		}
	}
	return nil, fmt.Errorf("syntax error: unexpected %s", t)
}

func parseNumber(s string) (any, error) {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}
