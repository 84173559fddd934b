package logictest

import (
	"io"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/tuannm99/novalogic/internal/engine"
	"github.com/tuannm99/novalogic/internal/payload"
)

// Handle is an engine instance driven through an async runtime.
type Handle interface {
	ExecuteAsync(rt *engine.Runtime, sql string) *engine.Future[[]payload.Payload]
}

// HandleFactory creates a fresh, empty engine instance.
type HandleFactory func() Handle

// Bridge owns one engine handle and runs statements against it one at a
// time. Each statement runs on a short-lived worker goroutine that holds the
// handle exclusively and hands it back over a single-use channel.
type Bridge struct {
	handle     Handle
	newHandle  HandleFactory
	resolution TypeResolution
	log        logrus.FieldLogger
	recoveries int
}

func NewBridge(factory HandleFactory, resolution TypeResolution, log logrus.FieldLogger) *Bridge {
	return &Bridge{
		handle:     factory(),
		newHandle:  factory,
		resolution: resolution,
		log:        log,
	}
}

// Recoveries counts how many times the engine was replaced after a worker
// died holding it. Every recovery resets the session schema.
func (b *Bridge) Recoveries() int { return b.recoveries }

// handoff carries the handle back from the worker. A nil handle means the
// worker aborted and the handle is lost.
type handoff struct {
	handle      Handle
	payloads    []payload.Payload
	err         error
	described   []payload.ColumnInfo
	describeErr error
	panicVal    any
}

// Execute runs one statement. When table is set and the statement returns
// rows, the worker also describes table for schema type resolution.
func (b *Bridge) Execute(sql, table string) (QueryResult, error) {
	h := b.handle
	b.handle = nil

	done := make(chan handoff, 1)
	go work(h, sql, table, done)
	out := <-done

	if out.handle == nil {
		b.handle = b.newHandle()
		b.recoveries++
		b.log.WithFields(logrus.Fields{
			"panic":      out.panicVal,
			"recoveries": b.recoveries,
		}).Error("execution worker aborted; engine replaced with an empty instance")
		return nil, ErrWorkerAborted.New(out.panicVal)
	}
	b.handle = out.handle

	if out.err != nil {
		return nil, out.err
	}
	if out.describeErr != nil {
		b.log.WithError(out.describeErr).WithField("table", table).
			Warn("type resolution: describe failed, using Any")
	}
	return b.translate(out, table != "")
}

func work(h Handle, sql, table string, done chan<- handoff) {
	out := handoff{handle: h}
	defer func() {
		if r := recover(); r != nil {
			done <- handoff{panicVal: r}
			return
		}
		done <- out
	}()

	rt := engine.NewRuntime()
	defer rt.Close()

	out.payloads, out.err = engine.BlockOn(rt, h.ExecuteAsync(rt, sql))
	if out.err != nil || table == "" || len(out.payloads) != 1 || !isRows(out.payloads[0]) {
		return
	}

	desc, err := engine.BlockOn(rt, h.ExecuteAsync(rt, "SHOW COLUMNS FROM "+table))
	switch {
	case err != nil:
		out.describeErr = err
	case len(desc) != 1:
		out.describeErr = ErrMultiplePayloads.New(len(desc))
	default:
		cols, ok := desc[0].(payload.ShowColumns)
		if !ok {
			out.describeErr = ErrUnsupportedPayload.New(payload.Name(desc[0]))
			return
		}
		out.described = cols.Columns
	}
}

func isRows(p payload.Payload) bool {
	switch p.(type) {
	case payload.Select, payload.SelectMap:
		return true
	}
	return false
}

func (b *Bridge) translate(out handoff, introspected bool) (QueryResult, error) {
	if len(out.payloads) != 1 {
		return nil, ErrMultiplePayloads.New(len(out.payloads))
	}

	switch p := out.payloads[0].(type) {
	case payload.Select:
		return b.rows(p.Labels, p.Rows, out.described, introspected), nil

	case payload.SelectMap:
		if len(p.Rows) == 0 {
			// no document to take labels from
			return Rows{}, nil
		}
		labels := make([]string, 0, len(p.Rows[0]))
		for k := range p.Rows[0] {
			labels = append(labels, k)
		}
		sort.Strings(labels)

		vals := make([][]payload.Value, len(p.Rows))
		for i, doc := range p.Rows {
			vals[i] = make([]payload.Value, len(labels))
			for j, l := range labels {
				vals[i][j] = doc[l]
			}
		}
		return b.rows(labels, vals, out.described, introspected), nil

	case payload.Insert:
		return Effect{Affected: uint64(p.N)}, nil
	case payload.Delete:
		return Effect{Affected: uint64(p.N)}, nil
	case payload.Update:
		return Effect{Affected: uint64(p.N)}, nil
	case payload.DropTable:
		return Effect{Affected: uint64(p.N)}, nil
	case payload.Create,
		payload.AlterTable,
		payload.CreateIndex,
		payload.DropIndex,
		payload.StartTransaction,
		payload.Commit,
		payload.Rollback,
		payload.DropFunction:
		return Effect{}, nil

	case payload.ShowColumns, payload.ShowVariable:
		return nil, ErrUnsupportedPayload.New(payload.Name(p))
	default:
		return nil, ErrUnsupportedPayload.New(payload.Name(p))
	}
}

func (b *Bridge) rows(labels []string, vals [][]payload.Value, described []payload.ColumnInfo, introspected bool) Rows {
	var types []ColumnType
	if b.resolution == ResolveSchema && introspected {
		types = IntrospectTypes(b.log, labels, described)
	} else {
		types = InferTypes(labels, vals)
	}

	rows := make([]Row, len(vals))
	for i, v := range vals {
		rows[i] = renderRow(v)
	}
	return Rows{Types: types, Rows: rows}
}

// Close releases the engine handle if it holds resources.
func (b *Bridge) Close() error {
	if c, ok := b.handle.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
