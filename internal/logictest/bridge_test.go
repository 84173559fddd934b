package logictest

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novalogic/internal/engine"
	"github.com/tuannm99/novalogic/internal/payload"
)

// scriptedHandle answers every statement from a fixed function.
type scriptedHandle struct {
	answer func(sql string) ([]payload.Payload, error)
}

func (h *scriptedHandle) ExecuteAsync(rt *engine.Runtime, sql string) *engine.Future[[]payload.Payload] {
	return engine.Spawn(rt, func() ([]payload.Payload, error) {
		return h.answer(sql)
	})
}

func fixedHandle(ps ...payload.Payload) HandleFactory {
	return func() Handle {
		return &scriptedHandle{answer: func(string) ([]payload.Payload, error) { return ps, nil }}
	}
}

func newTestBridge(t *testing.T, factory HandleFactory, resolution TypeResolution) (*Bridge, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	return NewBridge(factory, resolution, log), hook
}

func TestBridge_TranslateEffects(t *testing.T) {
	for _, tc := range []struct {
		p    payload.Payload
		want uint64
	}{
		{payload.Insert{N: 2}, 2},
		{payload.Delete{N: 1}, 1},
		{payload.Update{N: 5}, 5},
		{payload.DropTable{N: 3}, 3},
		{payload.Create{}, 0},
		{payload.AlterTable{}, 0},
		{payload.CreateIndex{}, 0},
		{payload.DropIndex{}, 0},
		{payload.StartTransaction{}, 0},
		{payload.Commit{}, 0},
		{payload.Rollback{}, 0},
		{payload.DropFunction{}, 0},
	} {
		b, _ := newTestBridge(t, fixedHandle(tc.p), ResolveValues)
		res, err := b.Execute("x", "")
		require.NoError(t, err, payload.Name(tc.p))
		assert.Equal(t, Effect{Affected: tc.want}, res, payload.Name(tc.p))
	}
}

func TestBridge_TranslateUnsupported(t *testing.T) {
	for _, p := range []payload.Payload{
		payload.ShowColumns{},
		payload.ShowVariable{Name: "VERSION", Value: "1"},
	} {
		b, _ := newTestBridge(t, fixedHandle(p), ResolveValues)
		_, err := b.Execute("x", "")
		require.Error(t, err)
		assert.True(t, ErrUnsupportedPayload.Is(err))
		assert.Contains(t, err.Error(), payload.Name(p))
	}
}

func TestBridge_MultiplePayloads(t *testing.T) {
	b, _ := newTestBridge(t, fixedHandle(payload.Create{}, payload.Insert{N: 1}), ResolveValues)
	_, err := b.Execute("x", "")
	require.Error(t, err)
	assert.True(t, ErrMultiplePayloads.Is(err))

	b, _ = newTestBridge(t, fixedHandle(), ResolveValues)
	_, err = b.Execute("x", "")
	require.Error(t, err)
	assert.True(t, ErrMultiplePayloads.Is(err))
}

func TestBridge_Select(t *testing.T) {
	b, _ := newTestBridge(t, fixedHandle(payload.Select{
		Labels: []string{"a", "b", "c"},
		Rows: [][]payload.Value{
			{int64(1), "x", nil},
			{int64(2), nil, 0.5},
		},
	}), ResolveValues)

	res, err := b.Execute("SELECT", "")
	require.NoError(t, err)
	assert.Equal(t, Rows{
		Types: []ColumnType{Integer, Text, FloatingPoint},
		Rows:  []Row{{"1", "x", "NULL"}, {"2", "NULL", "0.5"}},
	}, res)
}

func TestBridge_SelectMap(t *testing.T) {
	b, _ := newTestBridge(t, fixedHandle(payload.SelectMap{
		Rows: []map[string]payload.Value{
			{"name": "a", "id": int64(1)},
			{"id": int64(2), "extra": true},
		},
	}), ResolveValues)

	res, err := b.Execute("SELECT", "")
	require.NoError(t, err)
	assert.Equal(t, Rows{
		Types: []ColumnType{Integer, Text},
		Rows:  []Row{{"1", "a"}, {"2", "NULL"}},
	}, res)

	b, _ = newTestBridge(t, fixedHandle(payload.SelectMap{}), ResolveValues)
	res, err = b.Execute("SELECT", "")
	require.NoError(t, err)
	assert.Equal(t, Rows{}, res)
}

func TestBridge_SchemaResolution(t *testing.T) {
	var described []string
	factory := func() Handle {
		return &scriptedHandle{answer: func(sql string) ([]payload.Payload, error) {
			if sql == "SHOW COLUMNS FROM t" {
				described = append(described, sql)
				return []payload.Payload{payload.ShowColumns{Columns: []payload.ColumnInfo{
					{Name: "a", Type: "INTEGER"},
					{Name: "b", Type: "FLOAT"},
				}}}, nil
			}
			return []payload.Payload{payload.Select{
				Labels: []string{"a", "b"},
				Rows:   [][]payload.Value{{nil, nil}},
			}}, nil
		}}
	}

	b, _ := newTestBridge(t, factory, ResolveSchema)
	res, err := b.Execute("SELECT a, b FROM t", "t")
	require.NoError(t, err)
	assert.Equal(t, []ColumnType{Integer, FloatingPoint}, res.(Rows).Types)
	assert.Len(t, described, 1)

	// without a table the values decide
	res, err = b.Execute("SELECT a, b FROM t", "")
	require.NoError(t, err)
	assert.Equal(t, []ColumnType{Any, Any}, res.(Rows).Types)
	assert.Len(t, described, 1)
}

func TestBridge_DescribeFailureWarns(t *testing.T) {
	factory := func() Handle {
		return &scriptedHandle{answer: func(sql string) ([]payload.Payload, error) {
			if sql == "SHOW COLUMNS FROM t" {
				return nil, errors.New("no such table")
			}
			return []payload.Payload{payload.Select{
				Labels: []string{"a"},
				Rows:   [][]payload.Value{{int64(1)}},
			}}, nil
		}}
	}

	b, hook := newTestBridge(t, factory, ResolveSchema)
	res, err := b.Execute("SELECT a FROM t", "t")
	require.NoError(t, err)
	assert.Equal(t, Rows{Types: []ColumnType{Any}, Rows: []Row{{"1"}}}, res)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["table"] == "t" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestBridge_EngineErrorKeepsHandle(t *testing.T) {
	created := 0
	factory := func() Handle {
		created++
		return &scriptedHandle{answer: func(sql string) ([]payload.Payload, error) {
			if sql == "bad" {
				return nil, errors.New("syntax error")
			}
			return []payload.Payload{payload.Create{}}, nil
		}}
	}

	b, _ := newTestBridge(t, factory, ResolveValues)
	_, err := b.Execute("bad", "")
	require.EqualError(t, err, "syntax error")

	_, err = b.Execute("good", "")
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 0, b.Recoveries())
}

func TestBridge_WorkerPanicRecovers(t *testing.T) {
	created := 0
	factory := func() Handle {
		created++
		if created == 1 {
			return &scriptedHandle{answer: func(string) ([]payload.Payload, error) {
				panic("engine bug")
			}}
		}
		return engine.NewDatabase()
	}

	b, hook := newTestBridge(t, factory, ResolveValues)
	_, err := b.Execute("CREATE TABLE t (a INT)", "")
	require.Error(t, err)
	assert.True(t, ErrWorkerAborted.Is(err))
	assert.Contains(t, err.Error(), "engine bug")
	assert.Equal(t, 1, b.Recoveries())
	assert.Equal(t, 2, created)

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, logrus.ErrorLevel, last.Level)

	// the replacement engine is usable and empty
	res, err := b.Execute("CREATE TABLE t (a INT)", "")
	require.NoError(t, err)
	assert.Equal(t, Effect{}, res)
	res, err = b.Execute("SELECT a FROM t", "")
	require.NoError(t, err)
	assert.Equal(t, Rows{Types: []ColumnType{Any}, Rows: []Row{}}, res)
	assert.Equal(t, 1, b.Recoveries())
}
