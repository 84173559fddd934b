package logictest

import "gopkg.in/src-d/go-errors.v1"

var (
	// ErrUnsupportedPayload is returned for result kinds that are neither rows
	// nor an effect, such as SHOW COLUMNS or SHOW VERSION.
	ErrUnsupportedPayload = errors.NewKind("unsupported payload: %s")
	// ErrMultiplePayloads means one statement produced other than one result.
	ErrMultiplePayloads = errors.NewKind("expected exactly one payload, got %d")
	ErrClassify         = errors.NewKind("cannot classify statement: %s")
	ErrEmptyStatement   = errors.NewKind("empty statement")
	// ErrWorkerAborted is returned when the execution worker died while
	// holding the engine. The engine has been replaced with an empty one.
	ErrWorkerAborted = errors.NewKind("execution worker aborted: %v")
)

// AdapterError is the single error type returned by adapters. Engine names
// the adapter; Cause is the underlying failure.
type AdapterError struct {
	Engine string
	Cause  error
}

func (e *AdapterError) Error() string {
	return e.Engine + " error: " + e.Cause.Error()
}

func (e *AdapterError) Unwrap() error { return e.Cause }

func wrap(engine string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*AdapterError); ok {
		return err
	}
	return &AdapterError{Engine: engine, Cause: err}
}
