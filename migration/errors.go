package migration

import (
	"fmt"

	"github.com/go-faster/errors"
)

// which stage of a run failed
type ErrorKind string

const (
	KindConnect ErrorKind = "connect"
	KindQuery   ErrorKind = "query"
	KindWrite   ErrorKind = "write"
)

// ReplicationError is the single error type a run returns. Kind tells a
// caller whether a store was unreachable, a read failed or a write failed.
type ReplicationError struct {
	Kind  ErrorKind
	Table string
	Err   error
}

func (e *ReplicationError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("replication failed: %s %s: %v", e.Kind, e.Table, e.Err)
	}
	return fmt.Sprintf("replication failed: %s: %v", e.Kind, e.Err)
}

func (e *ReplicationError) Unwrap() error { return e.Err }

func newError(kind ErrorKind, table string, err error) error {
	return &ReplicationError{Kind: kind, Table: table, Err: err}
}

func IsConnectError(err error) bool { return hasKind(err, KindConnect) }

func IsQueryError(err error) bool { return hasKind(err, KindQuery) }

func IsWriteError(err error) bool { return hasKind(err, KindWrite) }

func hasKind(err error, kind ErrorKind) bool {
	var re *ReplicationError
	return errors.As(err, &re) && re.Kind == kind
}
