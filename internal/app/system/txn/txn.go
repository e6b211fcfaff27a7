// internal/app/system/txn/txn.go

// Package txn runs multi-document writes inside a MongoDB transaction when
// the deployment supports one (replica set or sharded cluster) and falls
// back to running them sequentially on a standalone server.
//
// Writers that touch two documents (club + user back-reference, unlock row
// + user points) call Run and use InTransaction to decide whether a failed
// second write still needs logging or compensation.
package txn

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/dalemusser/clubhub/internal/app/system/metrics"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// unsupported is set once the server has told us it cannot run
// transactions, so later calls skip straight to the fallback.
var unsupported atomic.Bool

// Run executes fn inside a transaction. If transactions are not supported
// fn is executed without one and a warning is logged the first time.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	if log == nil {
		log = zap.NewNop()
	}
	if unsupported.Load() {
		return fn(ctx)
	}

	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			markUnsupported(log, err)
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		// Nothing was committed; replay without a transaction.
		markUnsupported(log, err)
		return fn(ctx)
	}
	return err
}

func markUnsupported(log *zap.Logger, err error) {
	if unsupported.CompareAndSwap(false, true) {
		log.Warn("mongo transactions not supported; multi-document writes run without a transaction",
			zap.Error(err))
	}
}

// InTransaction reports whether ctx carries an active session started by Run.
func InTransaction(ctx context.Context) bool {
	return mongo.SessionFromContext(ctx) != nil
}

// Tolerate handles a failed back-reference write (user.clubs, user.events).
// Inside a transaction err is returned so the whole unit rolls back.
// Without one the authoritative write has already landed, so the failure
// is logged and counted and nil is returned.
func Tolerate(ctx context.Context, log *zap.Logger, op string, err error) error {
	if err == nil {
		return nil
	}
	if InTransaction(ctx) {
		return err
	}
	if log == nil {
		log = zap.L()
	}
	log.Warn("partial write: back-reference not updated",
		zap.String("operation", op),
		zap.Error(err))
	metrics.PartialWrites.WithLabelValues(op).Inc()
	return nil
}

// IsNotSupported reports whether err means the server cannot run a
// transaction (standalone mongod, some DocumentDB versions).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, // IllegalOperation
			51,  // transaction numbers only allowed on replica set
			263: // OperationNotSupportedInTransaction
			return true
		}
	}

	// Drivers and proxies do not always surface a code; fall back to
	// message matching and require two signals to avoid false positives.
	msg := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range []string{"transaction", "session", "replica set", "not supported", "illegal operation"} {
		if strings.Contains(msg, kw) {
			hits++
		}
	}
	return hits >= 2
}

// reset is used by tests.
func reset() { unsupported.Store(false) }
