package txn

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "generic error", err: errors.New("some random error"), want: false},
		{
			name: "command error code 20",
			err:  mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member"},
			want: true,
		},
		{name: "command error code 51", err: mongo.CommandError{Code: 51, Message: "Illegal operation"}, want: true},
		{name: "command error code 263", err: mongo.CommandError{Code: 263, Message: "Cannot run in a multi-document transaction"}, want: true},
		{name: "other command error code", err: mongo.CommandError{Code: 100, Message: "Some other error"}, want: false},
		{name: "transaction and replica set", err: errors.New("transaction failed because this is not a replica set member"), want: true},
		{name: "session and not supported", err: errors.New("session operations are not supported on this server"), want: true},
		{name: "only one keyword", err: errors.New("transaction failed"), want: false},
		{name: "transaction and session", err: errors.New("cannot start transaction in current session state"), want: true},
		{name: "illegal operation", err: errors.New("illegal operation during transaction"), want: true},
		{name: "uppercase", err: errors.New("TRANSACTION FAILED on REPLICA SET"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRun_CommitsBothWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	defer reset()

	err := Run(ctx, db, zap.NewNop(), func(ctx context.Context) error {
		if _, err := db.Collection("a").InsertOne(ctx, bson.M{"n": 1}); err != nil {
			return err
		}
		_, err := db.Collection("b").InsertOne(ctx, bson.M{"n": 2})
		return err
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, coll := range []string{"a", "b"} {
		n, err := db.Collection(coll).CountDocuments(ctx, bson.M{})
		if err != nil {
			t.Fatalf("CountDocuments(%s): %v", coll, err)
		}
		if n != 1 {
			t.Errorf("%s: expected 1 document, got %d", coll, n)
		}
	}
}

func TestRun_PropagatesError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	defer reset()

	boom := errors.New("boom")
	err := Run(ctx, db, zap.NewNop(), func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestInTransaction_PlainContext(t *testing.T) {
	if InTransaction(context.Background()) {
		t.Error("background context should not report a transaction")
	}
}

func TestTolerate(t *testing.T) {
	boom := errors.New("boom")

	if err := Tolerate(context.Background(), zap.NewNop(), "club_join", nil); err != nil {
		t.Errorf("nil error should stay nil, got %v", err)
	}
	if err := Tolerate(context.Background(), zap.NewNop(), "club_join", boom); err != nil {
		t.Errorf("outside a transaction the failure is swallowed, got %v", err)
	}
}
