package eventstore

import "context"

// SetBeforeUpdateWrite installs fn to run between Update's read and write.
func SetBeforeUpdateWrite(s *Store, fn func(ctx context.Context)) {
	s.beforeUpdateWrite = fn
}
