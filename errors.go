package readcache

import (
	"fmt"
)

// SweepError reports a scope invalidation that removed only part of the
// matching keys. The facade logs it at error level and keeps the failed
// keys tracked for a later retry; it is never returned to callers.
type SweepError struct {
	Prefix  string
	Deleted int
	Errs    []error
}

func (e *SweepError) Error() string {
	return fmt.Sprintf("sweep %q partial: %d deleted, %d failed: %v",
		e.Prefix, e.Deleted, len(e.Errs), e.Errs[0])
}

func (e *SweepError) Unwrap() []error { return e.Errs }
