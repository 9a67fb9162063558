package loginlimit

import "context"

// Noop never blocks. It is used when no redis address is configured.
type Noop struct{}

func (Noop) Blocked(context.Context, string) (bool, error) { return false, nil }
func (Noop) Fail(context.Context, string) error            { return nil }
func (Noop) Reset(context.Context, string) error           { return nil }
func (Noop) Shutdown(context.Context) error                { return nil }
