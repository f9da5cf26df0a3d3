package connect

import (
	"context"
	"testing"
)

// testContext mirrors testing.T.Context (Go 1.24) for older toolchains.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
