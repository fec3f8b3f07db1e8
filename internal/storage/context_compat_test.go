package storage

import (
	"context"
	"sync"
	"testing"
)

// testContext stands in for testing.T.Context (Go 1.24+) on older
// toolchains: one context per test, cancelled when the test cleans up.
var (
	testCtxMu sync.Mutex
	testCtxs  = map[testing.TB]context.Context{}
)

func testContext(tb testing.TB) context.Context {
	testCtxMu.Lock()
	defer testCtxMu.Unlock()
	if ctx, ok := testCtxs[tb]; ok {
		return ctx
	}
	ctx, cancel := context.WithCancel(context.Background())
	testCtxs[tb] = ctx
	tb.Cleanup(func() {
		cancel()
		testCtxMu.Lock()
		delete(testCtxs, tb)
		testCtxMu.Unlock()
	})
	return ctx
}
