package testsupport

import (
	"testing"
	"time"
)

// WaitUntil polls the condition until it reports true or the timeout
// elapses, failing the test in the latter case.
func WaitUntil(t testing.TB, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
