package rivulet

import "sync"

// lifecycleCoordinator sequences pipeline shutdown exactly once, grounded on
// ygrebnov-workers/lifecycle.go's lifecycleCoordinator. The sequence is
// cancel -> wait inflight -> close the internal events channel -> wait the
// reorderer/forwarder goroutine -> close results -> stop the progress
// reporter, so no stage ever observes a channel closed out from under it.
type lifecycleCoordinator struct {
	cancel        func()
	inflight      *sync.WaitGroup
	closeEvents   func()
	waitForwarder func()
	closeResults  func()
	stopProgress  func()

	once sync.Once
}

func newLifecycleCoordinator(
	cancel func(),
	inflight *sync.WaitGroup,
	closeEvents func(),
	waitForwarder func(),
	closeResults func(),
	stopProgress func(),
) *lifecycleCoordinator {
	return &lifecycleCoordinator{
		cancel:        cancel,
		inflight:      inflight,
		closeEvents:   closeEvents,
		waitForwarder: waitForwarder,
		closeResults:  closeResults,
		stopProgress:  stopProgress,
	}
}

// Close executes the shutdown sequence exactly once, safe for concurrent callers.
func (lc *lifecycleCoordinator) Close() {
	lc.once.Do(func() {
		if lc.cancel != nil {
			lc.cancel()
		}
		if lc.inflight != nil {
			lc.inflight.Wait()
		}
		if lc.closeEvents != nil {
			lc.closeEvents()
		}
		if lc.waitForwarder != nil {
			lc.waitForwarder()
		}
		if lc.closeResults != nil {
			lc.closeResults()
		}
		if lc.stopProgress != nil {
			lc.stopProgress()
		}
	})
}
