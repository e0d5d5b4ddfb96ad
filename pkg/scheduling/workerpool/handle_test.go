package workerpool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vnykmshr/taskpool/internal/testutil"
)

func TestHandle_PendingUntilComplete(t *testing.T) {
	h := newHandle[int]()
	testutil.AssertEqual(t, h.Ready(), false)

	select {
	case <-h.Done():
		t.Fatal("Done closed before completion")
	default:
	}

	h.complete(5, nil)

	testutil.AssertEqual(t, h.Ready(), true)
	testutil.WaitClosed(t, h.Done(), time.Second)
	v, err := h.Get()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, 5)
}

func TestHandle_ManyReaders(t *testing.T) {
	h := newHandle[string]()
	sentinel := errors.New("nope")

	const readers = 16
	var wg sync.WaitGroup
	errs := make(chan error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Get()
			errs <- err
		}()
	}

	time.Sleep(10 * time.Millisecond)
	h.complete("", sentinel)
	wg.Wait()
	close(errs)

	for err := range errs {
		testutil.AssertErrorIs(t, err, sentinel)
	}
}

func TestHandle_WaitTimesOut(t *testing.T) {
	pool := New(1)
	defer pool.Shutdown()

	gate := make(chan struct{})
	h, err := Submit(pool, func() (int, error) {
		<-gate
		return 3, nil
	})
	testutil.AssertNoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	v, err := h.Wait(ctx)
	testutil.AssertErrorIs(t, err, context.DeadlineExceeded)
	testutil.AssertEqual(t, v, 0)

	// The task keeps running and a later read sees its outcome.
	close(gate)
	v, err = h.Get()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, 3)
}

func TestHandle_WaitCompleted(t *testing.T) {
	pool := New(1)
	defer pool.Shutdown()

	h, err := Submit(pool, func() (int, error) { return 8, nil })
	testutil.AssertNoError(t, err)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	v, err := h.Wait(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, 8)
}
