package taskqueue

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	tptestutil "github.com/vnykmshr/taskpool/internal/testutil"
	"github.com/vnykmshr/taskpool/pkg/metrics"
)

func TestPushPopFIFO(t *testing.T) {
	q := New[Task]()

	var order []int
	for i := 0; i < 5; i++ {
		q.Push(func() { order = append(order, i) })
	}
	tptestutil.AssertEqual(t, q.Len(), 5)

	for i := 0; i < 5; i++ {
		task, ok := q.Pop()
		tptestutil.AssertEqual(t, ok, true)
		task()
	}

	for i, v := range order {
		tptestutil.AssertEqual(t, v, i)
	}
	tptestutil.AssertEqual(t, q.Len(), 0)
}

func TestPopBlocksUntilPush(t *testing.T) {
	q := New[Task]()
	got := make(chan Task)

	go func() {
		task, _ := q.Pop()
		got <- task
	}()

	select {
	case <-got:
		t.Fatal("Pop returned before anything was pushed")
	case <-time.After(30 * time.Millisecond):
	}

	var ran atomic.Bool
	q.Push(func() { ran.Store(true) })

	select {
	case task := <-got:
		task()
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake up after Push")
	}
	tptestutil.AssertEqual(t, ran.Load(), true)
}

func TestShutdownWakesAllWaiters(t *testing.T) {
	q := New[Task]()

	const waiters = 8
	var wg sync.WaitGroup
	var signals atomic.Int32

	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := q.Pop(); !ok {
				signals.Add(1)
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	q.Shutdown()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	tptestutil.WaitClosed(t, done, time.Second)
	tptestutil.AssertEqual(t, signals.Load(), int32(waiters))
}

func TestShutdownDrainsRemainingTasks(t *testing.T) {
	q := New[Task]()
	for i := 0; i < 3; i++ {
		q.Push(func() {})
	}
	q.Shutdown()

	for i := 0; i < 3; i++ {
		_, ok := q.Pop()
		tptestutil.AssertEqual(t, ok, true)
	}

	_, ok := q.Pop()
	tptestutil.AssertEqual(t, ok, false)
}

func TestShutdownIdempotent(t *testing.T) {
	q := New[Task]()
	q.Shutdown()
	q.Shutdown()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Shutdown()
		}()
	}
	wg.Wait()

	tptestutil.AssertEqual(t, q.IsShutdown(), true)
	_, ok := q.Pop()
	tptestutil.AssertEqual(t, ok, false)
}

func TestPushAfterShutdownStillDrainable(t *testing.T) {
	q := New[Task]()
	q.Shutdown()
	q.Push(func() {})

	_, ok := q.Pop()
	tptestutil.AssertEqual(t, ok, true)
	_, ok = q.Pop()
	tptestutil.AssertEqual(t, ok, false)
}

func TestPopZeroValueOnShutdown(t *testing.T) {
	q := New[int]()
	q.Shutdown()

	v, ok := q.Pop()
	tptestutil.AssertEqual(t, ok, false)
	tptestutil.AssertEqual(t, v, 0)
}

func TestTryPop(t *testing.T) {
	q := New[Task]()

	_, ok := q.TryPop()
	tptestutil.AssertEqual(t, ok, false)

	q.Push(func() {})
	_, ok = q.TryPop()
	tptestutil.AssertEqual(t, ok, true)
}

func TestConcurrentConsumersNeverShareTasks(t *testing.T) {
	q := New[Task]()

	const tasks = 2000
	const consumers = 8
	counts := make([]int32, tasks)

	for i := 0; i < tasks; i++ {
		q.Push(func() { atomic.AddInt32(&counts[i], 1) })
	}
	q.Shutdown()

	var wg sync.WaitGroup
	for c := 0; c < consumers; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				task, ok := q.Pop()
				if !ok {
					return
				}
				task()
			}
		}()
	}
	wg.Wait()

	for i, n := range counts {
		if n != 1 {
			t.Fatalf("task %d executed %d times", i, n)
		}
	}
}

func TestConcurrentProducersAndConsumers(t *testing.T) {
	q := New[Task]()

	const producers = 4
	const perProducer = 500
	var executed atomic.Int64

	var consumers sync.WaitGroup
	for c := 0; c < 4; c++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for {
				task, ok := q.Pop()
				if !ok {
					return
				}
				task()
			}
		}()
	}

	var producersWG sync.WaitGroup
	for p := 0; p < producers; p++ {
		producersWG.Add(1)
		go func() {
			defer producersWG.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(func() { executed.Add(1) })
			}
		}()
	}
	producersWG.Wait()
	q.Shutdown()
	consumers.Wait()

	tptestutil.AssertEqual(t, executed.Load(), int64(producers*perProducer))
}

func TestCompactionKeepsOrder(t *testing.T) {
	q := New[Task]()

	next := 0
	pushed := 0
	for round := 0; round < 10; round++ {
		for i := 0; i < 100; i++ {
			v := pushed
			q.Push(func() {
				if v != next {
					t.Errorf("got task %d, want %d", v, next)
				}
				next++
			})
			pushed++
		}
		for i := 0; i < 70; i++ {
			task, _ := q.Pop()
			task()
		}
	}
	q.Shutdown()
	for {
		task, ok := q.Pop()
		if !ok {
			break
		}
		task()
	}
	tptestutil.AssertEqual(t, next, pushed)
}

func TestQueueDepthMetric(t *testing.T) {
	registry := metrics.NewRegistry(prometheus.NewRegistry())
	q := NewWithMetrics[Task]("jobs", registry)
	gauge := registry.QueueDepth.WithLabelValues("jobs")

	tptestutil.AssertEqual(t, testutil.ToFloat64(gauge), 0.0)

	q.Push(func() {})
	q.Push(func() {})
	tptestutil.AssertEqual(t, testutil.ToFloat64(gauge), 2.0)

	q.Pop()
	tptestutil.AssertEqual(t, testutil.ToFloat64(gauge), 1.0)
}
