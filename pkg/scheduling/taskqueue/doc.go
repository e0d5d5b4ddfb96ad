/*
Package taskqueue provides the unbounded FIFO that feeds a worker pool.

A Queue holds opaque items, typically zero-argument Task closures. Producers
call Push, consumers block in Pop until an item is available. Shutdown is a
one-way switch: once set, Pop keeps handing out whatever is still queued and
only then reports that no more work will arrive.

	q := taskqueue.New[taskqueue.Task]()

	go func() {
		for {
			task, ok := q.Pop()
			if !ok {
				return // shut down and drained
			}
			task()
		}
	}()

	q.Push(func() { fmt.Println("hello") })
	q.Shutdown()

The queue never rejects a Push, not even after Shutdown. Rejecting late
submissions is the owner's job; workerpool.Pool does it under its own lock so
nothing lands in a queue that nobody will drain.
*/
package taskqueue
