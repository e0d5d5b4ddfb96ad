package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
)

func renderReport(out io.Writer, r *Report) error {
	_, _ = bold.Fprintf(out, "\nPool %q: %d workers, %d tasks of %v\n\n",
		r.Config.PoolName, r.Config.Workers, r.Config.Tasks, r.Config.TaskDuration)

	tasks := tablewriter.NewWriter(out)
	tasks.Header("Task", "Queued", "Ran", "Outcome")
	for _, t := range r.Tasks {
		outcome := green.Sprint("ok")
		if t.Err != nil {
			outcome = red.Sprint(t.Err.Error())
		}
		if err := tasks.Append(
			fmt.Sprintf("%d", t.ID),
			t.Wait.Round(time.Millisecond).String(),
			t.Ran.Round(time.Millisecond).String(),
			outcome,
		); err != nil {
			return err
		}
	}
	if err := tasks.Render(); err != nil {
		return fmt.Errorf("render task table: %w", err)
	}

	workers := tablewriter.NewWriter(out)
	workers.Header("Worker", "Tasks", "Busy")
	for _, w := range r.Workers {
		if err := workers.Append(
			fmt.Sprintf("%d", w.ID),
			fmt.Sprintf("%d", w.Tasks),
			w.Busy.Round(time.Millisecond).String(),
		); err != nil {
			return err
		}
	}
	if err := workers.Render(); err != nil {
		return fmt.Errorf("render worker table: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Square of %d: %d\n", r.Config.Square, r.SquareResult)
	fmt.Fprintf(out, "Wall clock: %v (serial estimate %v)\n",
		r.Elapsed.Round(time.Millisecond), r.SerialEstimate())
	if r.Config.Heartbeat != "" {
		fmt.Fprintf(out, "Heartbeats (%s): %d\n", r.Config.Heartbeat, r.Heartbeats)
	}
	if r.Failed > 0 {
		_, _ = yellow.Fprintf(out, "%d of %d tasks failed\n", r.Failed, len(r.Tasks))
	} else {
		_, _ = green.Fprintln(out, "All tasks succeeded")
	}
	return nil
}
