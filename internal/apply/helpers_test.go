package apply

import (
	"context"
	"errors"
	"sync"
)

var errScripted = errors.New("scripted failure")

func indices(n int) []int {
	values := make([]int, n)
	for i := range values {
		values[i] = i
	}
	return values
}

// scriptedBatch is a batch function over column positions: each input item is
// its own index, so a call can tell where its batch starts.
type scriptedBatch struct {
	mu     sync.Mutex
	calls  [][]int
	failIf func(items []int) bool
	short  bool
}

func (s *scriptedBatch) fn(_ context.Context, items []int) ([]int, error) {
	s.mu.Lock()
	s.calls = append(s.calls, append([]int(nil), items...))
	s.mu.Unlock()

	if s.failIf != nil && s.failIf(items) {
		return nil, errScripted
	}
	out := make([]int, len(items))
	for i, v := range items {
		out[i] = v * 10
	}
	if s.short {
		return out[:len(out)-1], nil
	}
	return out, nil
}

func (s *scriptedBatch) sizes() []int {
	sizes := make([]int, len(s.calls))
	for i, c := range s.calls {
		sizes[i] = len(c)
	}
	return sizes
}

func (s *scriptedBatch) callsAt(start int) [][]int {
	var out [][]int
	for _, c := range s.calls {
		if len(c) > 0 && c[0] == start {
			out = append(out, c)
		}
	}
	return out
}

type recordingReporter struct {
	total, done int
	description string
	added       []int
	finished    int
}

func (r *recordingReporter) Start(total, done int, description string) {
	r.total, r.done, r.description = total, done, description
}

func (r *recordingReporter) Add(n int) { r.added = append(r.added, n) }
func (r *recordingReporter) Finish()   { r.finished++ }

func (r *recordingReporter) sum() int {
	total := 0
	for _, n := range r.added {
		total += n
	}
	return total
}

func startsAt(start int) func([]int) bool {
	return func(items []int) bool { return items[0] == start }
}

func contains(v int) func([]int) bool {
	return func(items []int) bool {
		for _, item := range items {
			if item == v {
				return true
			}
		}
		return false
	}
}
