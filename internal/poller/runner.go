// internal/poller/runner.go
package poller

import "context"

// Take performs n cycles back to back and calls each after every one.
// No retries; a cancelled ctx stops before the next cycle.
func (s *Sampler) Take(ctx context.Context, n int, each func(Result)) []Result {
	out := make([]Result, 0, n)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		res := s.SampleOnce()
		out = append(out, res)
		if each != nil {
			each(res)
		}
	}
	return out
}

// Publish sends every result to out, dropping it when out is full.
// Consumers on edge goroutines never slow a sampling cycle.
func Publish(out chan<- Result) func(Result) {
	return func(r Result) {
		select {
		case out <- r:
		default:
		}
	}
}
