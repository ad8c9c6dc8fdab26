package report

import "github.com/goliatone/go-tiered-cache/cache"

type multi []cache.Reporter

// Multi sends every event to each of reporters, in order. Nil reporters
// are skipped.
func Multi(reporters ...cache.Reporter) cache.Reporter {
	out := make(multi, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multi) Report(info cache.Info, e cache.Event) {
	for _, r := range m {
		r.Report(info, e)
	}
}

// Static returns a cache.Config reporter factory that hands r to every
// request.
func Static[P any](r cache.Reporter) func(P) cache.Reporter {
	return func(P) cache.Reporter { return r }
}
