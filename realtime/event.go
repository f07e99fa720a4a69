package realtime

import (
	"sort"

	"github.com/comalice/fsmx"
)

// Request is a queued state change with sequencing metadata for
// deterministic ordering.
type Request struct {
	Key         fsmx.StateKey
	Priority    int
	SequenceNum uint64
}

// sortRequests orders requests deterministically: higher priority first,
// then submission order.
func sortRequests(requests []Request) {
	sort.SliceStable(requests, func(i, j int) bool {
		if requests[i].Priority != requests[j].Priority {
			return requests[i].Priority > requests[j].Priority
		}
		return requests[i].SequenceNum < requests[j].SequenceNum
	})
}
