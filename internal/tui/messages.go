package tui

import "agentteam/internal/domain"

// teamLoadedMsg delivers a fresh roster/task snapshot from the store.
type teamLoadedMsg struct {
	commander *domain.Agent
	roster    []domain.Agent
	tasks     []domain.TaskSummary
	err       error
}

// streamStartedMsg carries the chunk channel of a newly opened stream.
// Gen identifies the request generation so stale streams can be discarded.
type streamStartedMsg struct {
	ch  <-chan domain.StreamChunk
	gen uint64
}

// streamChunkMsg delivers one chunk of the in-flight response.
type streamChunkMsg struct {
	chunk domain.StreamChunk
	gen   uint64
}

// streamClosedMsg signals that the chunk channel was closed.
type streamClosedMsg struct {
	gen uint64
}

// streamFailedMsg reports a failure to open the stream.
type streamFailedMsg struct {
	err error
	gen uint64
}
