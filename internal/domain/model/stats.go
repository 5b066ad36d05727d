package model

// GroupSendStats aggregates delivery results for one group over a window.
type GroupSendStats struct {
	Sent   int
	Errors int
}
