package service

import (
	"context"
	"time"
)

// JobGate exposes the job gate to the external test package.
type JobGate struct{ g jobGate }

func (j *JobGate) Enter(job string, now time.Time) (time.Time, bool) { return j.g.enter(job, now) }
func (j *JobGate) Leave(job string)                                 { j.g.leave(job) }
func (j *JobGate) Drain(ctx context.Context) bool                   { return j.g.drain(ctx) }
