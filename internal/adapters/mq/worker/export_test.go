package worker

import "time"

// StopWithin is Stop with a caller-chosen deadline.
func (p *Pool) StopWithin(timeout time.Duration) {
	p.stop(timeout)
}
