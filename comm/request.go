package comm

// Request tracks one outstanding nonblocking operation. Send requests
// complete eagerly; receive requests complete when waited on after the
// matching send arrived.
type Request struct {
	g    *group
	key  boxKey
	buf  []float64
	done bool
}

// tryComplete pops a matching message if one is pending. Must be called
// with g.mu held.
func (r *Request) tryComplete() bool {
	box := r.g.boxes[r.key]
	if len(box) == 0 {
		return false
	}
	msg := box[0]
	if len(box) == 1 {
		delete(r.g.boxes, r.key)
	} else {
		r.g.boxes[r.key] = box[1:]
	}
	copy(r.buf, msg)
	r.done = true

	return true
}

// Wait blocks until the request completes.
func (r *Request) Wait() {
	if r.done {
		return
	}
	g := r.g
	g.mu.Lock()
	for !r.tryComplete() {
		g.cond.Wait()
	}
	g.mu.Unlock()
}

// WaitAny blocks until one of the pending requests completes and
// returns its index. Completed requests are skipped on subsequent
// calls, so completion order follows message arrival, not posting
// order. Returns -1 when every request has already completed.
func WaitAny(reqs []*Request) int {
	var g *group
	for _, r := range reqs {
		if r != nil && !r.done {
			g = r.g
			break
		}
	}
	if g == nil {
		return -1
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for {
		for i, r := range reqs {
			if r == nil || r.done {
				continue
			}
			if r.tryComplete() {
				return i
			}
		}
		g.cond.Wait()
	}
}

// WaitAll blocks until every request completes.
func WaitAll(reqs []*Request) {
	for _, r := range reqs {
		if r != nil {
			r.Wait()
		}
	}
}
