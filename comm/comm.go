// Package comm provides the message-passing primitives the
// preconditioner is written against, backed by an in-process process
// group. Endpoints created by NewGroup are driven from one goroutine
// per rank; point-to-point traffic and collectives never cross between
// duplicated communicators.
package comm

import (
	"fmt"
	"sync"
)

// Comm is one endpoint of a process group.
//
// Collective operations (AllReduceSum, AllGatherv, Barrier, Dup) must
// be called by every member of the group in the same order.
type Comm struct {
	rank  int
	space uint64
	dups  uint64
	g     *group
}

type group struct {
	size  int
	mu    sync.Mutex
	cond  *sync.Cond
	boxes map[boxKey][]message
	colls map[collKey]*collective
}

type boxKey struct {
	space    uint64
	from, to int
	tag      int
}

type message []float64

type collKind uint8

const (
	collReduce collKind = iota
	collGather
	collBarrier
)

type collKey struct {
	space uint64
	kind  collKind
}

type collective struct {
	arrived int
	phase   uint64
	acc     []float64
	parts   [][]float64
	ready   []float64
}

// NewGroup creates a connected group of n endpoints. Endpoint i is the
// communicator of rank i.
func NewGroup(n int) []*Comm {
	if n < 1 {
		panic("comm: group size must be positive")
	}
	g := &group{
		size:  n,
		boxes: make(map[boxKey][]message),
		colls: make(map[collKey]*collective),
	}
	g.cond = sync.NewCond(&g.mu)
	cs := make([]*Comm, n)
	for i := range cs {
		cs[i] = &Comm{rank: i, g: g}
	}

	return cs
}

// Rank returns the rank of this endpoint within the group.
func (c *Comm) Rank() int { return c.rank }

// Size returns the number of group members.
func (c *Comm) Size() int { return c.g.size }

// Dup returns a communicator over the same group whose traffic is
// isolated from the parent's. Dup is collective: every member must
// duplicate the parent in the same order relative to its other Dup
// calls, so ranks agree on the child identity.
func (c *Comm) Dup() *Comm {
	c.dups++

	return &Comm{rank: c.rank, space: c.space*1000003 + c.dups, g: c.g}
}

// Isend starts a nonblocking send of buf to the given rank. The buffer
// is snapshotted before Isend returns and may be reused immediately;
// the returned request is already complete.
func (c *Comm) Isend(buf []float64, to, tag int) *Request {
	c.checkPeer(to)
	msg := make(message, len(buf))
	copy(msg, buf)
	key := boxKey{space: c.space, from: c.rank, to: to, tag: tag}
	g := c.g
	g.mu.Lock()
	g.boxes[key] = append(g.boxes[key], msg)
	g.mu.Unlock()
	g.cond.Broadcast()

	return &Request{done: true}
}

// Irecv starts a nonblocking receive into buf from the given rank. The
// receive completes when the matching send arrives and the request is
// waited on.
func (c *Comm) Irecv(buf []float64, from, tag int) *Request {
	c.checkPeer(from)

	return &Request{
		g:   c.g,
		key: boxKey{space: c.space, from: from, to: c.rank, tag: tag},
		buf: buf,
	}
}

// AllReduceSum replaces x on every rank with the element-wise sum of
// all ranks' x. All members must pass slices of the same length.
func (c *Comm) AllReduceSum(x []float64) {
	g := c.g
	g.mu.Lock()
	defer g.mu.Unlock()

	cl := g.coll(collKey{space: c.space, kind: collReduce})
	if cl.arrived == 0 {
		cl.acc = make([]float64, len(x))
	}
	for i, v := range x {
		cl.acc[i] += v
	}
	cl.arrived++
	if cl.arrived == g.size {
		cl.ready = cl.acc
		cl.acc = nil
		cl.arrived = 0
		cl.phase++
		g.cond.Broadcast()
	} else {
		phase := cl.phase
		for cl.phase == phase {
			g.cond.Wait()
		}
	}
	copy(x, cl.ready)
}

// AllGatherv returns the concatenation, in rank order, of every rank's
// local slice. Lengths may differ between ranks.
func (c *Comm) AllGatherv(local []float64) []float64 {
	g := c.g
	g.mu.Lock()
	defer g.mu.Unlock()

	cl := g.coll(collKey{space: c.space, kind: collGather})
	if cl.arrived == 0 {
		cl.parts = make([][]float64, g.size)
	}
	part := make([]float64, len(local))
	copy(part, local)
	cl.parts[c.rank] = part
	cl.arrived++
	if cl.arrived == g.size {
		var total int
		for _, p := range cl.parts {
			total += len(p)
		}
		out := make([]float64, 0, total)
		for _, p := range cl.parts {
			out = append(out, p...)
		}
		cl.ready = out
		cl.parts = nil
		cl.arrived = 0
		cl.phase++
		g.cond.Broadcast()
	} else {
		phase := cl.phase
		for cl.phase == phase {
			g.cond.Wait()
		}
	}
	res := make([]float64, len(cl.ready))
	copy(res, cl.ready)

	return res
}

// AllGatherInt gathers one integer from every rank, in rank order.
func (c *Comm) AllGatherInt(v int) []int {
	parts := c.AllGatherv([]float64{float64(v)})
	out := make([]int, len(parts))
	for i, p := range parts {
		out[i] = int(p)
	}

	return out
}

// Barrier blocks until every rank has entered it.
func (c *Comm) Barrier() {
	g := c.g
	g.mu.Lock()
	defer g.mu.Unlock()

	cl := g.coll(collKey{space: c.space, kind: collBarrier})
	cl.arrived++
	if cl.arrived == g.size {
		cl.arrived = 0
		cl.phase++
		g.cond.Broadcast()
	} else {
		phase := cl.phase
		for cl.phase == phase {
			g.cond.Wait()
		}
	}
}

func (c *Comm) checkPeer(rank int) {
	if rank < 0 || rank >= c.g.size {
		panic(fmt.Sprintf("comm: rank %d out of range [0,%d)", rank, c.g.size))
	}
}

// coll must be called with g.mu held.
func (g *group) coll(key collKey) *collective {
	cl, ok := g.colls[key]
	if !ok {
		cl = &collective{}
		g.colls[key] = cl
	}

	return cl
}
