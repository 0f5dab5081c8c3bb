package schwarzgo

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/schwarzgo/comm"
	"github.com/hupe1980/schwarzgo/sparse"
)

// Point-to-point halo traffic uses one fixed tag.
const exchangeTag = 0

// Neighbor names one neighboring subdomain and the local indices shared
// with it. Both sides must list the shared indices in the same order;
// the pairwise protocols rely on that and do not verify it.
type Neighbor struct {
	Rank    int
	Indices []int
}

// Subdomain is the local view of the decomposed problem: the local
// matrix, the neighbor map and the exchange buffers. Buffers are sized
// once at construction and mutated in place during exchanges, so a
// Subdomain must not be shared between concurrent appliers.
type Subdomain struct {
	c         *comm.Comm
	a         *sparse.CSR
	dof       int
	neighbors []Neighbor
	iface     *bitset.BitSet
	sbuf      [][]float64
	rbuf      [][]float64
	sreqs     []*comm.Request
	rreqs     []*comm.Request
	shared    int
}

// NewSubdomain builds the local subdomain from its matrix and neighbor
// map. A nil matrix marks an excluded process: one that holds no
// subdomain and participates only in coarse solves. Excluded processes
// must not declare neighbors.
func NewSubdomain(c *comm.Comm, a *sparse.CSR, neighbors []Neighbor) (*Subdomain, error) {
	if c == nil {
		return nil, errors.New("schwarz: nil communicator")
	}

	dof := 0
	if a != nil {
		dof = a.N
	}

	sd := &Subdomain{
		c:         c,
		a:         a,
		dof:       dof,
		neighbors: neighbors,
		iface:     bitset.New(uint(dof)),
		sbuf:      make([][]float64, len(neighbors)),
		rbuf:      make([][]float64, len(neighbors)),
		sreqs:     make([]*comm.Request, len(neighbors)),
		rreqs:     make([]*comm.Request, len(neighbors)),
	}

	for i, nb := range neighbors {
		for _, idx := range nb.Indices {
			if idx < 0 || idx >= dof {
				return nil, fmt.Errorf("schwarz: shared index %d out of range [0,%d) for neighbor %d", idx, dof, nb.Rank)
			}
			sd.iface.Set(uint(idx))
		}
		sd.sbuf[i] = make([]float64, len(nb.Indices))
		sd.rbuf[i] = make([]float64, len(nb.Indices))
		sd.shared += len(nb.Indices)
	}

	return sd, nil
}

// Comm returns the communicator the subdomain was built on.
func (sd *Subdomain) Comm() *comm.Comm { return sd.c }

// Matrix returns the local matrix, nil on excluded processes.
func (sd *Subdomain) Matrix() *sparse.CSR { return sd.a }

// DOF returns the number of local degrees of freedom.
func (sd *Subdomain) DOF() int { return sd.dof }

// Neighbors returns the neighbor map.
func (sd *Subdomain) Neighbors() []Neighbor { return sd.neighbors }

// Interface returns the mask of degrees of freedom shared with at least
// one neighbor.
func (sd *Subdomain) Interface() *bitset.BitSet { return sd.iface }

// Excluded reports whether this process holds no subdomain.
func (sd *Subdomain) Excluded() bool { return sd.a == nil }

// Exchange adds, for every shared degree of freedom, the neighbors'
// values into v. v carries mu consecutive blocks of dof entries, one
// per right-hand side; each block is exchanged in its own round so the
// buffers never need to grow. Receives complete in arrival order.
func (sd *Subdomain) Exchange(v []float64, mu int) {
	if len(sd.neighbors) == 0 {
		return
	}

	for nu := 0; nu < mu; nu++ {
		block := v[nu*sd.dof : (nu+1)*sd.dof]
		for i, nb := range sd.neighbors {
			sd.rreqs[i] = sd.c.Irecv(sd.rbuf[i], nb.Rank, exchangeTag)
		}
		for i, nb := range sd.neighbors {
			for j, idx := range nb.Indices {
				sd.sbuf[i][j] = block[idx]
			}
			sd.sreqs[i] = sd.c.Isend(sd.sbuf[i], nb.Rank, exchangeTag)
		}
		for range sd.neighbors {
			i := comm.WaitAny(sd.rreqs)
			for j, idx := range sd.neighbors[i].Indices {
				block[idx] += sd.rbuf[i][j]
			}
		}
		comm.WaitAll(sd.sreqs)
	}
}
