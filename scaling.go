package schwarzgo

import (
	"math"

	"github.com/hupe1980/schwarzgo/comm"
	"github.com/hupe1980/schwarzgo/internal/floats"
)

// MultiplicityScaling computes the partition of unity into d. On entry
// d holds the values whose restriction to each interface is sent to
// that neighbor; on return d[i] approximates the reciprocal of the
// number of subdomains sharing index i, refined by the exchanged
// boundary values. A sent magnitude below Eps forces the weight at that
// index to exactly 0. The caller adopts the result with SetScaling.
func (s *Schwarz) MultiplicityScaling(d []float64) {
	sd := s.sd
	for i, nb := range sd.neighbors {
		sd.rreqs[i] = sd.c.Irecv(sd.rbuf[i], nb.Rank, exchangeTag)
		for j, idx := range nb.Indices {
			sd.sbuf[i][j] = d[idx]
		}
		sd.sreqs[i] = sd.c.Isend(sd.sbuf[i], nb.Rank, exchangeTag)
	}
	floats.Fill(d, 1)
	for range sd.neighbors {
		i := comm.WaitAny(sd.rreqs)
		recv, send := sd.rbuf[i], sd.sbuf[i]
		for j, idx := range sd.neighbors[i].Indices {
			if math.Abs(send[j]) < Eps {
				d[idx] = 0
			} else {
				d[idx] /= 1 + d[idx]*recv[j]/send[j]
			}
		}
	}
	comm.WaitAll(sd.sreqs)
}
