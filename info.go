package mbxas

import (
	"context"
	"encoding/binary"
	"fmt"
)

// InfoAll collects one diagnostic payload from every world rank and
// replicates the complete set, indexed by world rank, on all ranks.
//
// Unlike a flat world gather the exchange is staged through the hierarchy:
// pool members gather at their pool root, pool roots gather at the global
// root over the root group, and the global root broadcasts the assembled
// set back over the world. Intended for occasional diagnostics, not the
// hot path.
//
// InfoAll is collective over the world.
//
// Parameters:
//   - ctx: bounds the staged collectives
//   - local: this rank's payload (may be empty)
//
// Returns:
//   - [][]byte: payload per world rank, identical on every rank
//   - error: collective failure
func (p *Pools) InfoAll(ctx context.Context, local []byte) ([][]byte, error) {
	// Stage 1: gather within the pool, ordered by pool rank.
	poolSet, err := p.pool.Gather(ctx, local, 0)
	if err != nil {
		return nil, fmt.Errorf("info pool gather: %w", err)
	}

	// Stage 2: pool roots gather the packed pool sets over the root group,
	// ordered by pool id.
	var rootSet [][]byte
	if p.roots != nil {
		rootSet, err = p.roots.Gather(ctx, packPayloads(poolSet), 0)
		if err != nil {
			return nil, fmt.Errorf("info root gather: %w", err)
		}
	}

	// Stage 3: the global root maps (pool, pool rank) back to world ranks
	// and broadcasts the full set.
	var packed []byte
	if p.IsGlobalRoot() {
		byRank := make([][]byte, p.world.Size())
		for pool, poolBuf := range rootSet {
			members := p.layout.Members(pool)
			for poolRank, payload := range unpackPayloads(poolBuf) {
				byRank[members[poolRank]] = payload
			}
		}
		packed = packPayloads(byRank)
	}
	packed, err = p.world.Bcast(ctx, packed, 0)
	if err != nil {
		return nil, fmt.Errorf("info bcast: %w", err)
	}
	return unpackPayloads(packed), nil
}

// packPayloads frames a payload list as count-prefixed length-delimited
// records, little-endian.
func packPayloads(payloads [][]byte) []byte {
	n := 4
	for _, p := range payloads {
		n += 4 + len(p)
	}
	buf := make([]byte, 4, n)
	binary.LittleEndian.PutUint32(buf, uint32(len(payloads)))
	for _, p := range payloads {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(p)))
		buf = append(buf, p...)
	}
	return buf
}

func unpackPayloads(buf []byte) [][]byte {
	if len(buf) < 4 {
		return nil
	}
	count := binary.LittleEndian.Uint32(buf)
	buf = buf[4:]

	out := make([][]byte, 0, count)
	for i := uint32(0); i < count && len(buf) >= 4; i++ {
		size := binary.LittleEndian.Uint32(buf)
		buf = buf[4:]
		if uint32(len(buf)) < size {
			break
		}
		out = append(out, buf[:size:size])
		buf = buf[size:]
	}
	return out
}
