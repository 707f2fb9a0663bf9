package stress

import (
	"math/rand"

	synced "github.com/Borislavv/atomic-list/pkg/sync"
	"github.com/zeebo/xxh3"
)

const payloadSize = 64

// Payload is what the workload carries through the lists: a content
// checksum identifying the node and the id of the adder that created it.
// The checksums feed the end-of-run conservation cross-check (xor of added
// keys == xor of removed keys ^ xor of remaining keys).
type Payload struct {
	Key   uint64
	Adder int
}

// generator produces payloads from pooled scratch buffers so the hot loop
// does not allocate per node.
type generator struct {
	rnd  *rand.Rand
	pool *synced.BatchPool[[]byte]
}

func newGenerator(seed int64) *generator {
	return &generator{
		rnd: rand.New(rand.NewSource(seed)),
		pool: synced.NewBatchPool[[]byte](synced.PreallocationBatchSize, func() []byte {
			return make([]byte, payloadSize)
		}),
	}
}

func (g *generator) next(adder int) Payload {
	buf := g.pool.Get()
	g.rnd.Read(buf)
	key := xxh3.Hash(buf)
	g.pool.Put(buf)
	return Payload{Key: key, Adder: adder}
}
