// Package txn issues merchant transaction identifiers for payment attempts.
package txn

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// MaxLen is the gateway's hard cap on merchant transaction ids.
const MaxLen = 34

const prefix = "TXN"

// Generator produces time-ordered transaction ids of the form
// TXN<unix-millis><4-digit-random>, truncated to MaxLen. Uniqueness is weak:
// two calls in the same millisecond can collide within the 4-digit random
// space. These ids correlate payment attempts; they are not credentials.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

func (g *Generator) Generate() string {
	g.mu.Lock()
	suffix := g.rnd.Intn(10000)
	g.mu.Unlock()

	id := fmt.Sprintf("%s%d%04d", prefix, g.now().UnixMilli(), suffix)
	if len(id) > MaxLen {
		id = id[:MaxLen]
	}
	return id
}
