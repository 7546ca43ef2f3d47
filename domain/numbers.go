package domain

import (
	"fmt"
	"math/rand"
	"strings"
)

// NumberGenerator issues IBANs and card numbers. It is seeded so a day
// replays to the same numbers, and never hands out the same value twice
// between resets.
type NumberGenerator struct {
	seed   int64
	rng    *rand.Rand
	issued map[string]struct{}
}

func NewNumberGenerator(seed int64) *NumberGenerator {
	g := &NumberGenerator{seed: seed}
	g.Reset()
	return g
}

// Reset re-seeds the generator and forgets issued numbers.
func (g *NumberGenerator) Reset() {
	g.rng = rand.New(rand.NewSource(g.seed))
	g.issued = make(map[string]struct{})
}

func (g *NumberGenerator) NextIBAN() string {
	return g.unique(func() string {
		return fmt.Sprintf("RO%02dPOOB%s", g.rng.Intn(100), g.digits(16))
	})
}

func (g *NumberGenerator) NextCardNumber() string {
	return g.unique(func() string {
		return g.digits(16)
	})
}

func (g *NumberGenerator) unique(next func() string) string {
	for {
		candidate := next()
		if _, taken := g.issued[candidate]; !taken {
			g.issued[candidate] = struct{}{}
			return candidate
		}
	}
}

func (g *NumberGenerator) digits(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(byte('0' + g.rng.Intn(10)))
	}
	return b.String()
}
