// Package pnr generates passenger name record codes: short public booking
// references.
package pnr

import (
	"crypto/rand"
	"io"
	"math/big"
)

const (
	Length   = 6
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Generator produces booking reference codes. Uniqueness is not checked here;
// with 36^6 combinations collisions are rare and are resolved by the ledger.
type Generator interface {
	Generate() (string, error)
}

type RandomGenerator struct {
	src io.Reader
}

// NewGenerator returns a generator backed by crypto/rand.
func NewGenerator() *RandomGenerator {
	return &RandomGenerator{src: rand.Reader}
}

// NewGeneratorFrom uses src as the entropy source.
func NewGeneratorFrom(src io.Reader) *RandomGenerator {
	return &RandomGenerator{src: src}
}

func (g *RandomGenerator) Generate() (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	code := make([]byte, Length)
	for i := range code {
		n, err := rand.Int(g.src, max)
		if err != nil {
			return "", err
		}
		code[i] = alphabet[n.Int64()]
	}
	return string(code), nil
}

// Valid reports whether code has the PNR shape.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
