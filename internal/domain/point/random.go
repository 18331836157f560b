package point

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// RandomSource yields a uniformly distributed integer in [min, max].
type RandomSource interface {
	IntRange(min, max int) (int, error)
}

// CryptoRandom draws from crypto/rand.
type CryptoRandom struct{}

func (CryptoRandom) IntRange(min, max int) (int, error) {
	if max < min {
		return 0, fmt.Errorf("invalid range [%d, %d]", min, max)
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max-min+1)))
	if err != nil {
		return 0, err
	}
	return min + int(n.Int64()), nil
}
