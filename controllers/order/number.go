package orderControllers

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/sethvargo/go-retry"
)

const (
	orderNumberPrefix   = "ORD-"
	orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderNumberLength   = 10
)

// ExistsFunc reports whether an order number is already in use.
type ExistsFunc func(ctx context.Context, number string) (bool, error)

// NumberGenerator draws random order numbers and retries on collision.
type NumberGenerator struct {
	attempts uint64
	random   func() (string, error)
}

func NewNumberGenerator(attempts uint64) *NumberGenerator {
	if attempts == 0 {
		attempts = 1
	}
	return &NumberGenerator{attempts: attempts, random: RandomOrderNumber}
}

// RandomOrderNumber returns "ORD-" followed by 10 characters from [A-Z0-9].
func RandomOrderNumber() (string, error) {
	max := big.NewInt(int64(len(orderNumberAlphabet)))
	buf := make([]byte, orderNumberLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("random order number: %w", err)
		}
		buf[i] = orderNumberAlphabet[n.Int64()]
	}
	return orderNumberPrefix + string(buf), nil
}

// Next returns a number that exists reports as free. It gives up after the
// configured number of attempts with an error wrapping ErrOrderNumberTaken.
func (g *NumberGenerator) Next(ctx context.Context, exists ExistsFunc) (string, error) {
	var number string
	backoff := retry.WithMaxRetries(g.attempts-1, retry.NewConstant(time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		candidate, err := g.random()
		if err != nil {
			return err
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return err
		}
		if taken {
			return retry.RetryableError(fmt.Errorf("%w: %s", models.ErrOrderNumberTaken, candidate))
		}
		number = candidate
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("generate order number: %w", err)
	}
	return number, nil
}
