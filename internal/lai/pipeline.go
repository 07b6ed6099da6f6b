package lai

import (
	"context"
	"fmt"
	"math/big"

	"golang.org/x/sync/errgroup"
)

// encryptBlocks encrypts every block integer to public, preserving order.
func encryptBlocks(ctx context.Context, c Cipher, values []*big.Int, public Point, workers int) ([]*Ciphertext, error) {
	return mapBlocks(ctx, values, workers, func(m *big.Int) (*Ciphertext, error) {
		return c.Encrypt(m, public)
	})
}

// decryptBlocks decrypts every record with private, preserving order.
func decryptBlocks(ctx context.Context, c Cipher, records []*Ciphertext, private *big.Int, workers int) ([]*big.Int, error) {
	return mapBlocks(ctx, records, workers, func(ct *Ciphertext) (*big.Int, error) {
		return c.Decrypt(ct, private)
	})
}

// mapBlocks applies fn to every element of in and returns the results at the
// same indices. With workers > 1 up to that many calls run concurrently; each
// goroutine writes only its own slot of the result. The first failure cancels
// the remaining work and is returned with its block index.
func mapBlocks[In, Out any](ctx context.Context, in []In, workers int, fn func(In) (Out, error)) ([]Out, error) {
	out := make([]Out, len(in))

	if workers <= 1 {
		for i, v := range in {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := fn(v)
			if err != nil {
				return nil, fmt.Errorf("block %d: %w", i, err)
			}
			out[i] = r
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, v := range in {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(v)
			if err != nil {
				return fmt.Errorf("block %d: %w", i, err)
			}
			out[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
