package pipexec_test

import (
	"context"
	"sync"
	"testing"

	"github.com/edirooss/pipexec"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsWithinCapacity(t *testing.T) {
	pool := pipexec.NewPool(2)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := pool.Execute(ctx, []string{trueBin})
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
}

func TestPool_CanceledContext(t *testing.T) {
	pool := pipexec.NewPool(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := pool.Execute(ctx, []string{trueBin})
	require.ErrorIs(t, err, context.Canceled)
}
