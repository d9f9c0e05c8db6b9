package rangelib

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

type resolveIPRequest struct {
	ip     string
	result *ResolveResult
	wg     *sync.WaitGroup
}

type poolGroupRequest struct {
	ctx  context.Context
	wg   *sync.WaitGroup
	pool *ants.PoolWithFunc
}

func (p *poolGroupRequest) Do(ip string, result *ResolveResult) error {
	select {
	case <-p.ctx.Done():
		return ErrContextIsClosed
	default:
	}

	p.wg.Add(1)

	req := &resolveIPRequest{
		ip:     ip,
		result: result,
		wg:     p.wg,
	}

	if err := p.pool.Invoke(req); err != nil {
		p.wg.Done()

		return fmt.Errorf("cannot schedule a task: %w", err)
	}

	return nil
}

func (p *poolGroupRequest) Wait() {
	p.wg.Wait()
}

func newPoolGroupRequest(ctx context.Context, pool *ants.PoolWithFunc) *poolGroupRequest {
	return &poolGroupRequest{
		ctx:  ctx,
		wg:   &sync.WaitGroup{},
		pool: pool,
	}
}
