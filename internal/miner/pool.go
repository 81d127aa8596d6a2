package miner

import (
	"context"

	"equix/pkg/equix"
)

// Pool hands out solvers. Each solver owns a multi-megabyte workspace, so the
// pool also bounds how many solves run at once.
type Pool struct {
	solvers chan *equix.Equix
}

// NewPool allocates size solvers sharing builder
func NewPool(builder equix.Builder, size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{solvers: make(chan *equix.Equix, size)}
	for i := 0; i < size; i++ {
		p.solvers <- equix.New(builder)
	}
	return p
}

// Get blocks until a solver is free or ctx is done
func (p *Pool) Get(ctx context.Context) (*equix.Equix, error) {
	select {
	case e := <-p.solvers:
		return e, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Put returns a solver obtained from Get
func (p *Pool) Put(e *equix.Equix) {
	p.solvers <- e
}

// Size is the number of solvers owned by the pool
func (p *Pool) Size() int {
	return cap(p.solvers)
}
