package utils

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrPoolClosed 工作池已停止
var ErrPoolClosed = errors.New("worker pool closed")

// WorkerPool 表示一个工作池，用于并发运行相互独立的模拟场景
type WorkerPool struct {
	jobs    chan func() error
	wg      sync.WaitGroup
	workers int
	closed  atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc

	errMu sync.Mutex
	errs  []error
}

// NewWorkerPool 创建一个新的工作池
func NewWorkerPool(ctx context.Context, workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	ctx, cancel := context.WithCancel(ctx)
	pool := &WorkerPool{
		jobs:    make(chan func() error, workers*2), // 缓冲区大小为工作者数量的2倍
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
	}
	pool.start()
	return pool
}

// Workers 返回工作协程数量
func (p *WorkerPool) Workers() int {
	return p.workers
}

func (p *WorkerPool) start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-p.ctx.Done():
					return
				case job, ok := <-p.jobs:
					if !ok {
						return
					}
					p.run(job)
				}
			}
		}()
	}
}

// run 执行任务，记录返回的错误和 panic
func (p *WorkerPool) run(job func() error) {
	defer func() {
		if r := recover(); r != nil {
			p.addErr(fmt.Errorf("job panicked: %v", r))
		}
	}()
	if err := job(); err != nil {
		p.addErr(err)
	}
}

func (p *WorkerPool) addErr(err error) {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	p.errs = append(p.errs, err)
}

// Submit 提交一个任务到工作池
func (p *WorkerPool) Submit(job func() error) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Wait 关闭任务通道，等待已提交的任务全部完成，返回所有任务错误的合并
// 上下文在此之前被取消时，未执行的任务被丢弃，返回的错误包含取消原因
func (p *WorkerPool) Wait() error {
	if !p.closed.Swap(true) {
		close(p.jobs)
	}
	p.wg.Wait()
	cancelled := context.Cause(p.ctx)
	p.cancel()

	p.errMu.Lock()
	defer p.errMu.Unlock()
	if cancelled != nil {
		return errors.Join(append(p.errs, fmt.Errorf("worker pool cancelled: %w", cancelled))...)
	}
	return errors.Join(p.errs...)
}

// Stop 取消上下文并立即停止，未开始的任务被丢弃
func (p *WorkerPool) Stop() {
	p.cancel()
	if !p.closed.Swap(true) {
		close(p.jobs)
	}
	p.wg.Wait()
}
