package kvtx

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

const trackTxns = true

// engineSnapshot is the single, atomically-published unit of state: one
// type-erased *tableData[K,V] per table, indexed by Table.pos. Because an
// Engine publishes and pins this whole slice with one atomic.Pointer
// operation, a reader sees every table exactly as it stood at one instant
// even though individual tables are stored independently.
type engineSnapshot struct {
	slots []any
}

// EngineOptions configures an Engine. There is no file path, mmap size, or
// sync mode here — this engine has no backing store, only memory.
type EngineOptions struct {
	Logger *slog.Logger
	// Verbose, when true, makes the engine log the start of every
	// transaction at debug level; nothing is logged otherwise.
	Verbose bool
	// WriterTimeout bounds how long Write/WriteErr will wait to acquire the
	// single writer slot before giving up; zero means wait indefinitely.
	WriterTimeout time.Duration
}

// Engine is an in-process, memory-resident, transactional key-value store:
// a fixed Schema of tables plus the single published engineSnapshot that
// every ReadContext pins and every WriteContext clones-from and eventually
// replaces. A single channel-based semaphore enforces the single-writer
// protocol; there is no on-disk bookkeeping of any kind.
type Engine struct {
	schema        *Schema
	logger        *slog.Logger
	verbose       bool
	writerTimeout time.Duration

	snapshot atomic.Pointer[engineSnapshot]

	writerSem chan struct{} // capacity 1; held for the duration of one write transaction

	ReaderCount        atomic.Int64
	WriterCount        atomic.Int64
	PendingWriterCount atomic.Int64
	ReadCount          atomic.Uint64
	WriteCount         atomic.Uint64

	txns     []*txHandle
	txnsLock sync.Mutex
}

// txHandle is the debug bookkeeping record for one open transaction; its
// startTime and stack fields back DescribeOpenTransactions below.
type txHandle struct {
	writable  bool
	startTime time.Time
	stack     string
}

// NewEngine seals scm and returns a ready Engine with an empty snapshot:
// every table starts with zero rows.
func NewEngine(scm *Schema, opt EngineOptions) *Engine {
	scm.seal()

	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}

	eng := &Engine{
		schema:        scm,
		logger:        logger,
		verbose:       opt.Verbose,
		writerTimeout: opt.WriterTimeout,
		writerSem:     make(chan struct{}, 1),
	}
	eng.snapshot.Store(&engineSnapshot{slots: scm.newSnapshotSlots()})
	return eng
}

func (eng *Engine) Schema() *Schema { return eng.schema }

// Read runs f against a pinned, consistent snapshot. Any number of reads
// may run concurrently with each other and with the single in-flight
// write.
func (eng *Engine) Read(f func(ctx *ReadContext)) {
	ensure(eng.ReadErr(func(ctx *ReadContext) error {
		f(ctx)
		return nil
	}))
}

// ReadErr is Read's error-returning form.
func (eng *Engine) ReadErr(f func(ctx *ReadContext) error) error {
	eng.ReaderCount.Add(1)
	defer eng.ReaderCount.Add(-1)
	eng.ReadCount.Add(1)

	ctx := &ReadContext{
		eng:  eng,
		snap: eng.snapshot.Load(),
	}
	ctx.handle = eng.addTx(false)
	defer eng.removeTx(ctx.handle)

	if eng.verbose {
		eng.logger.Debug("kvtx: read transaction start")
	}
	return eng.safelyCallRead(f, ctx)
}

// Write runs f against a private working copy of the schema's tables and
// publishes every table it touched, atomically, on successful return.
// Only one Write may be in flight at a time per Engine.
func (eng *Engine) Write(f func(ctx *WriteContext)) {
	ensure(eng.WriteErr(func(ctx *WriteContext) error {
		f(ctx)
		return nil
	}))
}

// WriteErr is Write's error-returning form.
func (eng *Engine) WriteErr(f func(ctx *WriteContext) error) error {
	eng.PendingWriterCount.Add(1)
	if err := eng.acquireWriter(); err != nil {
		eng.PendingWriterCount.Add(-1)
		return err
	}
	eng.PendingWriterCount.Add(-1)
	defer eng.releaseWriter()

	eng.WriterCount.Add(1)
	defer eng.WriterCount.Add(-1)
	eng.WriteCount.Add(1)

	base := eng.snapshot.Load()
	ctx := &WriteContext{
		eng:    eng,
		base:   base,
		clones: make([]any, len(base.slots)),
	}
	ctx.handle = eng.addTx(true)
	defer eng.removeTx(ctx.handle)

	if eng.verbose {
		eng.logger.Debug("kvtx: write transaction start")
	}

	err := eng.safelyCallWrite(f, ctx)
	if err != nil {
		return err
	}

	next := &engineSnapshot{slots: make([]any, len(base.slots))}
	for i, clone := range ctx.clones {
		if clone != nil {
			next.slots[i] = clone
		} else {
			next.slots[i] = base.slots[i]
		}
	}
	eng.snapshot.Store(next)
	return nil
}

func (eng *Engine) acquireWriter() error {
	if eng.writerTimeout <= 0 {
		eng.writerSem <- struct{}{}
		return nil
	}
	select {
	case eng.writerSem <- struct{}{}:
		return nil
	case <-time.After(eng.writerTimeout):
		return errors.New("kvtx: timed out waiting for the writer lock")
	}
}

func (eng *Engine) releaseWriter() {
	<-eng.writerSem
}

func (eng *Engine) safelyCallRead(f func(*ReadContext) error, ctx *ReadContext) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = callbackPanic(p)
		}
	}()
	return f(ctx)
}

func (eng *Engine) safelyCallWrite(f func(*WriteContext) error, ctx *WriteContext) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = callbackPanic(p)
		}
	}()
	return f(ctx)
}

// ReadTransaction runs f against eng and returns whatever f returns. It is
// a free function, not a method, because Engine.ReadErr can't itself carry
// f's result type parameter.
func ReadTransaction[T any](eng *Engine, f func(ctx *ReadContext) (T, error)) (T, error) {
	var result T
	err := eng.ReadErr(func(ctx *ReadContext) error {
		v, err := f(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// WriteTransaction is ReadTransaction's write-mode counterpart.
func WriteTransaction[T any](eng *Engine, f func(ctx *WriteContext) (T, error)) (T, error) {
	var result T
	err := eng.WriteErr(func(ctx *WriteContext) error {
		v, err := f(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

func (eng *Engine) addTx(writable bool) *txHandle {
	h := &txHandle{writable: writable, startTime: time.Now()}
	if trackTxns {
		h.stack = string(debug.Stack())
	}
	eng.txnsLock.Lock()
	eng.txns = append(eng.txns, h)
	eng.txnsLock.Unlock()
	return h
}

func (eng *Engine) removeTx(h *txHandle) {
	eng.txnsLock.Lock()
	defer eng.txnsLock.Unlock()
	found := -1
	for i, t := range eng.txns {
		if t == h {
			found = i
			break
		}
	}
	if found < 0 {
		panic("kvtx: internal: tx not found in list")
	}
	n := len(eng.txns)
	eng.txns[found] = eng.txns[n-1]
	eng.txns[n-1] = nil
	eng.txns = eng.txns[:n-1]
}

// DescribeOpenTransactions reports every transaction still in flight,
// oldest first — useful from a debug endpoint when a write appears stuck
// behind a long-lived reader.
func (eng *Engine) DescribeOpenTransactions() string {
	if !trackTxns {
		return "open transaction tracking disabled"
	}

	eng.txnsLock.Lock()
	txns := slices.Clone(eng.txns)
	eng.txnsLock.Unlock()

	if len(txns) == 0 {
		return "no open transactions"
	}

	slices.SortFunc(txns, func(a, b *txHandle) int {
		return a.startTime.Compare(b.startTime)
	})

	now := time.Now()
	var buf strings.Builder
	fmt.Fprintf(&buf, "%d open transactions:\n", len(txns))
	for _, h := range txns {
		ms := now.Sub(h.startTime).Milliseconds()
		mode := "read"
		if h.writable {
			mode = "write"
		}
		if ms < 100 {
			fmt.Fprintf(&buf, "\n---\n%s, open for %d ms\n", mode, ms)
		} else {
			fmt.Fprintf(&buf, "\n---\n%s, open for %d ms:\n%s", mode, ms, h.stack)
		}
	}
	return buf.String()
}
