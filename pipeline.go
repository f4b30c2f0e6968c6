//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: _examples/original_source/wangle/channel/Pipeline.h and
// Pipeline-inl.h (PipelineBase: ctxs_/front_/back_, addFront/addBack/remove,
// the reverse-order finalize/attach algorithm, and the typed Pipeline<R,W>
// façade's read/write/close entry points).
//

package pipeline

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/rgnet/pipeline/future"
)

// PipelineBase is the untyped machinery shared by every [Pipeline]
// instantiation: the handler chain, the transport it is attached to, and
// the Finalize/attach bookkeeping. Most code should use the generic
// [Pipeline] façade; PipelineBase is exposed for manager and transport
// code that needs to reach a pipeline without knowing its R/W types.
type PipelineBase struct {
	mu sync.Mutex

	ctxs    []*Context // insertion order, front (transport-side) to back (app-side)
	inCtxs  []*Context // subsequence of ctxs with inbound capability
	outCtxs []*Context // subsequence of ctxs with outbound capability
	front   *Context
	back    *Context
	owner   *Context

	finalized bool
	dirty     bool

	cfg       *Config
	manager   PipelineManager
	transport Transport

	writeFlags WriteFlags
	readBuffer ReadBufferSettings

	aliveFlag atomic.Bool
}

// NewPipelineBase returns an empty, unfinalized pipeline configured by cfg.
// A nil cfg is equivalent to [NewConfig]().
func NewPipelineBase(cfg *Config) *PipelineBase {
	if cfg == nil {
		cfg = NewConfig()
	}
	b := &PipelineBase{
		cfg:        cfg,
		writeFlags: cfg.DefaultWriteFlags,
		readBuffer: cfg.ReadBuffer,
	}
	b.aliveFlag.Store(true)
	return b
}

func (b *PipelineBase) alive() bool { return b.aliveFlag.Load() }

func (b *PipelineBase) logger() SLogger {
	if b.cfg != nil && b.cfg.Logger != nil {
		return b.cfg.Logger
	}
	return DefaultSLogger()
}

// ErrClassifier returns the classifier configured for this pipeline.
func (b *PipelineBase) ErrClassifier() ErrClassifier {
	if b.cfg != nil && b.cfg.ErrClassifier != nil {
		return b.cfg.ErrClassifier
	}
	return DefaultErrClassifier
}

// SetManager installs the [PipelineManager] this pipeline calls back into.
func (b *PipelineBase) SetManager(m PipelineManager) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.manager = m
}

// Manager returns the currently installed [PipelineManager], or nil.
func (b *PipelineBase) Manager() PipelineManager {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.manager
}

// SetTransport installs the [Transport] this pipeline is reading from and
// writing to.
func (b *PipelineBase) SetTransport(t Transport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transport = t
}

// Transport returns the currently installed [Transport], or nil.
func (b *PipelineBase) Transport() Transport {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transport
}

// WriteFlags returns the write flags new writes are tagged with by default.
func (b *PipelineBase) WriteFlags() WriteFlags {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeFlags
}

// SetWriteFlags changes the default write flags.
func (b *PipelineBase) SetWriteFlags(f WriteFlags) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeFlags = f
}

// ReadBufferSettings returns the buffer sizing hints new reads are made with.
func (b *PipelineBase) ReadBufferSettings() ReadBufferSettings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readBuffer
}

// SetOwner marks ctx as exempt from detachment when the pipeline is
// destroyed — used by a handler (typically the socket handler) that owns
// the pipeline it's installed in and will outlive the Destroy call.
func (b *PipelineBase) SetOwner(ctx *Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.owner = ctx
}

// AddBack appends h to the end of the chain (closest to the application).
func (b *PipelineBase) AddBack(h Handler) (*Context, error) {
	return b.add(h, false)
}

// AddFront prepends h to the start of the chain (closest to the transport).
func (b *PipelineBase) AddFront(h Handler) (*Context, error) {
	return b.add(h, true)
}

func (b *PipelineBase) add(h Handler, front bool) (*Context, error) {
	op := "AddBack"
	if front {
		op = "AddFront"
	}
	_, ok := h.(attachable)
	if !ok {
		return nil, errNotAttachable(op, h)
	}
	ctx := &Context{base: b, handler: h, dir: h.Direction()}

	b.mu.Lock()
	defer b.mu.Unlock()
	if front {
		b.ctxs = append([]*Context{ctx}, b.ctxs...)
	} else {
		b.ctxs = append(b.ctxs, ctx)
	}
	b.dirty = true
	return ctx, nil
}

// Remove detaches h from the chain. It returns a [*CompositionError] if h
// is not currently in the chain.
func (b *PipelineBase) Remove(h Handler) error {
	b.mu.Lock()
	idx := -1
	for i, ctx := range b.ctxs {
		if ctx.handler == h {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		return &CompositionError{Op: "Remove", Msg: "handler is not in the pipeline"}
	}
	ctx := b.ctxs[idx]
	b.ctxs = append(b.ctxs[:idx], b.ctxs[idx+1:]...)
	b.dirty = true
	b.mu.Unlock()

	if at, ok := h.(attachable); ok {
		at.detachPipeline(ctx)
	}
	return nil
}

// RemoveType detaches the first context in b's chain whose handler's
// concrete type is T, the type-keyed counterpart to [PipelineBase.Remove]'s
// identity-keyed lookup (Pipeline.h declares both a remove(H* handler)
// overload and a type-parameterized remove() overload; a Go method cannot
// introduce its own type parameter, so this is a free function instead of
// a second PipelineBase method). It returns the removed handler and true,
// or the zero value and false if no context of that type was found.
func RemoveType[T Handler](b *PipelineBase) (T, bool) {
	want := reflect.TypeOf((*T)(nil)).Elem()

	b.mu.Lock()
	idx := -1
	for i, ctx := range b.ctxs {
		if reflect.TypeOf(ctx.handler) == want {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		var zero T
		return zero, false
	}
	ctx := b.ctxs[idx]
	b.ctxs = append(b.ctxs[:idx], b.ctxs[idx+1:]...)
	b.dirty = true
	b.mu.Unlock()

	if at, ok := ctx.handler.(attachable); ok {
		at.detachPipeline(ctx)
	}
	return ctx.handler.(T), true
}

// Finalize (re)derives the inbound and outbound chains from the current
// handler list, type-checks every adjacent pair that exposes a
// [TypeWitness], and attaches every context that isn't already attached.
// Finalize is idempotent: calling it again after [AddBack]/[AddFront]/
// [Remove] re-derives the chains from scratch. Firing an event through a
// pipeline that has been mutated since its last Finalize panics.
func (b *PipelineBase) Finalize() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var inCtxs, outCtxs []*Context
	for _, ctx := range b.ctxs {
		if ctx.dir.hasIn() {
			inCtxs = append(inCtxs, ctx)
		}
		if ctx.dir.hasOut() {
			outCtxs = append(outCtxs, ctx)
		}
	}

	for i := 0; i < len(inCtxs); i++ {
		if i+1 < len(inCtxs) {
			inCtxs[i].nextIn = inCtxs[i+1]
		} else {
			inCtxs[i].nextIn = nil
		}
	}
	for i := len(outCtxs) - 1; i >= 0; i-- {
		if i > 0 {
			outCtxs[i].nextOut = outCtxs[i-1]
		} else {
			outCtxs[i].nextOut = nil
		}
	}

	if err := checkInboundTypes(inCtxs); err != nil {
		return err
	}
	if err := checkOutboundTypes(outCtxs); err != nil {
		return err
	}

	// Every context in the chains of the last successful Finalize is
	// already attached.
	attached := make(map[*Context]bool, len(b.inCtxs)+len(b.outCtxs))
	for _, ctx := range b.inCtxs {
		attached[ctx] = true
	}
	for _, ctx := range b.outCtxs {
		attached[ctx] = true
	}

	b.inCtxs, b.outCtxs = inCtxs, outCtxs
	if len(inCtxs) > 0 {
		b.front = inCtxs[0]
	} else {
		b.front = nil
	}
	if len(outCtxs) > 0 {
		b.back = outCtxs[len(outCtxs)-1]
	} else {
		b.back = nil
	}

	// Attach every not-yet-attached context in reverse insertion order:
	// app-side handlers see a fully-wired chain behind them by the time
	// their attach hook runs.
	for i := len(b.ctxs) - 1; i >= 0; i-- {
		ctx := b.ctxs[i]
		if attached[ctx] {
			continue
		}
		if at, ok := ctx.handler.(attachable); ok {
			at.attachPipeline(ctx)
		}
	}

	b.finalized = true
	b.dirty = false
	return nil
}

func checkInboundTypes(inCtxs []*Context) error {
	for i := 0; i+1 < len(inCtxs); i++ {
		a, aok := inCtxs[i].handler.(TypeWitness)
		b, bok := inCtxs[i+1].handler.(TypeWitness)
		if !aok || !bok {
			continue
		}
		_, aRout, _, _ := a.Types()
		bRin, _, _, _ := b.Types()
		if aRout == nil || bRin == nil {
			continue
		}
		if aRout != bRin {
			return errTypeMismatch("Finalize", inCtxs[i].handler, inCtxs[i+1].handler)
		}
	}
	return nil
}

func checkOutboundTypes(outCtxs []*Context) error {
	for i := len(outCtxs) - 1; i > 0; i-- {
		y, yok := outCtxs[i].handler.(TypeWitness)
		x, xok := outCtxs[i-1].handler.(TypeWitness)
		if !yok || !xok {
			continue
		}
		_, _, _, yWout := y.Types()
		_, _, xWin, _ := x.Types()
		if yWout == nil || xWin == nil {
			continue
		}
		if yWout != xWin {
			return errTypeMismatch("Finalize", outCtxs[i].handler, outCtxs[i-1].handler)
		}
	}
	return nil
}

// Destroy detaches every context in insertion order (the owner context, if
// set, is skipped) and marks the pipeline no longer alive: every
// subsequently fired event is dropped rather than delivered.
func (b *PipelineBase) Destroy() {
	b.mu.Lock()
	ctxs := append([]*Context(nil), b.ctxs...)
	owner := b.owner
	b.mu.Unlock()

	b.aliveFlag.Store(false)
	for _, ctx := range ctxs {
		if ctx == owner {
			continue
		}
		if at, ok := ctx.handler.(attachable); ok {
			at.detachPipeline(ctx)
		}
	}
}

func (b *PipelineBase) mustNotDirty(op string) {
	b.mu.Lock()
	dirty := b.dirty
	b.mu.Unlock()
	if dirty {
		panic(&CompositionError{Op: op, Msg: "pipeline mutated since last Finalize; call Finalize before firing events"})
	}
}

// TransportActive injects a transport-active event at the front of the
// inbound chain.
func (b *PipelineBase) TransportActive() {
	b.mustNotDirty("TransportActive")
	if b.front == nil {
		return
	}
	b.front.transportActive()
}

// TransportInactive injects a transport-inactive event at the front of the
// inbound chain.
func (b *PipelineBase) TransportInactive() {
	b.mustNotDirty("TransportInactive")
	if b.front == nil {
		return
	}
	b.front.transportInactive()
}

// Pipeline is the typed façade over [PipelineBase]: R is the type the
// application reads via [Pipeline.Read], W is the type it writes via
// [Pipeline.Write]. Use [Unit] for R or W to disable that direction.
type Pipeline[R, W any] struct {
	*PipelineBase
}

// NewPipeline returns a new, empty, unfinalized [Pipeline].
func NewPipeline[R, W any](cfg *Config) *Pipeline[R, W] {
	return &Pipeline[R, W]{PipelineBase: NewPipelineBase(cfg)}
}

// Read injects msg at the front of the inbound chain.
func (p *Pipeline[R, W]) Read(msg R) {
	p.mustNotDirty("Read")
	if p.front == nil {
		p.logger().Warn("pipeline: Read called with no inbound handler installed")
		return
	}
	p.front.read(any(msg))
}

// ReadEOF injects a read-EOF event at the front of the inbound chain.
func (p *Pipeline[R, W]) ReadEOF() {
	p.mustNotDirty("ReadEOF")
	if p.front == nil {
		return
	}
	p.front.readEOF()
}

// ReadException injects a read exception at the front of the inbound chain.
func (p *Pipeline[R, W]) ReadException(err error) {
	p.mustNotDirty("ReadException")
	if p.front == nil {
		return
	}
	p.front.readException(err)
}

// Write injects msg at the back of the outbound chain.
func (p *Pipeline[R, W]) Write(msg W) *future.Future[Unit] {
	p.mustNotDirty("Write")
	if p.back == nil {
		p.logger().Warn("pipeline: Write called with no outbound handler installed")
		return future.Completed(Unit{})
	}
	return p.back.write(any(msg))
}

// WriteException injects a write exception at the back of the outbound chain.
func (p *Pipeline[R, W]) WriteException(err error) *future.Future[Unit] {
	p.mustNotDirty("WriteException")
	if p.back == nil {
		return future.Completed(Unit{})
	}
	return p.back.writeException(err)
}

// Close injects a close event at the back of the outbound chain.
func (p *Pipeline[R, W]) Close() *future.Future[Unit] {
	p.mustNotDirty("Close")
	if p.back == nil {
		return future.Completed(Unit{})
	}
	return p.back.close()
}
