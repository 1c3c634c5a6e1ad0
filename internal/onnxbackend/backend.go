// Package onnxbackend implements the abstract Inference Backend (§6) on
// top of ONNX Runtime, following the session-construction idiom of the
// teacher's internal/embed/embedder.go: shared session options
// (intra/inter-op thread counts), one *ort.DynamicAdvancedSession per
// compiled artifact, and explicit tensor Destroy() cleanup.
package onnxbackend

import (
	"fmt"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/screenager/gliner2/internal/nerrors"
)

// DType identifies the element type carried by a Value.
type DType int

const (
	DTFloat32 DType = iota
	DTFloat16
	DTInt32
)

// Value is one named tensor crossing the Backend boundary (§6). Float16
// outputs are decoded to float32 by the adapter before a Value with
// DTFloat32 reaches the caller — per §4.3, callers never see raw half
// floats.
type Value struct {
	DType DType
	Shape []int
	F32   []float32
	I32   []int32
}

func (v Value) elemCount() int {
	n := 1
	for _, d := range v.Shape {
		n *= d
	}
	return n
}

// Handle is an opaque compiled-module reference, closed once at NER
// shutdown (the top-level handle's lifetime, §3).
type Handle interface {
	Close() error
}

// Backend is the abstract inference execution engine described in §6: a
// compile step producing a Handle for a module with the given input and
// output names, and a Run step taking/returning named tensor maps.
type Backend interface {
	Compile(path string, inputNames, outputNames []string) (Handle, error)
	Run(h Handle, inputs map[string]Value, outputNames []string) (map[string]Value, error)
}

// newSessionOptions mirrors the teacher's conservative threading defaults:
// intra-op parallelism capped, inter-op left at 1 to avoid goroutine/
// thread contention from five small sessions instead of one.
func newSessionOptions(numThreads int) (*ort.SessionOptions, error) {
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
		if numThreads > 4 {
			numThreads = 4
		}
	}
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	if err := opts.SetIntraOpNumThreads(numThreads); err != nil {
		opts.Destroy()
		return nil, fmt.Errorf("set intra threads: %w", err)
	}
	if err := opts.SetInterOpNumThreads(1); err != nil {
		opts.Destroy()
		return nil, fmt.Errorf("set inter threads: %w", err)
	}
	return opts, nil
}

// ONNXBackend is the ONNX Runtime implementation of Backend. A process
// needs ort.InitializeEnvironment called once before constructing one;
// that call is made by the gliner2 package's New, matching the teacher's
// embed.New doing it lazily; New skips it when ort.IsInitialized already
// reports true.
type ONNXBackend struct {
	numThreads int
}

// NewONNXBackend returns a Backend bound to numThreads intra-op threads
// (0 = auto, matching the teacher's min(NumCPU,4) default).
func NewONNXBackend(numThreads int) *ONNXBackend {
	return &ONNXBackend{numThreads: numThreads}
}

// sessionHandle wraps one compiled ONNX module. Compilation happens once,
// here, inside Compile; Backend.Run never recompiles per call (§4.3).
type sessionHandle struct {
	session     *ort.DynamicAdvancedSession
	inputNames  []string
	outputNames []string
	queue       adapterQueue
}

func (h *sessionHandle) Close() error {
	if h.session != nil {
		h.session.Destroy()
	}
	return nil
}

// Compile loads and compiles the ONNX module at path. inputNames and
// outputNames are fixed per the §4.3 adapter table and supplied by the
// caller (internal/onnxbackend's typed adapters in modules.go).
func (b *ONNXBackend) Compile(path string, inputNames, outputNames []string) (Handle, error) {
	opts, err := newSessionOptions(b.numThreads)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.ResourceError, "onnxbackend.compile", "session options", err)
	}
	defer opts.Destroy()

	session, err := ort.NewDynamicAdvancedSession(path, inputNames, outputNames, opts)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.ResourceError, "onnxbackend.compile", "compile "+path, err)
	}
	return &sessionHandle{session: session, inputNames: inputNames, outputNames: outputNames}, nil
}

// adapterQueue serialises calls into one compiled module, satisfying
// §4.3/§5's "dedicated queue" requirement for backends (like Core ML)
// that cannot tolerate concurrent native calls, while still letting
// independent adapters (encoder vs. span-rep, etc.) run concurrently.
type adapterQueue struct {
	mu sync.Mutex
}

func (q *adapterQueue) do(f func() error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return f()
}

// Run executes one forward pass of the compiled module in h, serialised
// against any other in-flight call on the same handle.
func (b *ONNXBackend) Run(h Handle, inputs map[string]Value, outputNames []string) (map[string]Value, error) {
	sh, ok := h.(*sessionHandle)
	if !ok {
		return nil, nerrors.New(nerrors.InvalidInput, "onnxbackend.run", "handle was not produced by this backend")
	}

	ortInputs := make([]ort.Value, len(sh.inputNames))
	var destroyers []func()
	defer func() {
		for _, d := range destroyers {
			d()
		}
	}()

	for i, name := range sh.inputNames {
		v, ok := inputs[name]
		if !ok {
			return nil, nerrors.New(nerrors.InvalidInput, "onnxbackend.run", "missing input: "+name)
		}
		tv, destroy, err := toORTValue(v)
		if err != nil {
			return nil, err
		}
		ortInputs[i] = tv
		destroyers = append(destroyers, destroy)
	}

	ortOutputs := make([]ort.Value, len(sh.outputNames))
	err := sh.queue.do(func() error { return sh.session.Run(ortInputs, ortOutputs) })
	if err != nil {
		return nil, nerrors.Wrap(nerrors.InvalidOutput, "onnxbackend.run", "session run", err)
	}
	for _, o := range ortOutputs {
		if o != nil {
			oo := o
			destroyers = append(destroyers, func() { oo.Destroy() })
		}
	}

	out := make(map[string]Value, len(sh.outputNames))
	for i, name := range sh.outputNames {
		v, err := fromORTValue(ortOutputs[i])
		if err != nil {
			return nil, nerrors.Wrap(nerrors.InvalidOutput, "onnxbackend.run", "decode output "+name, err)
		}
		out[name] = v
	}
	return out, nil
}
