// Package loxvm wires the compiler and the VM together behind the
// init/interpret/free lifecycle. It exists as its own package, separate
// from both compiler and vm, so that interpret can call compiler.Compile
// (which needs a *vm.Chunk) without vm importing compiler back.
package loxvm

import (
	"io"
	"os"

	"loxvm/compiler"
	"loxvm/vm"
)

// Result is the three-way outcome of an Interpret call.
type Result int

const (
	// Ok means the chunk ran to OP_RETURN.
	Ok Result = iota
	// CompileError means compilation produced at least one diagnostic and
	// no bytecode was run.
	CompileError
	// RuntimeError means the VM aborted partway through execution.
	RuntimeError
)

func (r Result) String() string {
	switch r {
	case Ok:
		return "Ok"
	case CompileError:
		return "CompileError"
	case RuntimeError:
		return "RuntimeError"
	default:
		return "Unknown"
	}
}

// Interpreter is a single init()/interpret()/free() session. Its globals
// table is process-wide for the session's lifetime: two Interpret calls on
// the same Interpreter share variables, matching the spec's persistence
// rule; two different Interpreters never do.
type Interpreter struct {
	vm *vm.VM
}

// Option configures an Interpreter at construction time.
type Option func(*Interpreter)

// WithOutput redirects `print` output away from os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) { in.vm.Out = w }
}

// WithDiagnostics redirects compile- and runtime-error diagnostics away
// from os.Stderr.
func WithDiagnostics(w io.Writer) Option {
	return func(in *Interpreter) { in.vm.ErrOut = w }
}

// New starts an interpreter session (init()).
func New(opts ...Option) *Interpreter {
	in := &Interpreter{vm: vm.NewVM()}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Interpret compiles and runs source, returning which of the three
// outcomes occurred. A fresh Chunk is created for each call and discarded
// once execution finishes, whatever the outcome.
func (in *Interpreter) Interpret(source string) Result {
	chunk := vm.NewChunk()

	if ok := compiler.Compile(source, chunk, compiler.WithErrorWriter(in.errOut())); !ok {
		return CompileError
	}

	if err := in.vm.Run(chunk); err != nil {
		return RuntimeError
	}
	return Ok
}

// Free ends the session, releasing the operand stack and the globals
// table. The Interpreter must not be used again afterward.
func (in *Interpreter) Free() {
	in.vm.Free()
}

func (in *Interpreter) errOut() io.Writer {
	if in.vm.ErrOut != nil {
		return in.vm.ErrOut
	}
	return os.Stderr
}
