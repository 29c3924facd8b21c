package vm

import (
	"fmt"
	"io"
	"os"
)

// VM executes the bytecode held in a single Chunk. It owns no AST and no
// call stack of its own; the language this VM runs has no user-defined
// functions, so one Chunk is one complete program.
type VM struct {
	stack   []Value
	globals map[string]Value

	chunk *Chunk
	ip    int

	// Out receives `print` output; ErrOut receives runtime error diagnostics.
	Out    io.Writer
	ErrOut io.Writer
}

// NewVM creates a virtual machine with its output streams wired to the
// process's standard streams. Embedders can redirect Out/ErrOut directly.
func NewVM() *VM {
	return &VM{
		stack:   make([]Value, 0, 256),
		globals: make(map[string]Value),
		Out:     os.Stdout,
		ErrOut:  os.Stderr,
	}
}

// Reset clears the VM's stack and instruction pointer but keeps globals,
// mirroring a fresh call to run a new chunk in the same session. The
// globals table is process-wide for the life of the VM: it persists across
// Run calls so later programs can read variables earlier ones defined.
func (vm *VM) Reset() {
	vm.stack = vm.stack[:0]
	vm.ip = 0
}

// Free releases the VM's stack storage and globals table, ending the
// session started by NewVM. The VM must not be used again afterward.
func (vm *VM) Free() {
	vm.stack = nil
	vm.globals = nil
	vm.chunk = nil
}

func (vm *VM) push(value Value) {
	vm.stack = append(vm.stack, value)
}

func (vm *VM) pop() Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

// peek returns the value at distance from the top of the stack (0 is top)
// without removing it.
func (vm *VM) peek(distance int) Value {
	return vm.stack[len(vm.stack)-1-distance]
}

// Run executes the bytecode in chunk to completion or until a runtime
// error occurs.
func (vm *VM) Run(chunk *Chunk) error {
	vm.chunk = chunk
	vm.ip = 0
	return vm.execute()
}

func (vm *VM) readByte() byte {
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readShort() uint16 {
	hi := uint16(vm.chunk.Code[vm.ip])
	lo := uint16(vm.chunk.Code[vm.ip+1])
	vm.ip += 2
	return hi<<8 | lo
}

func (vm *VM) readConstant() Value {
	return vm.chunk.GetConstant(vm.readByte())
}

func (vm *VM) execute() error {
	for {
		instruction := Opcode(vm.readByte())

		switch instruction {
		case OP_CONSTANT:
			vm.push(vm.readConstant())

		case OP_NIL:
			vm.push(Nil())

		case OP_TRUE:
			vm.push(Bool(true))

		case OP_FALSE:
			vm.push(Bool(false))

		case OP_POP:
			vm.pop()

		case OP_GET_GLOBAL:
			name := *vm.readConstant().AsObj()
			value, ok := vm.globals[name]
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name)
			}
			vm.push(value)

		case OP_DEFINE_GLOBAL:
			name := *vm.readConstant().AsObj()
			vm.globals[name] = vm.peek(0)
			vm.pop()

		case OP_SET_GLOBAL:
			name := *vm.readConstant().AsObj()
			if _, ok := vm.globals[name]; !ok {
				return vm.runtimeError("Undefined variable '%s'.", name)
			}
			vm.globals[name] = vm.peek(0)

		case OP_EQUAL:
			b := vm.pop()
			a := vm.pop()
			vm.push(Bool(a.Equals(b)))

		case OP_GREATER:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				return vm.runtimeError("Operands must be numbers.")
			}
			b := vm.pop().AsNumber()
			a := vm.pop().AsNumber()
			vm.push(Bool(a > b))

		case OP_LESS:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				return vm.runtimeError("Operands must be numbers.")
			}
			b := vm.pop().AsNumber()
			a := vm.pop().AsNumber()
			vm.push(Bool(a < b))

		case OP_ADD:
			// This dialect has no string values reachable from source text
			// (Obj exists in the Value model but no literal or operator
			// produces one), so addition is numeric only.
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				return vm.runtimeError("Operands must be numbers.")
			}
			b := vm.pop().AsNumber()
			a := vm.pop().AsNumber()
			vm.push(Number(a + b))

		case OP_SUBTRACT:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				return vm.runtimeError("Operands must be numbers.")
			}
			b := vm.pop().AsNumber()
			a := vm.pop().AsNumber()
			vm.push(Number(a - b))

		case OP_MULTIPLY:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				return vm.runtimeError("Operands must be numbers.")
			}
			b := vm.pop().AsNumber()
			a := vm.pop().AsNumber()
			vm.push(Number(a * b))

		case OP_DIVIDE:
			divisor := vm.peek(0)
			if divisor.IsNumber() && divisor.AsNumber() == 0 {
				return vm.runtimeError("Division by zero.")
			}
			if !divisor.IsNumber() || !vm.peek(1).IsNumber() {
				return vm.runtimeError("Operands must be numbers.")
			}
			b := vm.pop().AsNumber()
			a := vm.pop().AsNumber()
			vm.push(Number(a / b))

		case OP_NOT:
			vm.push(Bool(vm.pop().IsFalsey()))

		case OP_NEGATE:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(Number(-vm.pop().AsNumber()))

		case OP_PRINT:
			fmt.Fprintln(vm.Out, vm.pop().String())

		case OP_JUMP:
			offset := vm.readShort()
			vm.ip += int(offset)

		case OP_JUMP_IF_FALSE:
			offset := vm.readShort()
			if vm.peek(0).IsFalsey() {
				vm.ip += int(offset)
			}

		case OP_LOOP:
			offset := vm.readShort()
			vm.ip -= int(offset)

		case OP_RETURN:
			return nil

		default:
			return vm.runtimeError("Unknown opcode: %d", instruction)
		}
	}
}

// errRuntime is returned by execute to signal that a runtime error already
// reported itself to ErrOut; callers only need the outcome, not the text.
var errRuntime = fmt.Errorf("runtime error")

// runtimeError prints "Runtime error: <message>" to the diagnostic stream,
// resets the stack (mirroring the teacher's resetStack-on-error discipline),
// and returns a sentinel the caller maps to the RuntimeError outcome.
func (vm *VM) runtimeError(format string, args ...interface{}) error {
	message := fmt.Sprintf(format, args...)
	fmt.Fprintf(vm.ErrOut, "Runtime error: %s\n", message)
	vm.stack = vm.stack[:0]
	return errRuntime
}
