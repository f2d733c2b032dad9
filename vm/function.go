// This file is part of Gopher800.
//
// Gopher800 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher800 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher800.  If not, see <https://www.gnu.org/licenses/>.

package vm

// Opcode for the bytecode interpreter.
type Opcode uint8

// The complete instruction set. Operands A and B are part of the Instr.
const (
	OpNop Opcode = iota

	OpPushInt    // push literal A
	OpPushObject // push domain object with index A
	OpPop        // discard top of stack

	OpLoadLocal   // push local A
	OpStoreLocal  // pop into local A
	OpLoadGlobal  // push global A
	OpStoreGlobal // pop into global A
	OpLoadThread  // push thread variable A

	// binary operations pop two values and push the result. the right hand
	// operand is on top of the stack
	OpAdd
	OpSub
	OpMul
	OpDiv // division by zero yields zero
	OpMod // as does modulo by zero
	OpAnd
	OpOr
	OpXor
	OpShl // shift counts are masked to 0-31
	OpShr // arithmetic shift right
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	// unary operations replace the top of stack
	OpNeg
	OpNot  // bitwise complement
	OpBool // collapse to 0 or 1
	OpLNot // logical not

	OpJump // jump to A
	OpJz   // pop, jump to A if zero
	OpJnz  // pop, jump to A if not zero

	OpCallFunc   // call domain function A with B arguments
	OpCallMethod // call method A of the object below the B arguments

	OpReturn      // return with no value
	OpReturnValue // pop, return value
)

// Instr is a single bytecode instruction.
type Instr struct {
	Op Opcode
	A  int32
	B  int32
}

// Function is a compiled script function.
type Function struct {
	Name string

	Code []Instr

	// number of local variable slots, including parameters. parameters
	// occupy the first NumParams slots
	NumLocals int
	NumParams int

	// does the function return a value
	Returns bool

	// union of the async flags of everything this function calls
	Flags Flags
}
