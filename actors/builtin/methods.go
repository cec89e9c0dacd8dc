package builtin

// InstructionTag is the first byte of an instruction, selecting the operation.
// Tags are wire-stable: they are never renumbered or reused.
type InstructionTag uint8

type vestingMethods struct {
	Init              InstructionTag
	Create            InstructionTag
	Unlock            InstructionTag
	ChangeDestination InstructionTag
	Empty             InstructionTag
}

var MethodsVesting = vestingMethods{0, 1, 2, 3, 4}
