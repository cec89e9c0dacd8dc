package builtin

import (
	abi "github.com/filecoin-project/vesting-actors/actors/abi"
)

// Well-known addresses of the host's builtin programs and sysvars.
var (
	SystemProgramAddr = abi.MustParseAddress("11111111111111111111111111111111")
	TokenProgramAddr  = abi.MustParseAddress("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	RentSysvarAddr    = abi.MustParseAddress("SysvarRent111111111111111111111111111111111")
	ClockSysvarAddr   = abi.MustParseAddress("SysvarC1ock11111111111111111111111111111111")
)

// VestingProgramAddr is the address the vesting program is deployed at.
var VestingProgramAddr = abi.MustParseAddress("SoLi39YzAM2zEXcecy77VGbxLB5yHryNckY9Jx7yBKM")
