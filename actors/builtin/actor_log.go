package builtin

import (
	"sync"

	rtt "github.com/filecoin-project/go-state-types/rt"

	abi "github.com/filecoin-project/vesting-actors/actors/abi"
)

type ProgramLog struct {
	sync.RWMutex
	Programs map[abi.Address]rtt.LogLevel
}

var programLogSingle *ProgramLog

func init() {
	programLogSingle = &ProgramLog{Programs: make(map[abi.Address]rtt.LogLevel)}
}

func SetProgramsLogLevel(logLevel rtt.LogLevel, programs ...abi.Address) {
	programLogSingle.Lock()
	defer programLogSingle.Unlock()

	for _, p := range programs {
		programLogSingle.Programs[p] = logLevel
	}
}

func GetProgramLogLevel(program abi.Address, defValue rtt.LogLevel) rtt.LogLevel {
	programLogSingle.RLock()
	defer programLogSingle.RUnlock()

	logLevel, ok := programLogSingle.Programs[program]
	if ok {
		return logLevel
	}

	return defValue
}

// ShouldLog reports whether a message at `level` from `program` passes the program's threshold.
func ShouldLog(program abi.Address, level rtt.LogLevel, defValue rtt.LogLevel) bool {
	return level >= GetProgramLogLevel(program, defValue)
}
