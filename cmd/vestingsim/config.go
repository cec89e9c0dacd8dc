package main

import (
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	sha256 "github.com/minio/sha256-simd"
	"golang.org/x/xerrors"

	abi "github.com/filecoin-project/vesting-actors/actors/abi"
	builtin "github.com/filecoin-project/vesting-actors/actors/builtin"
	"github.com/filecoin-project/vesting-actors/actors/runtime/exitcode"
)

// Scenario file layout.
type fileConfig struct {
	Ledger   ledgerConfig    `toml:"ledger"`
	Accounts []accountConfig `toml:"accounts"`
	Steps    []stepConfig    `toml:"steps"`
}

type ledgerConfig struct {
	ProgramID           string `toml:"program_id"`
	StartTime           uint64 `toml:"start_time"`
	LamportsPerByteYear uint64 `toml:"lamports_per_byte_year"`
	ExemptionThreshold  uint64 `toml:"exemption_threshold"`
}

// An account present before the first step. Kind "wallet" holds lamports; kind "token" is a
// token account of mint owned by owner.
type accountConfig struct {
	Name          string  `toml:"name"`
	Kind          string  `toml:"kind"`
	Lamports      uint64  `toml:"lamports"`
	Mint          string  `toml:"mint"`
	Owner         string  `toml:"owner"`
	Balance       uint64  `toml:"balance"`
	ExpectBalance *uint64 `toml:"expect_balance"`
}

type scheduleConfig struct {
	ReleaseTime uint64 `toml:"release_time"`
	Amount      uint64 `toml:"amount"`
}

type stepConfig struct {
	Op    string `toml:"op"`
	Seeds string `toml:"seeds"`

	Payer             string `toml:"payer"`
	NumberOfSchedules uint32 `toml:"number_of_schedules"`

	Escrow      string           `toml:"escrow"`
	SourceOwner string           `toml:"source_owner"`
	Source      string           `toml:"source"`
	Destination string           `toml:"destination"`
	Mint        string           `toml:"mint"`
	Schedules   []scheduleConfig `toml:"schedules"`

	DestinationOwner string `toml:"destination_owner"`
	NewDestination   string `toml:"new_destination"`

	Number  uint32 `toml:"number"`
	Seconds uint64 `toml:"seconds"`

	// Overrides the signers the instruction declares.
	Signers *[]string `toml:"signers"`
	Expect  string    `toml:"expect"`
}

const (
	opInit              = "init"
	opCreate            = "create"
	opUnlock            = "unlock"
	opChangeDestination = "change_destination"
	opEmpty             = "empty"
	opAdvanceClock      = "advance_clock"
)

// scenario is a loaded, validated scenario file.
type scenario struct {
	path      string
	programID abi.Address
	startTime abi.UnixTime
	rent      builtin.Rent
	accounts  []accountConfig
	steps     []step
}

type step struct {
	stepConfig
	expect exitcode.ExitCode
}

func loadScenario(path string) (*scenario, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, xerrors.Errorf("load scenario %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, xerrors.Errorf("scenario %s: unknown key %q", path, undecoded[0].String())
	}

	sc := &scenario{
		path:      path,
		programID: builtin.VestingProgramAddr,
		startTime: abi.UnixTime(raw.Ledger.StartTime),
		rent:      builtin.DefaultRent(),
		accounts:  raw.Accounts,
	}
	if meta.IsDefined("ledger", "program_id") {
		if sc.programID, err = abi.ParseAddress(raw.Ledger.ProgramID); err != nil {
			return nil, xerrors.Errorf("scenario %s: program_id: %w", path, err)
		}
	}
	if meta.IsDefined("ledger", "lamports_per_byte_year") {
		sc.rent.LamportsPerByteYear = raw.Ledger.LamportsPerByteYear
	}
	if meta.IsDefined("ledger", "exemption_threshold") {
		sc.rent.ExemptionThreshold = raw.Ledger.ExemptionThreshold
	}

	seen := make(map[string]bool, len(raw.Accounts))
	for i, a := range raw.Accounts {
		if a.Name == "" {
			return nil, xerrors.Errorf("scenario %s: account %d has no name", path, i)
		}
		if seen[a.Name] {
			return nil, xerrors.Errorf("scenario %s: account %q defined twice", path, a.Name)
		}
		seen[a.Name] = true
		switch a.Kind {
		case "wallet":
		case "token":
			if a.Mint == "" || a.Owner == "" {
				return nil, xerrors.Errorf("scenario %s: token account %q needs a mint and an owner", path, a.Name)
			}
		default:
			return nil, xerrors.Errorf("scenario %s: account %q has unknown kind %q", path, a.Name, a.Kind)
		}
	}

	for i, s := range raw.Steps {
		switch s.Op {
		case opInit, opCreate, opUnlock, opChangeDestination:
			if s.Seeds == "" {
				return nil, xerrors.Errorf("scenario %s: step %d (%s) needs seeds", path, i, s.Op)
			}
		case opEmpty, opAdvanceClock:
		default:
			return nil, xerrors.Errorf("scenario %s: step %d has unknown op %q", path, i, s.Op)
		}
		code, err := parseExitCode(s.Expect)
		if err != nil {
			return nil, xerrors.Errorf("scenario %s: step %d: %w", path, i, err)
		}
		sc.steps = append(sc.steps, step{stepConfig: s, expect: code})
	}
	return sc, nil
}

// parseExitCode accepts a code's number or its name, with spaces or underscores.
// An empty string means success.
func parseExitCode(s string) (exitcode.ExitCode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return exitcode.Ok, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return exitcode.ExitCode(n), nil
	}
	name := strings.ToLower(strings.ReplaceAll(s, "_", " "))
	for c := exitcode.Ok; c <= exitcode.ErrInvalidSeeds; c++ {
		if c.Error() == name {
			return c, nil
		}
	}
	return exitcode.Ok, xerrors.Errorf("unknown exit code %q", s)
}

// Names that are not base58 addresses stand for a stable address derived from the name.
func resolveAddress(name string) abi.Address {
	if a, err := abi.ParseAddress(name); err == nil {
		return a
	}
	return abi.Address(sha256.Sum256([]byte("vestingsim/address/" + name)))
}

func resolveSeeds(name string) abi.Seeds {
	return abi.Seeds(sha256.Sum256([]byte("vestingsim/seeds/" + name)))
}
