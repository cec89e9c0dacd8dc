package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	builtin "github.com/filecoin-project/vesting-actors/actors/builtin"
	"github.com/filecoin-project/vesting-actors/actors/runtime/exitcode"
)

func TestLoadScenario(t *testing.T) {
	sc, err := loadScenario("testdata/lifecycle.toml")
	require.NoError(t, err)

	assert.Equal(t, builtin.VestingProgramAddr, sc.programID)
	assert.EqualValues(t, 1000, sc.startTime)
	assert.Equal(t, builtin.DefaultRent(), sc.rent)
	assert.Len(t, sc.accounts, 5)
	require.Len(t, sc.steps, 11)
	assert.Equal(t, opInit, sc.steps[0].Op)
	assert.Len(t, sc.steps[1].Schedules, 2)
	assert.Equal(t, exitcode.ErrInvalidArgument, sc.steps[2].expect)
	assert.Equal(t, exitcode.ErrInvalidArgument, sc.steps[3].expect)
	assert.Equal(t, exitcode.ErrMissingRequiredSignature, sc.steps[6].expect)
	require.NotNil(t, sc.steps[6].Signers)
	assert.Empty(t, *sc.steps[6].Signers)
	assert.Nil(t, sc.steps[7].Signers)
}

func TestRunScenario(t *testing.T) {
	sc, err := loadScenario("testdata/lifecycle.toml")
	require.NoError(t, err)

	res, err := runScenario(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, 11, res.steps)

	// Replays are deterministic.
	again, err := runScenario(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, res.stateRoot, again.stateRoot)
}

func TestRunScenarioReportsMismatches(t *testing.T) {
	t.Run("exit code", func(t *testing.T) {
		sc := writeScenario(t, `
[[accounts]]
name = "payer"
kind = "wallet"
lamports = 1000000000

[[steps]]
op = "init"
seeds = "s"
payer = "payer"
number_of_schedules = 1
expect = "insufficient funds"
`)
		_, err := runScenario(context.Background(), sc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "step 0 (init)")
	})

	t.Run("balance", func(t *testing.T) {
		sc := writeScenario(t, `
[[accounts]]
name = "holder"
kind = "token"
mint = "mint"
owner = "owner"
balance = 5
expect_balance = 6
`)
		_, err := runScenario(context.Background(), sc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"holder" holds 5, expected 6`)
	})

	t.Run("custom rent", func(t *testing.T) {
		sc := writeScenario(t, `
[ledger]
lamports_per_byte_year = 1
exemption_threshold = 1

[[accounts]]
name = "payer"
kind = "wallet"
lamports = 209
expect_balance = 0

[[steps]]
op = "init"
seeds = "s"
payer = "payer"
number_of_schedules = 1
`)
		_, err := runScenario(context.Background(), sc)
		require.NoError(t, err)
	})
}

func TestLoadScenarioRejects(t *testing.T) {
	for name, body := range map[string]string{
		"unknown op":         "[[steps]]\nop = \"burn\"\n",
		"unknown key":        "[ledger]\nstart = 1\n",
		"unknown exit code":  "[[steps]]\nop = \"empty\"\nexpect = \"sad\"\n",
		"missing seeds":      "[[steps]]\nop = \"unlock\"\n",
		"unknown kind":       "[[accounts]]\nname = \"a\"\nkind = \"vault\"\n",
		"duplicate account":  "[[accounts]]\nname = \"a\"\nkind = \"wallet\"\n[[accounts]]\nname = \"a\"\nkind = \"wallet\"\n",
		"bad program id":     "[ledger]\nprogram_id = \"0OIl\"\n",
		"token without mint": "[[accounts]]\nname = \"a\"\nkind = \"token\"\nowner = \"b\"\n",
	} {
		path := filepath.Join(t.TempDir(), "scenario.toml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		_, err := loadScenario(path)
		assert.Error(t, err, name)
	}
}

func TestParseExitCode(t *testing.T) {
	for in, want := range map[string]exitcode.ExitCode{
		"":                           exitcode.Ok,
		"ok":                         exitcode.Ok,
		"2":                          exitcode.ErrInvalidArgument,
		"Invalid_Instruction_Data":   exitcode.ErrInvalidInstructionData,
		"not enough account keys":    exitcode.ErrMissingAccount,
		"missing required signature": exitcode.ErrMissingRequiredSignature,
	} {
		got, err := parseExitCode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestResolveAddress(t *testing.T) {
	assert.Equal(t, builtin.TokenProgramAddr, resolveAddress(builtin.TokenProgramAddr.String()))
	assert.Equal(t, resolveAddress("alice"), resolveAddress("alice"))
	assert.NotEqual(t, resolveAddress("alice"), resolveAddress("bob"))
}

func writeScenario(t *testing.T, body string) *scenario {
	path := filepath.Join(t.TempDir(), "scenario.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	sc, err := loadScenario(path)
	require.NoError(t, err)
	return sc
}
