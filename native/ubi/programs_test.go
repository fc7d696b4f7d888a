package ubi

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func validParams() ProgramParams {
	return ProgramParams{
		Name:                 "Harvest support",
		MonthlyAmount:        big.NewInt(100),
		TargetRegion:         "valley",
		EligibilityCriteria:  "farm workers",
		TotalBudget:          big.NewInt(1000),
		DurationMonths:       6,
		VerificationRequired: LevelBasic,
	}
}

func TestCreateProgramMovesBudgetIntoCustody(t *testing.T) {
	f := newFixture(t)
	f.fund(creatorAddr, 1500)
	f.height = 250

	id, err := f.engine.CreateProgram(creatorAddr, validParams())
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	require.Equal(t, "500", f.balance(creatorAddr))
	require.Equal(t, "1000", f.balance(programCustody))

	p := f.program(id)
	require.Equal(t, "Harvest support", p.Name)
	require.Equal(t, "1000", p.TotalBudget.String())
	require.Equal(t, "0", p.DistributedAmount.String())
	require.Equal(t, uint64(250), p.StartHeight)
	require.Equal(t, uint64(250+6*MonthlyPeriod), p.EndHeight)
	require.True(t, p.Active)
	require.Equal(t, creatorAddr, p.CreatedBy)
	require.Equal(t, LevelBasic, p.VerificationRequired)

	second, err := f.engine.CreateProgram(creatorAddr, ProgramParams{
		Name:           "Top up",
		MonthlyAmount:  big.NewInt(10),
		TotalBudget:    big.NewInt(500),
		DurationMonths: 1,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(2), second)
	require.Equal(t, uint64(2), f.stats().TotalPrograms)
	require.Equal(t, "1500", f.balance(programCustody))
}

func TestCreateProgramRejectsInvalidParameters(t *testing.T) {
	f := newFixture(t)
	f.fund(creatorAddr, 10_000)

	mutations := map[string]func(*ProgramParams){
		"zero monthly":    func(p *ProgramParams) { p.MonthlyAmount = big.NewInt(0) },
		"nil monthly":     func(p *ProgramParams) { p.MonthlyAmount = nil },
		"zero budget":     func(p *ProgramParams) { p.TotalBudget = big.NewInt(0) },
		"negative budget": func(p *ProgramParams) { p.TotalBudget = big.NewInt(-5) },
		"zero duration":   func(p *ProgramParams) { p.DurationMonths = 0 },
		"unknown level":   func(p *ProgramParams) { p.VerificationRequired = VerificationLevel(9) },
	}
	for name, mutate := range mutations {
		params := validParams()
		mutate(&params)
		_, err := f.engine.CreateProgram(creatorAddr, params)
		require.ErrorIs(t, err, ErrInvalidAmount, name)
	}
	require.Equal(t, "10000", f.balance(creatorAddr))
	require.Equal(t, uint64(0), f.stats().TotalPrograms)
}

func TestCreateProgramWithoutFundsFails(t *testing.T) {
	f := newFixture(t)
	f.fund(creatorAddr, 999)

	_, err := f.engine.CreateProgram(creatorAddr, validParams())
	require.ErrorIs(t, err, ErrInsufficientFunds)

	_, ok, err := f.engine.Program(1)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, uint64(1), f.stats().NextProgramID)
	require.Equal(t, "999", f.balance(creatorAddr))
}

func TestCustodyCannotFundFromItself(t *testing.T) {
	f := newFixture(t)
	f.createProgram(100, 1000, 1, LevelBasic)
	require.Equal(t, "1000", f.balance(programCustody))

	_, err := f.engine.CreateProgram(programCustody, validParams())
	require.ErrorIs(t, err, ErrNotAuthorized)
	require.Equal(t, "1000", f.balance(programCustody))
	require.Equal(t, uint64(1), f.stats().TotalPrograms)
	require.Equal(t, f.program(1).Remaining().String(), f.balance(programCustody))

	f.fund(platformCustody, 2*MinVerifierStake)
	_, err = f.engine.RegisterVerifier(platformCustody, "global")
	require.ErrorIs(t, err, ErrNotAuthorized)
	_, ok, err := f.engine.Verifier(platformCustody)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = f.engine.Contribute(platformCustody, new(big.Int).SetUint64(MinFundContribution), nil)
	require.ErrorIs(t, err, ErrNotAuthorized)
	_, ok, err = f.engine.FundingSource(platformCustody)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, "2000000", f.balance(platformCustody))
}

func TestPauseProgramAuthorization(t *testing.T) {
	f := newFixture(t)
	f.createProgram(100, 1000, 1, LevelBasic)
	f.createProgram(100, 1000, 1, LevelBasic)

	require.ErrorIs(t, f.engine.PauseProgram(creatorAddr, 3), ErrInvalidPeriod)
	require.ErrorIs(t, f.engine.PauseProgram(strangerAddr, 1), ErrNotAuthorized)
	require.True(t, f.program(1).Active)

	require.NoError(t, f.engine.PauseProgram(creatorAddr, 1))
	require.False(t, f.program(1).Active)

	require.NoError(t, f.engine.PauseProgram(ownerAddr, 2))
	require.False(t, f.program(2).Active)

	// Pausing twice is accepted and leaves the program inactive.
	require.NoError(t, f.engine.PauseProgram(ownerAddr, 2))
	require.False(t, f.program(2).Active)
}

func TestContributeAccumulates(t *testing.T) {
	f := newFixture(t)
	f.fund(creatorAddr, 500_000)
	f.height = 12

	source, err := f.engine.Contribute(creatorAddr, big.NewInt(100_000), []uint64{1, 2})
	require.NoError(t, err)
	require.Equal(t, "100000", source.TotalContributed.String())
	require.Equal(t, uint64(1), source.Contributions)
	require.Equal(t, []uint64{1, 2}, source.PreferredPrograms)
	require.False(t, source.Recurring)
	require.Equal(t, uint64(12), source.LastContributionHeight)

	f.height = 30
	source, err = f.engine.Contribute(creatorAddr, big.NewInt(250_000), []uint64{7})
	require.NoError(t, err)
	require.Equal(t, "350000", source.TotalContributed.String())
	require.Equal(t, uint64(2), source.Contributions)
	require.Equal(t, []uint64{7}, source.PreferredPrograms)
	require.Equal(t, uint64(30), source.LastContributionHeight)

	stored, ok, err := f.engine.FundingSource(creatorAddr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "350000", stored.TotalContributed.String())
	require.Equal(t, []uint64{7}, stored.PreferredPrograms)

	require.Equal(t, "150000", f.balance(creatorAddr))
	require.Equal(t, "350000", f.balance(platformCustody))
}

func TestContributeRejectsSmallAmounts(t *testing.T) {
	f := newFixture(t)
	f.fund(creatorAddr, 500_000)

	_, err := f.engine.Contribute(creatorAddr, big.NewInt(0), nil)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.engine.Contribute(creatorAddr, big.NewInt(99_999), nil)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.engine.Contribute(creatorAddr, big.NewInt(100_000), []uint64{1, 2, 3, 4, 5, 6})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, ok, err := f.engine.FundingSource(creatorAddr)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, "500000", f.balance(creatorAddr))
}

func TestContributeWithoutFundsFails(t *testing.T) {
	f := newFixture(t)
	f.fund(creatorAddr, 50_000)

	_, err := f.engine.Contribute(creatorAddr, big.NewInt(100_000), nil)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	_, ok, err := f.engine.FundingSource(creatorAddr)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestValidateBoundaries(t *testing.T) {
	require.NoError(t, ValidateRecipientInput(strings.Repeat("r", MaxRegionLength)))
	require.True(t, errors.Is(ValidateRecipientInput(strings.Repeat("r", MaxRegionLength+1)), ErrInputTooLong))
	require.ErrorIs(t, ValidateVerifierInput(strings.Repeat("v", MaxRegionLength+1)), ErrInputTooLong)

	// Bounds count characters, not bytes.
	require.NoError(t, ValidateText("region", strings.Repeat("é", MaxRegionLength), MaxRegionLength))

	params := validParams()
	require.NoError(t, ValidateProgramInput(params))
	params.Name = strings.Repeat("n", MaxNameLength+1)
	require.ErrorIs(t, ValidateProgramInput(params), ErrInputTooLong)
	params = validParams()
	params.EligibilityCriteria = strings.Repeat("c", MaxCriteriaLength+1)
	require.ErrorIs(t, ValidateProgramInput(params), ErrInputTooLong)
	params = validParams()
	params.TargetRegion = strings.Repeat("t", MaxRegionLength+1)
	require.ErrorIs(t, ValidateProgramInput(params), ErrInputTooLong)

	require.NoError(t, ValidateContributionInput([]uint64{1, 2, 3, 4, 5}))
	require.ErrorIs(t, ValidateContributionInput([]uint64{1, 2, 3, 4, 5, 6}), ErrInputTooLong)
}
