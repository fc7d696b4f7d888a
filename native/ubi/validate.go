package ubi

import (
	"fmt"
	"unicode/utf8"
)

// ValidateText rejects values longer than max characters.
func ValidateText(field, value string, max int) error {
	if n := utf8.RuneCountInString(value); n > max {
		return fmt.Errorf("%w: %s has %d characters, limit %d", ErrInputTooLong, field, n, max)
	}
	return nil
}

// ValidateRecipientInput checks the bounded fields of a recipient
// registration before it reaches the engine.
func ValidateRecipientInput(region string) error {
	return ValidateText("region", region, MaxRegionLength)
}

// ValidateVerifierInput checks the bounded fields of a verifier registration.
func ValidateVerifierInput(regionFocus string) error {
	return ValidateText("regionFocus", regionFocus, MaxRegionLength)
}

// ValidateProgramInput checks the bounded fields of a program creation.
func ValidateProgramInput(p ProgramParams) error {
	if err := ValidateText("name", p.Name, MaxNameLength); err != nil {
		return err
	}
	if err := ValidateText("targetRegion", p.TargetRegion, MaxRegionLength); err != nil {
		return err
	}
	return ValidateText("eligibilityCriteria", p.EligibilityCriteria, MaxCriteriaLength)
}

// ValidateContributionInput checks the bounded target list of a contribution.
func ValidateContributionInput(targets []uint64) error {
	if len(targets) > MaxPreferredPrograms {
		return fmt.Errorf("%w: %d target programs, limit %d", ErrInputTooLong, len(targets), MaxPreferredPrograms)
	}
	return nil
}
