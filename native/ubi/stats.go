package ubi

// PlatformStats returns a snapshot of the global counters.
func (e *Engine) PlatformStats() (*PlatformStats, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	g, err := e.loadGlobals()
	if err != nil {
		return nil, err
	}
	height := e.height()
	return &PlatformStats{
		TotalRecipients:  g.TotalRecipients,
		TotalPrograms:    g.NextProgramID - 1,
		TotalClaims:      g.NextClaimID - 1,
		TotalDistributed: cloneBigInt(g.TotalDistributed),
		NextProgramID:    g.NextProgramID,
		NextClaimID:      g.NextClaimID,
		NextEmergencyID:  g.NextEmergencyID,
		PlatformFeeBps:   g.PlatformFeeBps,
		CurrentPeriod:    MonthlyPeriodAt(height),
		CurrentHeight:    height,
	}, nil
}
