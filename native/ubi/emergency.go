package ubi

// Emergency returns a stored emergency distribution. Declarations are only
// readable: triggering, approving and paying out emergencies are not
// modelled, and NextEmergencyID stays at its initial value.
// TODO: design trigger/approve/distribute transitions together with the
// governance vote counting they depend on.
func (e *Engine) Emergency(id uint64) (*EmergencyDistribution, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	record := new(EmergencyDistribution)
	ok, err := e.state.KVGet(emergencyKey(id), record)
	if err != nil || !ok {
		return nil, false, err
	}
	return record, true, nil
}
