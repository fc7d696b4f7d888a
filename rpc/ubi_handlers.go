package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"ubichain/crypto"
	"ubichain/indexer"
	"ubichain/native/ubi"
)

type registerRecipientParams struct {
	KYCHash         string `json:"kycHash"`
	Region          string `json:"region"`
	DependencyScore uint8  `json:"dependencyScore"`
}

type verifyRecipientParams struct {
	Recipient string `json:"recipient"`
	Level     uint8  `json:"level"`
}

type registerVerifierParams struct {
	RegionFocus string `json:"regionFocus"`
}

type createProgramParams struct {
	Name                 string `json:"name"`
	MonthlyAmount        string `json:"monthlyAmount"`
	TargetRegion         string `json:"targetRegion"`
	EligibilityCriteria  string `json:"eligibilityCriteria"`
	TotalBudget          string `json:"totalBudget"`
	DurationMonths       uint64 `json:"durationMonths"`
	VerificationRequired uint8  `json:"verificationRequired"`
}

type programIDParams struct {
	ProgramID uint64 `json:"programId"`
}

type contributeParams struct {
	Amount            string   `json:"amount"`
	PreferredPrograms []uint64 `json:"preferredPrograms"`
}

type addressParams struct {
	Address string `json:"address"`
}

type claimIDParams struct {
	ClaimID uint64 `json:"claimId"`
}

type emergencyIDParams struct {
	EmergencyID uint64 `json:"emergencyId"`
}

type eligibilityParams struct {
	Recipient string `json:"recipient"`
	ProgramID uint64 `json:"programId"`
}

type listClaimsParams struct {
	Recipient string  `json:"recipient,omitempty"`
	ProgramID *uint64 `json:"programId,omitempty"`
	Limit     int     `json:"limit,omitempty"`
	Offset    int     `json:"offset,omitempty"`
}

func (s *Server) routes() map[string]method {
	return map[string]method{
		"ubi_registerRecipient": {fn: s.handleRegisterRecipient, mutating: true},
		"ubi_verifyRecipient":   {fn: s.handleVerifyRecipient, mutating: true},
		"ubi_registerVerifier":  {fn: s.handleRegisterVerifier, mutating: true},
		"ubi_createProgram":     {fn: s.handleCreateProgram, mutating: true},
		"ubi_pauseProgram":      {fn: s.handlePauseProgram, mutating: true},
		"ubi_claim":             {fn: s.handleClaim, mutating: true},
		"ubi_contribute":        {fn: s.handleContribute, mutating: true},

		"ubi_getRecipient":     {fn: s.handleGetRecipient},
		"ubi_getProgram":       {fn: s.handleGetProgram},
		"ubi_getClaim":         {fn: s.handleGetClaim},
		"ubi_getVerifier":      {fn: s.handleGetVerifier},
		"ubi_getFundingSource": {fn: s.handleGetFundingSource},
		"ubi_getEmergency":     {fn: s.handleGetEmergency},
		"ubi_canClaim":         {fn: s.handleCanClaim},
		"ubi_claimableAmount":  {fn: s.handleClaimableAmount},
		"ubi_platformStats":    {fn: s.handlePlatformStats},
		"ubi_listClaims":       {fn: s.handleListClaims},
		"ubi_getBalance":       {fn: s.handleGetBalance},
		"chain_height":         {fn: s.handleChainHeight},
	}
}

func (s *Server) handleRegisterRecipient(_ context.Context, caller [20]byte, raw []json.RawMessage) (interface{}, *RPCError) {
	var params registerRecipientParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	kycHash, rpcErr := parseHash("kycHash", params.KYCHash)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := ubi.ValidateRecipientInput(params.Region); err != nil {
		return nil, invalidParams(err.Error())
	}
	recipient, err := s.node.RegisterRecipient(caller, kycHash, params.Region, params.DependencyScore)
	if err != nil {
		return nil, s.engineError("ubi_registerRecipient", err)
	}
	return newRecipientResult(recipient), nil
}

func (s *Server) handleVerifyRecipient(_ context.Context, caller [20]byte, raw []json.RawMessage) (interface{}, *RPCError) {
	var params verifyRecipientParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	target, rpcErr := parseAddress("recipient", params.Recipient)
	if rpcErr != nil {
		return nil, rpcErr
	}
	recipient, err := s.node.VerifyRecipient(caller, target, ubi.VerificationLevel(params.Level))
	if err != nil {
		return nil, s.engineError("ubi_verifyRecipient", err)
	}
	return newRecipientResult(recipient), nil
}

func (s *Server) handleRegisterVerifier(_ context.Context, caller [20]byte, raw []json.RawMessage) (interface{}, *RPCError) {
	var params registerVerifierParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	if err := ubi.ValidateVerifierInput(params.RegionFocus); err != nil {
		return nil, invalidParams(err.Error())
	}
	verifier, err := s.node.RegisterVerifier(caller, params.RegionFocus)
	if err != nil {
		return nil, s.engineError("ubi_registerVerifier", err)
	}
	return newVerifierResult(verifier), nil
}

func (s *Server) handleCreateProgram(_ context.Context, caller [20]byte, raw []json.RawMessage) (interface{}, *RPCError) {
	var params createProgramParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	monthly, rpcErr := parseAmount("monthlyAmount", params.MonthlyAmount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	budget, rpcErr := parseAmount("totalBudget", params.TotalBudget)
	if rpcErr != nil {
		return nil, rpcErr
	}
	programParams := ubi.ProgramParams{
		Name:                 params.Name,
		MonthlyAmount:        monthly,
		TargetRegion:         params.TargetRegion,
		EligibilityCriteria:  params.EligibilityCriteria,
		TotalBudget:          budget,
		DurationMonths:       params.DurationMonths,
		VerificationRequired: ubi.VerificationLevel(params.VerificationRequired),
	}
	if err := ubi.ValidateProgramInput(programParams); err != nil {
		return nil, invalidParams(err.Error())
	}
	id, err := s.node.CreateProgram(caller, programParams)
	if err != nil {
		return nil, s.engineError("ubi_createProgram", err)
	}
	return map[string]interface{}{"programId": id}, nil
}

func (s *Server) handlePauseProgram(_ context.Context, caller [20]byte, raw []json.RawMessage) (interface{}, *RPCError) {
	var params programIDParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	if err := s.node.PauseProgram(caller, params.ProgramID); err != nil {
		return nil, s.engineError("ubi_pauseProgram", err)
	}
	return map[string]interface{}{"programId": params.ProgramID, "active": false}, nil
}

func (s *Server) handleClaim(_ context.Context, caller [20]byte, raw []json.RawMessage) (interface{}, *RPCError) {
	var params programIDParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	claim, err := s.node.Claim(caller, params.ProgramID)
	if err != nil {
		return nil, s.engineError("ubi_claim", err)
	}
	return map[string]interface{}{
		"programId": claim.ProgramID,
		"claimId":   claim.ID,
		"amount":    bigString(claim.Amount),
		"period":    claim.Period,
	}, nil
}

func (s *Server) handleContribute(_ context.Context, caller [20]byte, raw []json.RawMessage) (interface{}, *RPCError) {
	var params contributeParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	amount, rpcErr := parseAmount("amount", params.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := ubi.ValidateContributionInput(params.PreferredPrograms); err != nil {
		return nil, invalidParams(err.Error())
	}
	source, err := s.node.Contribute(caller, amount, params.PreferredPrograms)
	if err != nil {
		return nil, s.engineError("ubi_contribute", err)
	}
	return newFundingSourceResult(source), nil
}

func (s *Server) handleGetRecipient(_ context.Context, _ [20]byte, raw []json.RawMessage) (interface{}, *RPCError) {
	addr, rpcErr := decodeAddress(raw)
	if rpcErr != nil {
		return nil, rpcErr
	}
	recipient, ok, err := s.node.Recipient(addr)
	if err != nil {
		return nil, s.engineError("ubi_getRecipient", err)
	}
	if !ok {
		return nil, nil
	}
	return newRecipientResult(recipient), nil
}

func (s *Server) handleGetProgram(_ context.Context, _ [20]byte, raw []json.RawMessage) (interface{}, *RPCError) {
	var params programIDParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	program, ok, err := s.node.Program(params.ProgramID)
	if err != nil {
		return nil, s.engineError("ubi_getProgram", err)
	}
	if !ok {
		return nil, nil
	}
	return newProgramResult(program), nil
}

func (s *Server) handleGetClaim(_ context.Context, _ [20]byte, raw []json.RawMessage) (interface{}, *RPCError) {
	var params claimIDParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	claim, ok, err := s.node.ClaimByID(params.ClaimID)
	if err != nil {
		return nil, s.engineError("ubi_getClaim", err)
	}
	if !ok {
		return nil, nil
	}
	return newClaimResult(claim), nil
}

func (s *Server) handleGetVerifier(_ context.Context, _ [20]byte, raw []json.RawMessage) (interface{}, *RPCError) {
	addr, rpcErr := decodeAddress(raw)
	if rpcErr != nil {
		return nil, rpcErr
	}
	verifier, ok, err := s.node.Verifier(addr)
	if err != nil {
		return nil, s.engineError("ubi_getVerifier", err)
	}
	if !ok {
		return nil, nil
	}
	return newVerifierResult(verifier), nil
}

func (s *Server) handleGetFundingSource(_ context.Context, _ [20]byte, raw []json.RawMessage) (interface{}, *RPCError) {
	addr, rpcErr := decodeAddress(raw)
	if rpcErr != nil {
		return nil, rpcErr
	}
	source, ok, err := s.node.FundingSource(addr)
	if err != nil {
		return nil, s.engineError("ubi_getFundingSource", err)
	}
	if !ok {
		return nil, nil
	}
	return newFundingSourceResult(source), nil
}

func (s *Server) handleGetEmergency(_ context.Context, _ [20]byte, raw []json.RawMessage) (interface{}, *RPCError) {
	var params emergencyIDParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	emergency, ok, err := s.node.Emergency(params.EmergencyID)
	if err != nil {
		return nil, s.engineError("ubi_getEmergency", err)
	}
	if !ok {
		return nil, nil
	}
	return newEmergencyResult(emergency), nil
}

func (s *Server) handleCanClaim(_ context.Context, _ [20]byte, raw []json.RawMessage) (interface{}, *RPCError) {
	recipient, programID, rpcErr := decodeEligibility(raw)
	if rpcErr != nil {
		return nil, rpcErr
	}
	eligible, err := s.node.CanClaim(recipient, programID)
	if err != nil {
		return nil, s.engineError("ubi_canClaim", err)
	}
	return map[string]interface{}{"eligible": eligible}, nil
}

func (s *Server) handleClaimableAmount(_ context.Context, _ [20]byte, raw []json.RawMessage) (interface{}, *RPCError) {
	recipient, programID, rpcErr := decodeEligibility(raw)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, err := s.node.ClaimableAmount(recipient, programID)
	if err != nil {
		return nil, s.engineError("ubi_claimableAmount", err)
	}
	return map[string]interface{}{"amount": bigString(amount)}, nil
}

func (s *Server) handlePlatformStats(_ context.Context, _ [20]byte, raw []json.RawMessage) (interface{}, *RPCError) {
	if len(raw) > 0 {
		return nil, invalidParams("ubi_platformStats takes no params")
	}
	stats, err := s.node.PlatformStats()
	if err != nil {
		return nil, s.engineError("ubi_platformStats", err)
	}
	return newStatsResult(stats), nil
}

func (s *Server) handleListClaims(ctx context.Context, _ [20]byte, raw []json.RawMessage) (interface{}, *RPCError) {
	if s.claims == nil {
		return nil, &RPCError{Code: codeServerError, Message: "claim index not configured"}
	}
	var params listClaimsParams
	if len(raw) > 0 {
		if err := decodeParams(raw, &params); err != nil {
			return nil, err
		}
	}
	if params.Limit < 0 || params.Offset < 0 {
		return nil, invalidParams("limit and offset must not be negative")
	}
	q := indexer.Query{ProgramID: params.ProgramID, Limit: params.Limit, Offset: params.Offset}
	if strings.TrimSpace(params.Recipient) != "" {
		addr, rpcErr := parseAddress("recipient", params.Recipient)
		if rpcErr != nil {
			return nil, rpcErr
		}
		q.Recipient = &addr
	}
	records, err := s.claims.List(ctx, q)
	if err != nil {
		return nil, s.engineError("ubi_listClaims", err)
	}
	if records == nil {
		records = []indexer.ClaimRecord{}
	}
	return map[string]interface{}{"claims": records}, nil
}

func (s *Server) handleGetBalance(_ context.Context, _ [20]byte, raw []json.RawMessage) (interface{}, *RPCError) {
	addr, rpcErr := decodeAddress(raw)
	if rpcErr != nil {
		return nil, rpcErr
	}
	balance, err := s.node.Balance(addr)
	if err != nil {
		return nil, s.engineError("ubi_getBalance", err)
	}
	return map[string]interface{}{
		"address": crypto.FormatAddress(addr),
		"balance": bigString(balance),
	}, nil
}

func (s *Server) handleChainHeight(_ context.Context, _ [20]byte, _ []json.RawMessage) (interface{}, *RPCError) {
	return chainHeight(s.node), nil
}

func decodeParams(raw []json.RawMessage, dst interface{}) *RPCError {
	if len(raw) != 1 {
		return invalidParams("expected a single params object")
	}
	dec := json.NewDecoder(bytes.NewReader(raw[0]))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return invalidParams(fmt.Sprintf("invalid params: %v", err))
	}
	return nil
}

func decodeAddress(raw []json.RawMessage) ([20]byte, *RPCError) {
	var params addressParams
	if err := decodeParams(raw, &params); err != nil {
		return [20]byte{}, err
	}
	return parseAddress("address", params.Address)
}

func decodeEligibility(raw []json.RawMessage) ([20]byte, uint64, *RPCError) {
	var params eligibilityParams
	if err := decodeParams(raw, &params); err != nil {
		return [20]byte{}, 0, err
	}
	addr, rpcErr := parseAddress("recipient", params.Recipient)
	if rpcErr != nil {
		return [20]byte{}, 0, rpcErr
	}
	return addr, params.ProgramID, nil
}

func parseAddress(field, value string) ([20]byte, *RPCError) {
	addr, err := crypto.ParseAddress(value)
	if err != nil {
		return [20]byte{}, invalidParams(fmt.Sprintf("%s: %v", field, err))
	}
	return addr, nil
}

func parseAmount(field, value string) (*big.Int, *RPCError) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, invalidParams(field + " required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, invalidParams(fmt.Sprintf("%s: invalid decimal amount %q", field, value))
	}
	return amount, nil
}

func parseHash(field, value string) ([32]byte, *RPCError) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "0x") && !strings.HasPrefix(trimmed, "0X") {
		trimmed = "0x" + trimmed
	}
	decoded, err := hexutil.Decode(trimmed)
	if err != nil {
		return [32]byte{}, invalidParams(fmt.Sprintf("%s: %v", field, err))
	}
	if len(decoded) != 32 {
		return [32]byte{}, invalidParams(fmt.Sprintf("%s: expected 32 bytes, got %d", field, len(decoded)))
	}
	var out [32]byte
	copy(out[:], decoded)
	return out, nil
}
