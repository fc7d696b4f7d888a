package ubi

import "encoding/binary"

var (
	recipientPrefix = []byte("ubi/recipient/")
	verifierPrefix  = []byte("ubi/verifier/")
	programPrefix   = []byte("ubi/program/")
	claimPrefix     = []byte("ubi/claim/")
	fundingPrefix   = []byte("ubi/funding/")
	emergencyPrefix = []byte("ubi/emergency/")
	globalsKeyBytes = []byte("ubi/globals")
)

func addrKey(prefix []byte, addr [20]byte) []byte {
	key := make([]byte, len(prefix)+len(addr))
	copy(key, prefix)
	copy(key[len(prefix):], addr[:])
	return key
}

func idKey(prefix []byte, id uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], id)
	return key
}

func recipientKey(addr [20]byte) []byte { return addrKey(recipientPrefix, addr) }

func verifierKey(addr [20]byte) []byte { return addrKey(verifierPrefix, addr) }

func fundingKey(addr [20]byte) []byte { return addrKey(fundingPrefix, addr) }

func programKey(id uint64) []byte { return idKey(programPrefix, id) }

func claimKey(id uint64) []byte { return idKey(claimPrefix, id) }

func emergencyKey(id uint64) []byte { return idKey(emergencyPrefix, id) }

func globalsKey() []byte { return append([]byte(nil), globalsKeyBytes...) }

// EmergencyStorageKey returns the raw storage key of an emergency record.
func EmergencyStorageKey(id uint64) []byte { return emergencyKey(id) }
