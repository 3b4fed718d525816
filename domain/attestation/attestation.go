// Package attestation implements the REAL/MOCK/HYBRID provenance record
// attached to every OmenSignal, and the HYBRID-collapse rule used when a
// signal is composed from multiple input attestations.
package attestation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SourceType is the provenance classification of a signal's inputs.
type SourceType string

const (
	SourceReal   SourceType = "REAL"
	SourceMock   SourceType = "MOCK"
	SourceHybrid SourceType = "HYBRID"
)

// VerificationMethod names how api_response_hash (or mock status) was
// established.
type VerificationMethod string

const (
	MethodAPIResponseHash       VerificationMethod = "API_RESPONSE_HASH"
	MethodCertificateChain      VerificationMethod = "CERTIFICATE_CHAIN"
	MethodSignatureVerification VerificationMethod = "SIGNATURE_VERIFICATION"
	MethodTimestampValidation   VerificationMethod = "TIMESTAMP_VALIDATION"
	MethodMockSourceRegistry    VerificationMethod = "MOCK_SOURCE_REGISTRY"
	MethodManualOverride        VerificationMethod = "MANUAL_OVERRIDE"
)

// Status is the attestation's verification lifecycle state.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusVerified Status = "VERIFIED"
	StatusFailed   Status = "FAILED"
	StatusExpired  Status = "EXPIRED"
)

// InputAttestation is a minimal reference to one of the sources that
// composed a HYBRID signal.
type InputAttestation struct {
	SourceID   string
	SourceType SourceType
	Confidence float64
}

// Attestation is the provenance record every emitted signal must carry
// exactly one of.
type Attestation struct {
	ID                 string
	SignalID           string
	SourceID           string
	SourceType         SourceType
	VerificationMethod VerificationMethod
	Status             Status
	APIResponseHash    string
	Confidence         float64
	AttestedAt         time.Time

	InputSourceIDs   []string
	InputSourceTypes []SourceType
}

// Verification is a re-verification record; it never mutates the
// original attestation.
type Verification struct {
	ID            string
	AttestationID string
	Status        Status
	VerifiedAt    time.Time
	Note          string
}

// NewReal constructs a REAL attestation. It is an error to omit
// apiResponseHash, and MOCK_SOURCE_REGISTRY is never a valid method for
// a REAL source — both are invariants of attestation.
func NewReal(signalID, sourceID, apiResponseHash string, confidence float64, method VerificationMethod, attestedAt time.Time) (Attestation, error) {
	if apiResponseHash == "" {
		return Attestation{}, fmt.Errorf("attestation: REAL source %q requires a non-empty api_response_hash", sourceID)
	}
	if method == MethodMockSourceRegistry {
		return Attestation{}, fmt.Errorf("attestation: REAL source %q cannot use MOCK_SOURCE_REGISTRY", sourceID)
	}
	return Attestation{
		ID:                 uuid.NewString(),
		SignalID:           signalID,
		SourceID:           sourceID,
		SourceType:         SourceReal,
		VerificationMethod: method,
		Status:             StatusVerified,
		APIResponseHash:    apiResponseHash,
		Confidence:         confidence,
		AttestedAt:         attestedAt.UTC(),
	}, nil
}

// NewMock constructs a MOCK attestation, verified via the mock source
// registry.
func NewMock(signalID, sourceID string, confidence float64, attestedAt time.Time) Attestation {
	return Attestation{
		ID:                 uuid.NewString(),
		SignalID:           signalID,
		SourceID:           sourceID,
		SourceType:         SourceMock,
		VerificationMethod: MethodMockSourceRegistry,
		Status:             StatusVerified,
		Confidence:         confidence,
		AttestedAt:         attestedAt.UTC(),
	}
}

// NewHybrid composes a HYBRID attestation from its input attestations.
// All-same source type collapses to that type; a mixed set collapses to
// HYBRID; confidence is the minimum across inputs.
func NewHybrid(signalID string, inputs []InputAttestation, attestedAt time.Time) (Attestation, error) {
	if len(inputs) == 0 {
		return Attestation{}, fmt.Errorf("attestation: hybrid requires at least one input")
	}

	collapsed := inputs[0].SourceType
	minConfidence := inputs[0].Confidence
	sourceIDs := make([]string, 0, len(inputs))
	sourceTypes := make([]SourceType, 0, len(inputs))
	for _, in := range inputs {
		if in.SourceType != collapsed {
			collapsed = SourceHybrid
		}
		if in.Confidence < minConfidence {
			minConfidence = in.Confidence
		}
		sourceIDs = append(sourceIDs, in.SourceID)
		sourceTypes = append(sourceTypes, in.SourceType)
	}

	return Attestation{
		ID:                 uuid.NewString(),
		SignalID:           signalID,
		SourceID:           "hybrid",
		SourceType:         collapsed,
		VerificationMethod: MethodSignatureVerification,
		Status:             StatusVerified,
		Confidence:         minConfidence,
		AttestedAt:         attestedAt.UTC(),
		InputSourceIDs:     sourceIDs,
		InputSourceTypes:   sourceTypes,
	}, nil
}

// Reverify produces a new Verification record without mutating a.
func Reverify(a Attestation, status Status, note string, at time.Time) Verification {
	return Verification{
		ID:            uuid.NewString(),
		AttestationID: a.ID,
		Status:        status,
		VerifiedAt:    at.UTC(),
		Note:          note,
	}
}

// RoutesAsMock reports whether this attestation must be treated as MOCK
// by all routing decisions — true for MOCK and for HYBRID.
func (a Attestation) RoutesAsMock() bool {
	return a.SourceType == SourceMock || a.SourceType == SourceHybrid
}
