package routing

import (
	"github.com/hoangpro/omen/domain/attestation"
)

// Route decides the target schema for one signal per the routing
// table: a BLOCKED gate always routes to demo regardless of
// attestation; MOCK and HYBRID always route to demo; REAL without an
// api_response_hash routes to demo and returns a warning message (Route
// itself does not log it); REAL with a hash routes to live.
func Route(gateMode Mode, att attestation.Attestation) (Mode, string) {
	if gateMode == ModeDemo {
		return ModeDemo, ""
	}

	if att.RoutesAsMock() {
		return ModeDemo, ""
	}

	if att.SourceType == attestation.SourceReal && att.APIResponseHash == "" {
		return ModeDemo, "REAL attestation missing api_response_hash"
	}

	return ModeLive, ""
}
