package secc

import "github.com/dantte-lp/v2gsim/internal/exi"

// responseSkeleton is a precomputed, schema-minimal negative response for
// one request kind (spec §4.4 "Lookup strategy"): only the mandatory
// fields are populated, per [V2G2-736]/[V2G2-538]. response_code is
// injected at synthesis time.
type responseSkeleton struct {
	kind      string
	namespace exi.Namespace
	fields    map[string]any
}

// synthesize builds the outbound Envelope for this skeleton with code
// injected, per spec §4.4 "Inject response_code into the skeleton".
func (sk responseSkeleton) synthesize(variant Variant, code ResponseCode) Envelope {
	fields := make(map[string]any, len(sk.fields)+1)
	for k, v := range sk.fields {
		fields[k] = v
	}
	fields["ResponseCode"] = string(code)

	return Envelope{
		Variant:   variant,
		Namespace: sk.namespace,
		Kind:      sk.kind,
		Fields:    fields,
	}
}

// failedResponsesISOV2 maps an ISO 15118-2 request kind to its minimal
// negative-response skeleton (spec §4.4 failed_responses_isov2).
//
// DIN SPEC 70121 reuses the ISO-2 message set almost verbatim, so DIN
// requests are looked up here too (spec §9 Open Question iii: "exact
// mapping of DIN SPEC 70121 sequence errors into the check/fail policy"
// -- the original carries a TODO for DIN support; this keeps the same
// open TODO rather than inventing DIN-specific skeletons).
//
// TODO(open-question-iii): give DIN SPEC 70121 requests their own
// skeleton table once the DIN message catalogue is in scope; today they
// fall through to the ISO-2 table, which happens to share field shapes
// for the handful of messages this repository's reference catalogue uses.
var failedResponsesISOV2 = map[string]responseSkeleton{
	KindSessionSetupReq: {
		kind:      KindSessionSetupRes,
		namespace: exi.NamespaceISOV2MsgDef,
		fields: map[string]any{
			"SessionID":   "0000000000000000",
			"EVSEID":      "",
			"DateTimeNow": int64(0),
		},
	},
	KindServiceDiscoveryReq: {
		kind:      KindServiceDiscoveryRes,
		namespace: exi.NamespaceISOV2MsgDef,
		fields:    map[string]any{},
	},
}

// failedResponsesISOV20 maps an ISO 15118-20 request kind to its minimal
// negative-response skeleton and the namespace it must be framed under
// (spec §4.4 failed_responses_isov20). Empty today: the reference
// catalogue in this repository does not yet reach an ISO-20 state that
// needs one, so the table exists (eagerly, per Design Note "Failed-
// response tables") but has no entries -- a lookup miss here correctly
// falls through to the "faulty request is none of the known kinds"
// unreachable-arm log in StopStateMachine, the same as the original.
var failedResponsesISOV20 = map[string]responseSkeleton{}
