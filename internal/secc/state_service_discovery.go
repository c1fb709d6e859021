package secc

import (
	"time"

	"github.com/dantte-lp/v2gsim/internal/exi"
	"github.com/dantte-lp/v2gsim/internal/session"
)

// ServiceEntry is one entry this SECC advertises in its
// ServiceDiscoveryRes (ISO 15118-2 §8.3.4), narrowed to the fields the
// reference catalogue needs.
type ServiceEntry struct {
	ServiceID   int
	ServiceName string
	EnergyModes []string
}

// ServiceDiscoveryState implements ServiceDiscoveryReq (spec §8 scenario
// 3/4): the first state where a request arrives against an already
// established session id, making it the natural home for exercising the
// FAILED_SequenceError and FAILED_UnknownSession paths end to end.
//
// It terminates the reference catalogue rather than continuing into
// PaymentServiceSelection: everything past service discovery is out of
// scope (spec §1 Non-goals), but a state that always responds and never
// advances would never let the check/fail policy's session-id and
// sequencing rules be observed here -- so ProcessMessage accepts exactly
// one ServiceDiscoveryReq and then stops the session successfully.
type ServiceDiscoveryState struct {
	Services   []ServiceEntry
	TimeoutDur time.Duration
}

// NewServiceDiscoveryState builds the state with the SECC's advertised
// services and the standard 2-second timeout.
func NewServiceDiscoveryState(services []ServiceEntry) *ServiceDiscoveryState {
	return &ServiceDiscoveryState{Services: services, TimeoutDur: 2 * time.Second}
}

func (s *ServiceDiscoveryState) Name() string            { return "ServiceDiscovery" }
func (s *ServiceDiscoveryState) Family() exi.EnergyFamily { return exi.EnergyFamilyNone }
func (s *ServiceDiscoveryState) Timeout() time.Duration   { return s.TimeoutDur }

func (s *ServiceDiscoveryState) ProcessMessage(sess *session.Session, msg exi.Message) session.Outcome {
	outcome, ok := CheckMessage(sess, msg, VariantISOV2, []string{KindServiceDiscoveryReq}, true)
	if !ok {
		return outcome
	}
	env, _ := asEnvelope(msg)

	services := make([]map[string]any, 0, len(s.Services))
	for _, svc := range s.Services {
		services = append(services, map[string]any{
			"ServiceID":   svc.ServiceID,
			"ServiceName": svc.ServiceName,
			"EnergyModes": svc.EnergyModes,
		})
	}

	resp := Envelope{
		Variant:   VariantISOV2,
		Namespace: exi.NamespaceISOV2MsgDef,
		Kind:      KindServiceDiscoveryRes,
		SessionID: env.SessionID,
		Fields: map[string]any{
			"ResponseCode": string(ResponseCodeOK),
			"Services":     services,
		},
	}
	frame, err := encodeEnvelope(sess, resp)
	if err != nil {
		sess.Logger().Error("encode ServiceDiscoveryRes", "error", err.Error())
		return session.Outcome{Terminate: true, StopReason: "failed to encode ServiceDiscoveryRes"}
	}

	return session.Outcome{
		Frame:      frame,
		Terminate:  true,
		Successful: true,
		StopReason: "reference catalogue ends after ServiceDiscovery",
	}
}
