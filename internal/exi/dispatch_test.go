package exi_test

import (
	"errors"
	"testing"

	"github.com/dantte-lp/v2gsim/internal/exi"
)

func TestSelectNamespace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		protocol exi.Protocol
		family   exi.EnergyFamily
		want     exi.Namespace
	}{
		{"unknown protocol always SAP", exi.ProtocolUnknown, exi.EnergyFamilyDC, exi.NamespaceSAP},
		{"ISO-2", exi.ProtocolISO151182, exi.EnergyFamilyNone, exi.NamespaceISOV2MsgDef},
		{"DIN 70121", exi.ProtocolDINSPEC70121, exi.EnergyFamilyNone, exi.NamespaceDINMsgBody},
		{"ISO-20 common", exi.ProtocolISO1511820, exi.EnergyFamilyNone, exi.NamespaceISOV20Common},
		{"ISO-20 AC", exi.ProtocolISO1511820, exi.EnergyFamilyAC, exi.NamespaceISOV20AC},
		{"ISO-20 DC", exi.ProtocolISO1511820, exi.EnergyFamilyDC, exi.NamespaceISOV20DC},
		{"ISO-20 WPT", exi.ProtocolISO1511820, exi.EnergyFamilyWPT, exi.NamespaceISOV20WPT},
		{"ISO-20 ACDP", exi.ProtocolISO1511820, exi.EnergyFamilyACDP, exi.NamespaceISOV20ACDP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exi.SelectNamespace(tt.protocol, tt.family); got != tt.want {
				t.Errorf("SelectNamespace(%v, %v) = %v, want %v", tt.protocol, tt.family, got, tt.want)
			}
		})
	}
}

func TestFamilyFromStateName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state string
		want  exi.EnergyFamily
	}{
		{"ACDPChargeParameterDiscovery", exi.EnergyFamilyACDP},
		{"ACChargeParameterDiscovery", exi.EnergyFamilyAC},
		{"DCChargeParameterDiscovery", exi.EnergyFamilyDC},
		{"WPTFinetuning", exi.EnergyFamilyWPT},
		{"SessionSetup", exi.EnergyFamilyNone},
	}

	for _, tt := range tests {
		if got := exi.FamilyFromStateName(tt.state); got != tt.want {
			t.Errorf("FamilyFromStateName(%q) = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestNoCodec(t *testing.T) {
	t.Parallel()

	c := exi.NoCodec()
	if _, err := c.Decode(exi.NamespaceSAP, []byte{1, 2, 3}); err == nil {
		t.Error("Decode() on the no-op codec should fail")
	}
	if _, err := c.Encode(exi.Message{}); err == nil {
		t.Error("Encode() on the no-op codec should fail")
	}

	var target error
	_, err := c.Decode(exi.NamespaceSAP, nil)
	if !errors.As(err, &target) {
		t.Error("Decode() error should satisfy errors.As")
	}
}
