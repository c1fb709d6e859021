package exi

import "errors"

// errNoCodecConfigured is returned by the no-op Codec used as a safe
// zero-value placeholder until a real EXI codec collaborator is wired in.
var errNoCodecConfigured = errors.New("exi: no codec configured")

// NoCodec returns a Codec stub that always fails with errNoCodecConfigured.
// Useful as a wiring default that fails loudly rather than silently
// returning zero-value messages.
func NoCodec() Codec { return noCodec{} }
