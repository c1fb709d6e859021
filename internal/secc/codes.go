package secc

// ResponseCode is the outcome code carried by every V2G response message.
// A non-OK code marks a negative response (spec GLOSSARY "Negative
// response").
type ResponseCode string

// Response codes this core emits directly. The full catalogue (per
// [V2G2-736]) belongs to the out-of-scope per-state handlers; these are
// the ones the check/fail policy itself is responsible for.
const (
	ResponseCodeOK                      ResponseCode = "OK"
	ResponseCodeOKSuccessfulNegotiation ResponseCode = "OK_SuccessfulNegotiation"
	ResponseCodeFailedNoNegotiation     ResponseCode = "Failed_NoNegotiation"
	ResponseCodeFailedSequenceError     ResponseCode = "FAILED_SequenceError"
	ResponseCodeFailedUnknownSession    ResponseCode = "FAILED_UnknownSession"
)
