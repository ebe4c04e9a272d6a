// Package queue defines the OTP dispatch events exchanged over the
// message broker and the background consumer that delivers them.
package queue

// OtpQueueName is the durable queue carrying OTP dispatch requests.
const OtpQueueName = "otp.dispatch"

// OtpRequestedEvent is published whenever an OTP must reach a phone. The
// code rides inside the broker only; it is never logged on either side.
type OtpRequestedEvent struct {
	Phone       string `json:"phone"`
	Code        string `json:"code"`
	RequestedAt string `json:"requested_at"`
}
