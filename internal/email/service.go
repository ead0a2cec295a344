package email

// Service is the outbound email transport. Sends are expected to be
// called off the request path; failures are logged, never propagated
// into the state change that preceded them.
type Service interface {
	SendConfirmation(to, token string) error
	SendPasswordReset(to, token string) error
}
