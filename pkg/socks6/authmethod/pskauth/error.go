package pskauth

import "errors"

var (
	errAuthDataTooShort    = errors.New("pskauth: authentication data shorter than a nonce")
	errReplayDetected      = errors.New("pskauth: nonce reuse detected, possible replay attack")
	errAuthenticationFailed = errors.New("pskauth: challenge verification failed")
)
