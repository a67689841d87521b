package executor

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"syscall"
)

type invalidRequestError struct {
	err error
}

func (e *invalidRequestError) Error() string { return "invalid request: " + e.err.Error() }
func (e *invalidRequestError) Unwrap() error { return e.err }

// classifyError names a transport failure. The name ends up as the status
// message of the synthetic response.
func classifyError(err error) string {
	if err == nil {
		return "UNKNOWN_ERROR"
	}

	var invalid *invalidRequestError
	if errors.As(err, &invalid) {
		return "INVALID_REQUEST"
	}

	if errors.Is(err, errTooManyRedirects) {
		return "MAX_REDIRECTS"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "TIMEOUT"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "DNS_FAILURE"
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return "CONNECTION_REFUSED"
	}
	if errors.Is(err, syscall.ECONNRESET) {
		return "CONNECTION_RESET"
	}

	var (
		recordErr    tls.RecordHeaderError
		verifyErr    *tls.CertificateVerificationError
		authorityErr x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidCert  x509.CertificateInvalidError
	)
	if errors.As(err, &recordErr) || errors.As(err, &verifyErr) || errors.As(err, &authorityErr) ||
		errors.As(err, &hostnameErr) || errors.As(err, &invalidCert) {
		return "TLS_ERROR"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "NETWORK_TIMEOUT"
		}
		return "NETWORK_ERROR"
	}

	return "UNKNOWN_ERROR"
}

// retryable reports whether a second transport attempt could help.
func retryable(err error) bool {
	var invalid *invalidRequestError
	if errors.As(err, &invalid) {
		return false
	}
	return !errors.Is(err, errTooManyRedirects)
}
