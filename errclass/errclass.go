//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/common/errclass/errclass.go
//

// Package errclass classifies network errors into short, platform-independent labels.
package errclass

import (
	"errors"
	"net"
	"syscall"
)

// New classifies err into a short label such as "ECONNRESET" or "ETIMEDOUT".
//
// It returns the empty string for a nil error and "EUNKNOWN" for an error
// it does not recognize.
func New(err error) string {
	if err == nil {
		return ""
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return New(opErr.Err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "ETIMEDOUT"
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case errEADDRNOTAVAIL:
			return "EADDRNOTAVAIL"
		case errEADDRINUSE:
			return "EADDRINUSE"
		case errECONNABORTED:
			return "ECONNABORTED"
		case errECONNREFUSED:
			return "ECONNREFUSED"
		case errECONNRESET:
			return "ECONNRESET"
		case errEHOSTUNREACH:
			return "EHOSTUNREACH"
		case errEINVAL:
			return "EINVAL"
		case errEINTR:
			return "EINTR"
		case errENETDOWN:
			return "ENETDOWN"
		case errENETUNREACH:
			return "ENETUNREACH"
		case errENOBUFS:
			return "ENOBUFS"
		case errENOTCONN:
			return "ENOTCONN"
		case errEPROTONOSUPPORT:
			return "EPROTONOSUPPORT"
		case errETIMEDOUT:
			return "ETIMEDOUT"
		}
	}

	if errors.Is(err, net.ErrClosed) {
		return "ECONNCLOSED"
	}

	return "EUNKNOWN"
}
