// SPDX-License-Identifier: GPL-3.0-or-later

package pipeline

import (
	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"
)

// NewSpanID returns a UUIDv7 string suitable for correlating logged events
// belonging to the same operation, or for use as a wire-level correlation
// ID by a string-keyed multiplex dispatcher.
//
// This function panics if the system random number generator fails, which
// should only happen under extraordinary circumstances.
func NewSpanID() string {
	return runtimex.PanicOnError1(uuid.NewV7()).String()
}
