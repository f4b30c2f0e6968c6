//
// SPDX-License-Identifier: GPL-3.0-or-later
//

package service

import "fmt"

// ErrCallInProgress is returned by [SerialClientDispatcher.Call] when a
// previous call has not yet resolved (design doc §4.8 invariant: at most
// one outstanding request).
var ErrCallInProgress = fmt.Errorf("service: a call is already in progress on this dispatcher")

// ErrDispatcherNotAttached is returned by a client dispatcher's Call when it
// has not been added to a pipeline yet.
var ErrDispatcherNotAttached = fmt.Errorf("service: dispatcher is not attached to a pipeline")

func errUnexpectedType[T any](msg any) error {
	var zero T
	return fmt.Errorf("service: expected %T, got %T", zero, msg)
}
