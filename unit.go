// SPDX-License-Identifier: GPL-3.0-or-later

package pipeline

// Unit is a type containing no value (analogous to an explicit `void`
// type in C and C++).
//
// Use Unit as the inbound element type R or outbound element type W of a
// [Pipeline] to disable that direction: a pipeline with R = Unit never
// has Read called on it, and one with W = Unit never has Write called.
type Unit struct{}
