// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import "math"

// PublishLimits bounds how many PublishRequests a client keeps
// outstanding against a server, derived from the publishing intervals of
// its active subscriptions and an estimate of the round trip time to the
// server.
//
// Min is the floor: enough requests outstanding that a server with
// subscriptions publishing as fast as every other keep-alive cycle is
// never left without a pending request. Max bounds how many are queued
// beyond that floor to absorb round-trip latency without the server
// seeing request starvation; it scales with how many publishing cycles
// fit inside one round trip.
type PublishLimits struct {
	Min uint32
	Max uint32
}

// NewPublishLimits computes PublishLimits from the number of active
// subscriptions, their fastest publishing interval, and an estimate of
// the client-server round trip time. This matches the original
// implementation's formula field-for-field: the round-trip-to-interval
// ratio is computed in floating point and only then rounded up, so a
// roundtrip of e.g. 1.2 intervals bumps Max by a full extra slot rather
// than truncating it away.
func NewPublishLimits(subscriptionCount int, fastestPublishingIntervalMs float64, roundTripMs float64) PublishLimits {
	min := uint32(subscriptionCount * 2)
	if min == 0 {
		return PublishLimits{Min: 0, Max: 0}
	}
	ratio := 1.0
	if fastestPublishingIntervalMs > 0 {
		ratio = roundTripMs / fastestPublishingIntervalMs
	}
	multiplier := uint32(math.Ceil(ratio))
	if multiplier < 1 {
		multiplier = 1
	}
	return PublishLimits{Min: min, Max: multiplier * min}
}
