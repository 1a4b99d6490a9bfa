// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package uasc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceHandleLegacy(t *testing.T) {
	seq := NewSequenceHandle(true)
	require.Equal(t, uint32(1), seq.Current())
	require.Equal(t, uint32(math.MaxUint32-1024), seq.MaxValue())
	require.Equal(t, uint32(1), seq.MinValue())
	require.True(t, seq.IsLegacy())

	seq.Increment(1)
	assert.Equal(t, uint32(2), seq.Current())

	seq.Increment(1022)
	assert.Equal(t, uint32(1024), seq.Current())

	seq.Increment(math.MaxUint32 - 2048)
	assert.Equal(t, uint32(math.MaxUint32-1024), seq.Current())

	seq.Increment(1)
	assert.Equal(t, uint32(1), seq.Current())

	seq.Increment(math.MaxUint32 - 1026)
	assert.Equal(t, uint32(math.MaxUint32-1025), seq.Current())

	seq.Increment(3)
	assert.Equal(t, uint32(2), seq.Current())
}

func TestSequenceHandleNonLegacy(t *testing.T) {
	seq := NewSequenceHandle(false)
	require.Equal(t, uint32(0), seq.Current())
	require.Equal(t, uint32(math.MaxUint32), seq.MaxValue())
	require.Equal(t, uint32(0), seq.MinValue())
	require.False(t, seq.IsLegacy())

	seq.Increment(1)
	assert.Equal(t, uint32(1), seq.Current())

	seq.Increment(math.MaxUint32 - 1)
	assert.Equal(t, uint32(math.MaxUint32), seq.Current())

	seq.Increment(1)
	assert.Equal(t, uint32(0), seq.Current())

	seq.Increment(math.MaxUint32 - 1)
	assert.Equal(t, uint32(math.MaxUint32-1), seq.Current())

	seq.Increment(3)
	assert.Equal(t, uint32(1), seq.Current())
}

// TestSequenceWrapScenario covers spec scenario 1: create at
// U32_MAX-1025, increment by 3, expect current = 2.
func TestSequenceWrapScenario(t *testing.T) {
	seq := NewSequenceHandleAt(true, math.MaxUint32-1025)
	seq.Increment(3)
	assert.Equal(t, uint32(2), seq.Current())
}
