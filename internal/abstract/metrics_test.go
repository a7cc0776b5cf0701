// Copyright 2021 Andrew Werner.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package abstract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetricSetLimit(t *testing.T) {
	var ms MetricSet
	for i := 0; i < MaxMetrics; i++ {
		var m Metric
		if i%2 == 0 {
			m = ms.Sum()
		} else {
			m = ms.Max()
		}
		require.Equal(t, i, m.ID())
	}
	require.Equal(t, MaxMetrics, ms.Len())
	require.Panics(t, func() { ms.Sum() })
	require.Panics(t, func() { ms.Max() })
}

func TestMetricSetFrozen(t *testing.T) {
	var ms MetricSet
	ms.Sum()
	MakeConfig[string](&ms, 4, strOps{})
	require.Panics(t, func() { ms.Max() })
}

func TestMetricKinds(t *testing.T) {
	var ms MetricSet
	sum, mx := ms.Sum(), ms.Max()
	require.Equal(t, Sum, ms.Kind(sum))
	require.Equal(t, Max, ms.Kind(mx))
	require.Equal(t, "sum", Sum.String())
	require.Equal(t, "max", Max.String())

	require.Equal(t, 7, ms.accumulate(sum, 3, 4))
	require.Equal(t, 4, ms.accumulate(mx, 3, 4))
	require.Equal(t, 4, ms.accumulate(mx, 4, 3))

	dst := Metrics{1, 5}
	ms.accumulateAll(dst, Metrics{2, 3})
	require.Equal(t, Metrics{3, 5}, dst)
	ms.accumulateAll(dst, Metrics{2, 9})
	require.Equal(t, Metrics{5, 9}, dst)
}

func TestMakeConfigValidation(t *testing.T) {
	var ms MetricSet
	require.Panics(t, func() { MakeConfig[string](&ms, 0, strOps{}) })
	require.Panics(t, func() { MakeConfig[string](&ms, 4, nil) })
}
