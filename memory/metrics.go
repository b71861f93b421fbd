/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package memory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks arena usage. A nil *Metrics is valid and records nothing.
type Metrics struct {
	retainedBytes prometheus.Gauge
	inUseBytes    prometheus.Gauge
	allocations   prometheus.Counter
	slabs         prometheus.Counter
}

func NewMetrics(r prometheus.Registerer, namespace string) *Metrics {
	return &Metrics{
		retainedBytes: promauto.With(r).NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "arena_retained_bytes",
			Help:      "Bytes held by arena slabs, in use or free",
		}),
		inUseBytes: promauto.With(r).NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "arena_in_use_bytes",
			Help:      "Bytes of arena slabs handed out to callers",
		}),
		allocations: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arena_allocations_total",
			Help:      "Number of buffers handed out by the arena",
		}),
		slabs: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arena_slabs_total",
			Help:      "Number of slabs the arena carved from the heap",
		}),
	}
}

func (m *Metrics) observe(retained, inUse int) {
	if m == nil {
		return
	}
	m.retainedBytes.Set(float64(retained))
	m.inUseBytes.Set(float64(inUse))
}

func (m *Metrics) allocated(newSlab bool) {
	if m == nil {
		return
	}
	m.allocations.Inc()
	if newSlab {
		m.slabs.Inc()
	}
}
