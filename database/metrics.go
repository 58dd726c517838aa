// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

type databaseMetrics struct {
	registry    prometheus.Registerer
	collectors  []prometheus.Collector
	txnStarted  prometheus.Counter
	txnFinished *prometheus.CounterVec
}

func newDatabaseMetrics(
	registry prometheus.Registerer,
	db *gorm.DB,
) (*databaseMetrics, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	promautoFactory := promauto.With(registry)
	m := &databaseMetrics{registry: registry}
	m.txnStarted = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "rangkai_database_transactions_started_total",
		Help: "number of metadata store transactions started",
	})
	m.txnFinished = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rangkai_database_transactions_finished_total",
			Help: "number of read-write transactions by outcome",
		},
		[]string{"outcome"},
	)
	openConns := promautoFactory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "rangkai_database_open_connections",
			Help: "number of established connections to the metadata store",
		},
		func() float64 {
			return float64(sqlDB.Stats().OpenConnections)
		},
	)
	inUse := promautoFactory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "rangkai_database_in_use_connections",
			Help: "number of metadata store connections currently in use",
		},
		func() float64 {
			return float64(sqlDB.Stats().InUse)
		},
	)
	m.collectors = []prometheus.Collector{
		m.txnStarted,
		m.txnFinished,
		openConns,
		inUse,
	}
	return m, nil
}

func (m *databaseMetrics) unregister() {
	for _, c := range m.collectors {
		m.registry.Unregister(c)
	}
}
