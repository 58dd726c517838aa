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

package governance

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type governanceMetrics struct {
	proposalsCreated *prometheus.CounterVec
	votes            *prometheus.CounterVec
	approvals        prometheus.Counter
	executions       *prometheus.CounterVec
	expired          prometheus.Counter
	signerChanges    *prometheus.CounterVec
}

func newGovernanceMetrics(registry prometheus.Registerer) *governanceMetrics {
	if registry == nil {
		return nil
	}
	promautoFactory := promauto.With(registry)
	return &governanceMetrics{
		proposalsCreated: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rangkai_governance_proposals_created_total",
				Help: "proposals created by action type",
			},
			[]string{"action"},
		),
		votes: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rangkai_governance_votes_total",
				Help: "votes recorded by outcome",
			},
			[]string{"approved"},
		),
		approvals: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "rangkai_governance_proposals_approved_total",
			Help: "proposals that reached quorum",
		}),
		executions: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rangkai_governance_executions_total",
				Help: "execution attempts by action type and status",
			},
			[]string{"action", "status"},
		),
		expired: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "rangkai_governance_proposals_expired_total",
			Help: "proposals closed by an expiry sweep",
		}),
		signerChanges: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rangkai_governance_signer_changes_total",
				Help: "signer roster changes by kind",
			},
			[]string{"change"},
		),
	}
}

func (m *governanceMetrics) proposalCreated(action ActionType) {
	if m != nil {
		m.proposalsCreated.WithLabelValues(string(action)).Inc()
	}
}

func (m *governanceMetrics) voteRecorded(approved, reachedQuorum bool) {
	if m == nil {
		return
	}
	m.votes.WithLabelValues(strconv.FormatBool(approved)).Inc()
	if reachedQuorum {
		m.approvals.Inc()
	}
}

func (m *governanceMetrics) executionFinished(action, status string) {
	if m != nil {
		m.executions.WithLabelValues(action, status).Inc()
	}
}

func (m *governanceMetrics) proposalsExpired(count int) {
	if m != nil {
		m.expired.Add(float64(count))
	}
}

func (m *governanceMetrics) signerChanged(change string) {
	if m != nil {
		m.signerChanges.WithLabelValues(change).Inc()
	}
}
