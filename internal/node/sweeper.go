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

package node

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rangkai-protocol/rangkai-gov/database/models"
)

// SweepExpired closes every proposal whose voting window has elapsed and
// returns the closed proposals
func (n *Node) SweepExpired(ctx context.Context) ([]models.Proposal, error) {
	expired, err := n.gov.Ledger.ExpireOldProposals(ctx)
	if err != nil {
		return nil, err
	}
	for _, proposal := range expired {
		n.logger.Info(
			"proposal expired",
			"proposal_id", proposal.ID,
			"proposal_number", proposal.Number,
		)
	}
	return expired, nil
}

// StartExpirySweeper runs SweepExpired every interval until the node shuts down
func (n *Node) StartExpirySweeper(interval time.Duration) error {
	if interval <= 0 {
		return errors.New("expiry sweep interval must be positive")
	}
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := n.SweepExpired(ctx); err != nil &&
					!errors.Is(err, context.Canceled) {
					n.logger.Error("expiry sweep failed", "error", err)
				}
			}
		}
	}()
	n.onClose(func(context.Context) error {
		cancel()
		wg.Wait()
		return nil
	})
	n.logger.Debug("expiry sweeper started", "interval", interval.String())
	return nil
}
