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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/rangkai-protocol/rangkai-gov/api"
	"github.com/rangkai-protocol/rangkai-gov/database/models"
	"github.com/rangkai-protocol/rangkai-gov/governance"
	"github.com/rangkai-protocol/rangkai-gov/internal/config"
	"github.com/rangkai-protocol/rangkai-gov/internal/node"
)

// withNode opens the configured store for a one-shot command
func withNode(cmd *cobra.Command, fn func(context.Context, *node.Node) error) error {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return errors.New("no config found in context")
	}
	logger := commonRun(os.Stderr)
	n, err := node.Open(cmd.Context(), cfg, logger, nil)
	if err != nil {
		return err
	}
	return errors.Join(fn(cmd.Context(), n), n.Close())
}

func signerResponses(signers []models.Signer) []api.SignerResponse {
	return lo.Map(signers, func(s models.Signer, _ int) api.SignerResponse {
		return api.NewSignerResponse(&s)
	})
}

// parseSignerFlags turns id:role[:publicKey] values into signer inputs
func parseSignerFlags(values []string) ([]governance.SignerInput, error) {
	ret := make([]governance.SignerInput, 0, len(values))
	for _, value := range values {
		parts := strings.SplitN(value, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf(
				"invalid signer %q: expected id:role[:publicKey]",
				value,
			)
		}
		input := governance.SignerInput{ID: parts[0], Role: parts[1]}
		if len(parts) == 3 {
			input.PublicKey = parts[2]
		}
		ret = append(ret, input)
	}
	return ret, nil
}

func initCouncilCommand() *cobra.Command {
	var signerFlags []string
	cmd := &cobra.Command{
		Use:   "init-council",
		Short: "Seat the genesis council of signers",
		Long: "Seat the genesis council. Members come from repeated --signer " +
			"flags, or from the council section of the config file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := parseSignerFlags(signerFlags)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				if cfg := config.FromContext(cmd.Context()); cfg != nil {
					inputs = cfg.Council
				}
			}
			if len(inputs) != governance.CouncilSize {
				return fmt.Errorf(
					"the genesis council needs exactly %d signers, got %d",
					governance.CouncilSize,
					len(inputs),
				)
			}
			return withNode(cmd, func(ctx context.Context, n *node.Node) error {
				signers, err := n.Governance().Registry.InitializeCouncil(ctx, inputs)
				if err != nil {
					return err
				}
				return writeSigners(cmd, signerResponses(signers))
			})
		},
	}
	cmd.Flags().StringArrayVar(
		&signerFlags,
		"signer",
		nil,
		"council member as id:role[:publicKey], repeat for each member",
	)
	return cmd
}

func expireCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Close every active proposal whose voting window has elapsed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *node.Node) error {
				expired, err := n.SweepExpired(ctx)
				if err != nil {
					return err
				}
				resp := api.ExpireResponse{Expired: api.NewProposalsResponse(expired)}
				return writeProposals(cmd, resp, resp.Expired)
			})
		},
	}
}

func paramsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "Show the current protocol parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *node.Node) error {
				params, err := n.Governance().Parameters.ListParameters(ctx)
				if err != nil {
					return err
				}
				return writeParameters(
					cmd,
					lo.Map(params, func(p models.ProtocolParameter, _ int) api.ParameterResponse {
						return api.NewParameterResponse(&p)
					}),
				)
			})
		},
	}
}

func proposalsCommand() *cobra.Command {
	var statuses []string
	cmd := &cobra.Command{
		Use:   "proposals",
		Short: "List governance proposals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *node.Node) error {
				proposals, err := n.Governance().Ledger.ListProposals(ctx, statuses...)
				if err != nil {
					return err
				}
				resp := api.NewProposalsResponse(proposals)
				return writeProposals(cmd, resp, resp)
			})
		},
	}
	cmd.Flags().StringSliceVar(
		&statuses,
		"status",
		nil,
		"only list proposals with these statuses",
	)
	return cmd
}

func signersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "signers",
		Short: "List the active signers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *node.Node) error {
				signers, err := n.Governance().Registry.GetActiveSigners(ctx)
				if err != nil {
					return err
				}
				return writeSigners(cmd, signerResponses(signers))
			})
		},
	}
}
