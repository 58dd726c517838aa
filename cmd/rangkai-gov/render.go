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
	"encoding/json"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/rangkai-protocol/rangkai-gov/api"
)

const (
	outputJSON  = "json"
	outputTable = "table"
)

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeOutput prints v as JSON, or the given rows as a table
func writeOutput(cmd *cobra.Command, v any, header table.Row, rows []table.Row) error {
	switch globalFlags.output {
	case outputJSON:
		return printJSON(cmd, v)
	case outputTable:
		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleLight)
		t.AppendHeader(header)
		t.AppendRows(rows)
		t.Render()
		return nil
	default:
		return fmt.Errorf(
			"unknown output format %q (must be %q or %q)",
			globalFlags.output,
			outputJSON,
			outputTable,
		)
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func writeSigners(cmd *cobra.Command, signers []api.SignerResponse) error {
	return writeOutput(
		cmd,
		signers,
		table.Row{"ID", "Role", "Active", "Joined"},
		lo.Map(signers, func(s api.SignerResponse, _ int) table.Row {
			return table.Row{s.ID, s.Role, s.Active, formatTime(s.JoinedAt)}
		}),
	)
}

func writeProposals(cmd *cobra.Command, v any, proposals []api.ProposalResponse) error {
	return writeOutput(
		cmd,
		v,
		table.Row{"Number", "Action", "Status", "Approvals", "Voting Ends", "ID"},
		lo.Map(proposals, func(p api.ProposalResponse, _ int) table.Row {
			return table.Row{
				p.Number,
				p.ActionType,
				p.Status,
				fmt.Sprintf("%d/%d", p.CurrentApprovals, p.RequiredApprovals),
				formatTime(p.VotingEndsAt),
				p.ID,
			}
		}),
	)
}

func writeParameters(cmd *cobra.Command, params []api.ParameterResponse) error {
	return writeOutput(
		cmd,
		params,
		table.Row{"Name", "Value", "Type", "Updated By"},
		lo.Map(params, func(p api.ParameterResponse, _ int) table.Row {
			return table.Row{p.Name, p.Value, p.ValueType, p.UpdatedByProposalID}
		}),
	)
}
