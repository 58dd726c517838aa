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
	"context"
	"errors"
	"strconv"

	"github.com/rangkai-protocol/rangkai-gov/database/models"
	"github.com/shopspring/decimal"
)

// ParameterDefaults are the genesis values of the protocol parameters
type ParameterDefaults struct {
	ProtocolFeePercentage decimal.Decimal
	ClientFeePercentage   decimal.Decimal
	EscrowDurationDays    int
	DisputeWindowDays     int
	ProtocolPaused        bool
}

// DefaultParameters returns the stock genesis values
func DefaultParameters() ParameterDefaults {
	return ParameterDefaults{
		ProtocolFeePercentage: decimal.NewFromInt(1),
		ClientFeePercentage:   decimal.NewFromInt(1),
		EscrowDurationDays:    14,
		DisputeWindowDays:     7,
		ProtocolPaused:        false,
	}
}

// Validate applies the same bounds the governed actions enforce
func (d ParameterDefaults) Validate() error {
	protocolFee := d.ProtocolFeePercentage
	clientFee := d.ClientFeePercentage
	escrowDays := d.EscrowDurationDays
	disputeDays := d.DisputeWindowDays
	return errors.Join(
		validatePercentage(models.ParamProtocolFeePercentage, &protocolFee, maxProtocolFee),
		validatePercentage(models.ParamClientFeePercentage, &clientFee, maxClientFee),
		validateDays(&escrowDays),
		validateDays(&disputeDays),
	)
}

func (d ParameterDefaults) rows() []models.ProtocolParameter {
	return []models.ProtocolParameter{
		{
			Name:      models.ParamProtocolFeePercentage,
			Value:     d.ProtocolFeePercentage.String(),
			ValueType: models.ParameterTypeDecimal,
		},
		{
			Name:      models.ParamClientFeePercentage,
			Value:     d.ClientFeePercentage.String(),
			ValueType: models.ParameterTypeDecimal,
		},
		{
			Name:      models.ParamEscrowDurationDays,
			Value:     strconv.Itoa(d.EscrowDurationDays),
			ValueType: models.ParameterTypeInteger,
		},
		{
			Name:      models.ParamDisputeWindowDays,
			Value:     strconv.Itoa(d.DisputeWindowDays),
			ValueType: models.ParameterTypeInteger,
		},
		{
			Name:      models.ParamProtocolPaused,
			Value:     strconv.FormatBool(d.ProtocolPaused),
			ValueType: models.ParameterTypeBoolean,
		},
	}
}

// Parameters is the read-only view of protocol parameters offered to other
// services. Writes only happen through executed proposals.
type Parameters struct {
	*core
}

// SeedDefaults inserts any parameter that does not exist yet. Existing
// values are left alone.
func (p *Parameters) SeedDefaults(ctx context.Context, defaults ParameterDefaults) error {
	if err := defaults.Validate(); err != nil {
		return err
	}
	rows := defaults.rows()
	now := p.now()
	for i := range rows {
		rows[i].UpdatedAt = now
	}
	return p.update(ctx, func(tx Tx) error {
		return tx.SeedParameters(rows)
	})
}

func (p *Parameters) GetAllParameters(ctx context.Context) (map[string]string, error) {
	params, err := p.ListParameters(ctx)
	if err != nil {
		return nil, err
	}
	ret := make(map[string]string, len(params))
	for _, param := range params {
		ret[param.Name] = param.Value
	}
	return ret, nil
}

func (p *Parameters) ListParameters(ctx context.Context) ([]models.ProtocolParameter, error) {
	var params []models.ProtocolParameter
	err := p.view(ctx, func(tx Tx) error {
		var err error
		params, err = tx.ListParameters()
		return err
	})
	if err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parameters) GetParameter(
	ctx context.Context,
	name string,
) (*models.ProtocolParameter, error) {
	var param *models.ProtocolParameter
	err := p.view(ctx, func(tx Tx) error {
		var err error
		param, err = tx.GetParameter(name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return param, nil
}

// IsProtocolPaused reports false when the flag has never been set
func (p *Parameters) IsProtocolPaused(ctx context.Context) (bool, error) {
	param, err := p.GetParameter(ctx, models.ParamProtocolPaused)
	if err != nil {
		if errors.Is(err, ErrParameterNotFound) {
			return false, nil
		}
		return false, err
	}
	paused, err := strconv.ParseBool(param.Value)
	if err != nil {
		return false, classify(err)
	}
	return paused, nil
}
