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

package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// JSONMap stores a JSON object in a text column
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	buf, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

func (m *JSONMap) Scan(val any) error {
	var buf []byte
	switch v := val.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case string:
		buf = []byte(v)
	case []byte:
		buf = v
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string or []byte, got %T",
			val,
		)
	}
	tmpMap := map[string]any{}
	if len(buf) > 0 {
		if err := json.Unmarshal(buf, &tmpMap); err != nil {
			return fmt.Errorf("failed to decode JSON object: %w", err)
		}
	}
	*m = JSONMap(tmpMap)
	return nil
}

// Clone returns a shallow copy of the map
func (m JSONMap) Clone() JSONMap {
	ret := make(JSONMap, len(m))
	for k, v := range m {
		ret[k] = v
	}
	return ret
}

var ErrTxnWrongType = errors.New("invalid transaction type")

var ErrNilTxn = errors.New("nil transaction")

var ErrTxnFinished = errors.New("transaction already finished")

var ErrNoStoreAvailable = errors.New("no store available")

// Txn is the minimal contract for a store transaction handle
type Txn interface {
	Commit() error
	Rollback() error
}
