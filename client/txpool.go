package client

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

// TxPoolStatus is the node's mempool occupancy. The canonical wire form of
// both counters is a hex quantity ("0x0"); plain JSON numbers are accepted
// as well, since not every node quotes them.
type TxPoolStatus struct {
	Pending uint64
	Queued  uint64
}

// IsEmpty reports whether the mempool has fully drained
func (s TxPoolStatus) IsEmpty() bool {
	return s.Pending == 0 && s.Queued == 0
}

type rawTxPoolStatus struct {
	Pending json.RawMessage `json:"pending"`
	Queued  json.RawMessage `json:"queued"`
}

// TxPoolStatus queries the non-standard txpool_status endpoint
func (c *Client) TxPoolStatus(ctx context.Context) (*TxPoolStatus, error) {
	var raw rawTxPoolStatus

	if err := c.rpc.CallContext(ctx, &raw, "txpool_status"); err != nil {
		return nil, errors.Wrap(err, "unable to query txpool status")
	}

	pending, err := parseQuantity(raw.Pending)
	if err != nil {
		return nil, errors.Wrap(err, "invalid pending count")
	}

	queued, err := parseQuantity(raw.Queued)
	if err != nil {
		return nil, errors.Wrap(err, "invalid queued count")
	}

	return &TxPoolStatus{
		Pending: pending,
		Queued:  queued,
	}, nil
}

// parseQuantity decodes a JSON value that is either a hex quantity string
// or a plain number
func parseQuantity(raw json.RawMessage) (uint64, error) {
	if len(raw) == 0 {
		return 0, nil
	}

	value := strings.TrimSpace(string(raw))

	if strings.HasPrefix(value, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, err
		}

		if str == "" {
			return 0, nil
		}

		if strings.HasPrefix(str, "0x") || strings.HasPrefix(str, "0X") {
			return hexutil.DecodeUint64(strings.ToLower(str))
		}

		return strconv.ParseUint(str, 10, 64)
	}

	return strconv.ParseUint(value, 10, 64)
}
