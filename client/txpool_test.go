package client

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/pandoras-box/mockrpc"
)

func TestParseQuantity(t *testing.T) {
	t.Parallel()

	testTable := []struct {
		name     string
		raw      string
		expected uint64
		isError  bool
	}{
		{
			"hex zero",
			`"0x0"`,
			0,
			false,
		},
		{
			"hex value",
			`"0x1a"`,
			26,
			false,
		},
		{
			"uppercase hex prefix",
			`"0X10"`,
			16,
			false,
		},
		{
			"plain number",
			`42`,
			42,
			false,
		},
		{
			"quoted decimal",
			`"12"`,
			12,
			false,
		},
		{
			"empty string",
			`""`,
			0,
			false,
		},
		{
			"garbage",
			`"pending"`,
			0,
			true,
		},
	}

	for _, testCase := range testTable {
		testCase := testCase

		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			value, err := parseQuantity(json.RawMessage(testCase.raw))

			if testCase.isError {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, testCase.expected, value)
		})
	}
}

func TestClient_TxPoolStatus(t *testing.T) {
	t.Parallel()

	testTable := []struct {
		name    string
		result  map[string]any
		pending uint64
		queued  uint64
	}{
		{
			"canonical hex form",
			map[string]any{"pending": "0x1f", "queued": "0x0"},
			31,
			0,
		},
		{
			"numeric form",
			map[string]any{"pending": 5, "queued": 2},
			5,
			2,
		},
		{
			"drained",
			map[string]any{"pending": "0x0", "queued": "0x0"},
			0,
			0,
		},
	}

	for _, testCase := range testTable {
		testCase := testCase

		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			srv := mockrpc.NewServer()
			defer srv.Close()

			srv.Handle("txpool_status", func(_ []json.RawMessage) (any, *mockrpc.Error) {
				return testCase.result, nil
			})

			c := dialMock(t, srv)

			status, err := c.TxPoolStatus(context.Background())
			require.NoError(t, err)

			assert.Equal(t, testCase.pending, status.Pending)
			assert.Equal(t, testCase.queued, status.Queued)
			assert.Equal(
				t,
				testCase.pending == 0 && testCase.queued == 0,
				status.IsEmpty(),
			)
		})
	}
}
