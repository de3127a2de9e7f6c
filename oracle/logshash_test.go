package oracle

/*
 * Licensed under LGPL-3.0.
 *
 * You can get a copy of the LGPL-3.0 License at
 *
 * https://www.gnu.org/licenses/lgpl-3.0.en.html
 *
 * @wcgcyx - https://github.com/wcgcyx
 */

import (
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	itypes "github.com/wcgcyx/ledgervm/types"
)

func getTestLogs() []*types.Log {
	return []*types.Log{
		{
			Address: testContract,
			Topics:  []common.Hash{common.HexToHash("0x01"), common.HexToHash("0x02")},
			Data:    []byte{0xaa, 0xbb},
		},
		{
			Address: testCallee,
			Topics:  []common.Hash{},
			Data:    []byte{0xcc},
		},
	}
}

func TestLogsHashEmpty(t *testing.T) {
	empty := common.HexToHash("0x1dcc4de8dec75d7aab85b567b6ccd41ad312451b948a7413f0a142fd40d49347")
	assert.Equal(t, empty, LogsHash(nil))
	assert.Equal(t, empty, LogsHash([]*types.Log{}))
}

func TestLogsHashStable(t *testing.T) {
	h := LogsHash(getTestLogs())
	assert.Equal(t, h, LogsHash(getTestLogs()))
	assert.Equal(t, h, LogsHash(getTestLogs()))
}

func TestLogsHashSensitive(t *testing.T) {
	h := LogsHash(getTestLogs())

	logs := getTestLogs()
	logs[0].Address[19] ^= 0x01
	assert.NotEqual(t, h, LogsHash(logs))

	logs = getTestLogs()
	logs[0].Topics[1][0] ^= 0x01
	assert.NotEqual(t, h, LogsHash(logs))

	logs = getTestLogs()
	logs[1].Data[0] ^= 0x01
	assert.NotEqual(t, h, LogsHash(logs))

	// Order matters.
	logs = getTestLogs()
	logs[0], logs[1] = logs[1], logs[0]
	assert.NotEqual(t, h, LogsHash(logs))
}

func TestHistory(t *testing.T) {
	h := NewHistory()
	h.Append(itypes.CallFrame{Depth: 0, To: testContract})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Append(itypes.CallFrame{Depth: 1, Type: 0xf1, To: testCallee})
		}()
	}
	wg.Wait()
	h.Append(itypes.CallFrame{Depth: 1, Type: 0xff, To: testCaller})

	assert.Equal(t, 12, len(h.Frames()))
	assert.Equal(t, testContract, h.Frames()[0].To)
	assert.Equal(t, 10, len(h.Calls()))
}
