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
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/wcgcyx/ledgervm/machine"
	"github.com/wcgcyx/ledgervm/resolver"
	itypes "github.com/wcgcyx/ledgervm/types"
	"github.com/wcgcyx/ledgervm/worldstate"
	"go.uber.org/mock/gomock"
)

const (
	testContractStr = "0x0f572e5295c57f15886f9b263e2f6d2d6c7b5ec6"
	testCalleeStr   = "0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc"
	testCallerStr   = "0xcd1722f3947def4cf144679da39c4c32bdc35681"
)

var (
	testContract = common.HexToAddress(testContractStr)
	testCallee   = common.HexToAddress(testCalleeStr)
	testCaller   = common.HexToAddress(testCallerStr)
)

const testEnv = `"env": {
	"currentCoinbase": "0x2adc25665018aa1fe0e6bc666dac8fc2697ff9ba",
	"currentDifficulty": "0x0100",
	"currentGasLimit": "1000000",
	"currentNumber": "0",
	"currentTimestamp": "1"
}`

// getTestScenario builds a scenario of a message to the test contract.
func getTestScenario(t *testing.T, pre string, value string, expect string) *Scenario {
	data := fmt.Sprintf(`{
		%v,
		"pre": {%v},
		"exec": {
			"address": "%v",
			"caller": "%v",
			"code": "0x",
			"data": "0x",
			"gas": "100000",
			"gasPrice": "1",
			"origin": "%v",
			"value": "%v"
		}%v
	}`, testEnv, pre, testContractStr, testCallerStr, testCallerStr, value, expect)
	s, err := ParseScenario(t.Name(), []byte(data))
	assert.Nil(t, err)
	return s
}

func getTestOracle() *Oracle {
	return NewOracle(NewMachineFactory(machine.Opts{}), Opts{})
}

func TestInsufficientFundsScenario(t *testing.T) {
	pre := fmt.Sprintf(`"%v": {"balance": "100", "nonce": "0", "code": "0x", "storage": {}}`, testCallerStr)
	s := getTestScenario(t, pre, "150", "")

	res := getTestOracle().Run(s)
	assert.True(t, res.Passed)
	assert.Nil(t, res.Err)
	assert.Equal(t, resolver.Failed, res.Status.Kind)
	assert.True(t, errors.Is(res.Status.Err, worldstate.ErrInsufficientFunds))
	assert.Equal(t, uint256.NewInt(100), res.Store.Balance(testCaller))
	assert.Equal(t, "passed", res.Kind())
}

func TestInsufficientFundsWithPost(t *testing.T) {
	pre := fmt.Sprintf(`"%v": {"balance": "100", "nonce": "0", "code": "0x", "storage": {}}`, testCallerStr)
	expect := fmt.Sprintf(`,
		"out": "0x",
		"post": {"%v": {"balance": "0x64", "nonce": "0", "code": "0x", "storage": {}}}`, testCallerStr)
	s := getTestScenario(t, pre, "150", expect)

	res := getTestOracle().Run(s)
	assert.True(t, res.Passed)
	assert.Empty(t, res.Diffs)
	assert.Equal(t, uint256.NewInt(100), res.Store.Balance(testCaller))
}

func TestUnexpectedSuccess(t *testing.T) {
	pre := fmt.Sprintf(`"%v": {"balance": "100", "nonce": "0", "code": "0x", "storage": {}}`, testCallerStr)
	s := getTestScenario(t, pre, "50", "")

	res := getTestOracle().Run(s)
	assert.False(t, res.Passed)
	assert.Equal(t, []Mismatch{{Field: "status", Expected: "failure", Actual: res.Status.String()}}, res.Diffs)
	var mismatch *AssertionMismatch
	assert.True(t, errors.As(res.Err, &mismatch))
}

func TestLogsHash(t *testing.T) {
	// PUSH1 0x00 PUSH1 0x00 LOG0 STOP
	pre := fmt.Sprintf(`"%v": {"balance": "0", "nonce": "0", "code": "0x60006000a000", "storage": {}}`, testContractStr)
	expected := LogsHash([]*types.Log{{Address: testContract}})

	s := getTestScenario(t, pre, "0", fmt.Sprintf(`, "out": "0x", "logs": "%v"`, expected.Hex()))
	res := getTestOracle().Run(s)
	assert.True(t, res.Passed)
	assert.Equal(t, 1, len(res.Store.Logs()))

	// Everything else matches.
	s = getTestScenario(t, pre, "0", fmt.Sprintf(`, "out": "0x", "logs": "%v"`, common.Hash{}.Hex()))
	res = getTestOracle().Run(s)
	assert.False(t, res.Passed)
	var mismatch *AssertionMismatch
	assert.True(t, errors.As(res.Err, &mismatch))
	assert.Equal(t, 1, len(mismatch.Mismatches))
	assert.Equal(t, Mismatch{Field: "logs", Expected: common.Hash{}.Hex(), Actual: expected.Hex()}, mismatch.Mismatches[0])
	assert.Equal(t, "mismatch", res.Kind())
}

func TestNestedCallScenario(t *testing.T) {
	// PUSH1 0 x5, PUSH20 callee, PUSH2 0xffff, CALL, POP, STOP
	code := "0x60006000600060006000" + "73" + testCalleeStr[2:] + "61fffff15000"
	pre := fmt.Sprintf(`
		"%v": {"balance": "0", "nonce": "0", "code": "%v", "storage": {}},
		"%v": {"balance": "0", "nonce": "0", "code": "0x600160005500", "storage": {}}`,
		testContractStr, code, testCalleeStr)
	post := fmt.Sprintf(`
		"%v": {"balance": "0", "nonce": "0", "code": "%v", "storage": {}},
		"%v": {"balance": "0", "nonce": "0", "code": "0x600160005500", "storage": {"0x00": "0x01"}}`,
		testContractStr, code, testCalleeStr)
	callcreates := fmt.Sprintf(`[{"destination": "%v", "gasLimit": "0xffff", "value": "0", "data": "0x"}]`, testCalleeStr)

	s := getTestScenario(t, pre, "0", fmt.Sprintf(`, "out": "0x", "post": {%v}, "callcreates": %v`, post, callcreates))
	res := getTestOracle().Run(s)
	assert.True(t, res.Passed)
	assert.Equal(t, 1, len(res.Calls))
	assert.Equal(t, common.HexToHash("0x01"), res.Store.StorageAt(testCallee, common.Hash{}))

	// Wrong destination and a missing slot.
	wrongPost := fmt.Sprintf(`
		"%v": {"balance": "0", "nonce": "0", "code": "%v", "storage": {}},
		"%v": {"balance": "0", "nonce": "0", "code": "0x600160005500", "storage": {}}`,
		testContractStr, code, testCalleeStr)
	wrongCalls := fmt.Sprintf(`[{"destination": "%v", "gasLimit": "0xffff", "value": "0", "data": "0x"}]`, testCallerStr)
	s = getTestScenario(t, pre, "0", fmt.Sprintf(`, "out": "0x", "post": {%v}, "callcreates": %v`, wrongPost, wrongCalls))
	res = getTestOracle().Run(s)
	assert.False(t, res.Passed)
	fields := make([]string, 0)
	for _, diff := range res.Diffs {
		fields = append(fields, diff.Field)
	}
	assert.ElementsMatch(t, []string{
		"post." + testCallee.Hex() + ".storage." + common.Hash{}.Hex(),
		"callcreates[0].destination",
	}, fields)
}

func TestEmptyAccountClearing(t *testing.T) {
	// PUSH1 0x00 x5, PUSH1 0x04, PUSH2 0xffff, CALL, POP, STOP
	code := "0x60006000600060006000600461fffff15000"
	pre := fmt.Sprintf(`"%v": {"balance": "0", "nonce": "0", "code": "%v", "storage": {}}`, testContractStr, code)
	s := getTestScenario(t, pre, "0", fmt.Sprintf(`, "out": "0x", "post": {%v}`, pre))
	s.Env.Number = uint256.NewInt(5000000)

	res := getTestOracle().Run(s)
	assert.True(t, res.Passed)
	assert.Empty(t, res.Diffs)
	assert.False(t, res.Store.Exists(common.BytesToAddress([]byte{4})))
}

func TestOutOfRangeScenario(t *testing.T) {
	s := getTestScenario(t, "", "0", "")
	s.Exec.Gas = new(uint256.Int).Lsh(uint256.NewInt(1), 64)

	res := getTestOracle().Run(s)
	assert.False(t, res.Passed)
	assert.True(t, errors.Is(res.Err, ErrMalformedScenario))
	assert.Contains(t, res.Err.Error(), machine.ErrOutOfRange.Error())
	assert.Equal(t, "malformed", res.Kind())
}

func TestApplyErrorReverts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := resolver.NewMockInterpreter(ctrl)
	m.EXPECT().Step().Return(nil, true)
	m.EXPECT().Status().Return(resolver.RunStatus{Kind: resolver.Succeeded})
	m.EXPECT().Accounts().Return([]resolver.AccountChange{
		resolver.IncreaseBalanceChange{Address: testCallee, Amount: uint256.NewInt(5)},
		resolver.FullChange{
			Address: testCaller,
			Nonce:   uint256.NewInt(0),
			Balance: uint256.NewInt(100),
			Storage: map[common.Hash]common.Hash{},
		},
	})
	m.EXPECT().Logs().Return(nil)
	factory := func(env itypes.Env, exec itypes.Exec, onEnter func(itypes.CallFrame)) (resolver.Interpreter, error) {
		return m, nil
	}

	pre := fmt.Sprintf(`"%v": {"balance": "100", "nonce": "2", "code": "0x", "storage": {}}`, testCallerStr)
	s := getTestScenario(t, pre, "0", "")
	res := NewOracle(factory, Opts{}).Run(s)
	// Nonce cannot go down, the run fails cleanly.
	assert.True(t, res.Passed)
	assert.Equal(t, resolver.Failed, res.Status.Kind)
	assert.True(t, errors.Is(res.Status.Err, worldstate.ErrNonceDecrease))
	assert.False(t, res.Store.Exists(testCallee))
	assert.Equal(t, uint256.NewInt(2), res.Store.Nonce(testCaller))
}

func TestInterpreterFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := resolver.NewMockInterpreter(ctrl)
	m.EXPECT().Step().Return(nil, true)
	m.EXPECT().Status().Return(resolver.RunStatus{Kind: resolver.Fatal, Err: errors.New("boom")})
	factory := func(env itypes.Env, exec itypes.Exec, onEnter func(itypes.CallFrame)) (resolver.Interpreter, error) {
		return m, nil
	}

	s := getTestScenario(t, "", "0", "")
	res := NewOracle(factory, Opts{}).Run(s)
	assert.False(t, res.Passed)
	assert.True(t, errors.Is(res.Err, resolver.ErrInterpreterFatal))
	assert.Nil(t, res.Store)
	assert.Equal(t, "fatal", res.Kind())
}

func TestRunBatch(t *testing.T) {
	pre := fmt.Sprintf(`"%v": {"balance": "100", "nonce": "0", "code": "0x", "storage": {}}`, testCallerStr)
	scenarios := []*Scenario{
		getTestScenario(t, pre, "150", ""),
		{Name: "malformed", Err: fmt.Errorf("%w: bad", ErrMalformedScenario)},
		getTestScenario(t, pre, "50", ""),
		getTestScenario(t, pre, "200", ""),
	}
	reg := prometheus.NewRegistry()
	o := NewOracle(NewMachineFactory(machine.Opts{}), Opts{Metrics: NewMetrics(reg)})

	results := o.RunBatch(scenarios, 2)
	assert.Equal(t, 4, len(results))
	assert.True(t, results[0].Passed)
	assert.Equal(t, "malformed", results[1].Kind())
	assert.Equal(t, "mismatch", results[2].Kind())
	assert.True(t, results[3].Passed)
	assert.Equal(t, Summary{Passed: 2, Mismatch: 1, Malformed: 1}, Summarize(results))

	assert.Equal(t, float64(2), testutil.ToFloat64(o.opts.Metrics.scenarios.WithLabelValues("passed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(o.opts.Metrics.scenarios.WithLabelValues("malformed")))
}
