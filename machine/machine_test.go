package machine

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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/wcgcyx/ledgervm/resolver"
	itypes "github.com/wcgcyx/ledgervm/types"
	"github.com/wcgcyx/ledgervm/worldstate"
)

const (
	testContractStr = "0x0f572e5295c57f15886f9b263e2f6d2d6c7b5ec6"
	testCalleeStr   = "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"
	testCallerStr   = "0xcd1722f3947def4cf144679da39c4c32bdc35681"
	testCoinbaseStr = "0x2adc25665018aa1fe0e6bc666dac8fc2697ff9ba"
)

var (
	testContract = common.HexToAddress(testContractStr)
	testCallee   = common.HexToAddress(testCalleeStr)
	testCaller   = common.HexToAddress(testCallerStr)
	testCoinbase = common.HexToAddress(testCoinbaseStr)
)

func getTestEnv(number uint64) itypes.Env {
	return itypes.Env{
		Coinbase:   testCoinbase,
		Difficulty: uint256.NewInt(0x0100),
		GasLimit:   uint256.NewInt(1000000),
		Number:     uint256.NewInt(number),
		Timestamp:  uint256.NewInt(1),
	}
}

func getTestExec(code []byte, value uint64) itypes.Exec {
	return itypes.Exec{
		Address:  testContract,
		Caller:   testCaller,
		Data:     []byte{},
		Gas:      uint256.NewInt(100000),
		GasPrice: uint256.NewInt(1),
		Origin:   testCaller,
		Value:    uint256.NewInt(value),
	}
}

// getTestBackend creates a backend holding the contract with given code and balance.
func getTestBackend(t *testing.T, code []byte, balance uint64) worldstate.AccountStore {
	s := worldstate.NewAccountStore(worldstate.Opts{})
	err := s.Deposit(testContract, uint256.NewInt(balance))
	assert.Nil(t, err)
	err = s.SetCode(testContract, code)
	assert.Nil(t, err)
	s.BeginTransaction()
	return s
}

func TestStorageWrite(t *testing.T) {
	// PUSH1 0x2a PUSH1 0x00 SSTORE STOP
	code := common.FromHex("0x602a60005500")
	backend := getTestBackend(t, code, 0)

	m, err := New(getTestEnv(0), getTestExec(nil, 0), Opts{})
	assert.Nil(t, err)
	defer m.Close()

	l := resolver.NewLoop(backend, nil)
	status, err := l.Run(m)
	assert.Nil(t, err)
	assert.Equal(t, resolver.Succeeded, status.Kind)
	assert.Empty(t, m.Out())
	assert.Equal(t, uint256.NewInt(100000-20006), m.AvailableGas())
	assert.Equal(t, 2, l.Stats().Accounts)
	assert.Equal(t, 1, l.Stats().Storages)

	changes := m.Accounts()
	assert.Equal(t, 1, len(changes))
	full, ok := changes[0].(resolver.FullChange)
	assert.True(t, ok)
	assert.Equal(t, testContract, full.Address)
	assert.Equal(t, map[common.Hash]common.Hash{
		common.HexToHash("0x0"): common.HexToHash("0x2a"),
	}, full.Storage)

	err = resolver.Apply(backend, changes, m.Logs())
	assert.Nil(t, err)
	assert.Equal(t, common.HexToHash("0x2a"), backend.StorageAt(testContract, common.Hash{}))
}

func TestInsufficientBalance(t *testing.T) {
	backend := worldstate.NewAccountStore(worldstate.Opts{})
	err := backend.Deposit(testCaller, uint256.NewInt(100))
	assert.Nil(t, err)

	m, err := New(getTestEnv(0), getTestExec(nil, 150), Opts{})
	assert.Nil(t, err)
	defer m.Close()

	status, err := resolver.NewLoop(backend, nil).Run(m)
	assert.Nil(t, err)
	assert.Equal(t, resolver.Failed, status.Kind)
	assert.True(t, errors.Is(status.Err, worldstate.ErrInsufficientFunds))
	assert.Empty(t, m.Accounts())
	assert.Equal(t, uint256.NewInt(100000), m.AvailableGas())
	assert.Equal(t, uint256.NewInt(100), backend.Balance(testCaller))
}

func TestValueTransfer(t *testing.T) {
	backend := getTestBackend(t, nil, 0)
	err := backend.Deposit(testCaller, uint256.NewInt(100))
	assert.Nil(t, err)

	m, err := New(getTestEnv(0), getTestExec(nil, 30), Opts{})
	assert.Nil(t, err)
	defer m.Close()

	status, err := resolver.NewLoop(backend, nil).Run(m)
	assert.Nil(t, err)
	assert.True(t, status.Success())

	changes := m.Accounts()
	assert.Equal(t, 2, len(changes))
	err = resolver.Apply(backend, changes, nil)
	assert.Nil(t, err)
	assert.Equal(t, uint256.NewInt(70), backend.Balance(testCaller))
	assert.Equal(t, uint256.NewInt(30), backend.Balance(testContract))

	// Only the balance of the contract went up.
	_, ok := changes[0].(resolver.IncreaseBalanceChange)
	assert.True(t, ok)
}

func TestRevert(t *testing.T) {
	// PUSH1 0x01 PUSH1 0x00 SSTORE PUSH1 0x00 PUSH1 0x00 REVERT
	code := common.FromHex("0x600160005560006000fd")
	backend := getTestBackend(t, code, 0)

	m, err := New(getTestEnv(0), getTestExec(nil, 0), Opts{ChainConfig: params.AllEthashProtocolChanges})
	assert.Nil(t, err)
	defer m.Close()

	status, err := resolver.NewLoop(backend, nil).Run(m)
	assert.Nil(t, err)
	assert.Equal(t, resolver.Reverted, status.Kind)
	assert.True(t, errors.Is(status.Err, vm.ErrExecutionReverted))
	assert.Empty(t, m.Accounts())
}

func TestNestedCall(t *testing.T) {
	// PUSH1 0 x5, PUSH20 callee, PUSH2 0xffff, CALL, POP, STOP
	code := common.FromHex("0x60006000600060006000" + "73" + testCalleeStr[2:] + "61fffff15000")
	backend := getTestBackend(t, code, 0)
	// PUSH1 0x01 PUSH1 0x00 SSTORE STOP
	err := backend.Deposit(testCallee, uint256.NewInt(0))
	assert.Nil(t, err)
	err = backend.SetCode(testCallee, common.FromHex("0x600160005500"))
	assert.Nil(t, err)

	frames := make([]itypes.CallFrame, 0)
	m, err := New(getTestEnv(0), getTestExec(nil, 0), Opts{
		OnEnter: func(frame itypes.CallFrame) {
			frames = append(frames, frame)
		},
	})
	assert.Nil(t, err)
	defer m.Close()

	status, err := resolver.NewLoop(backend, nil).Run(m)
	assert.Nil(t, err)
	assert.True(t, status.Success())

	assert.Equal(t, 2, len(frames))
	assert.Equal(t, 0, frames[0].Depth)
	assert.Equal(t, testContract, frames[0].To)
	assert.Equal(t, 1, frames[1].Depth)
	assert.Equal(t, byte(vm.CALL), frames[1].Type)
	assert.Equal(t, testContract, frames[1].From)
	assert.Equal(t, testCallee, frames[1].To)

	changes := m.Accounts()
	assert.Equal(t, 1, len(changes))
	assert.Equal(t, testCallee, changes[0].Addr())
}

func TestBlockHash(t *testing.T) {
	// PUSH1 0x01 BLOCKHASH PUSH1 0x00 SSTORE STOP
	code := common.FromHex("0x60014060005500")
	backend := getTestBackend(t, code, 0)

	m, err := New(getTestEnv(257), getTestExec(nil, 0), Opts{})
	assert.Nil(t, err)
	defer m.Close()

	l := resolver.NewLoop(backend, nil)
	status, err := l.Run(m)
	assert.Nil(t, err)
	assert.True(t, status.Success())
	assert.Equal(t, 1, l.Stats().BlockHashes)

	err = resolver.Apply(backend, m.Accounts(), nil)
	assert.Nil(t, err)
	assert.Equal(t, crypto.Keccak256Hash([]byte("1")), backend.StorageAt(testContract, common.Hash{}))
}

func TestUnknownBlockHashAborts(t *testing.T) {
	// PUSH1 0x03 BLOCKHASH STOP
	code := common.FromHex("0x60034000")
	backend := getTestBackend(t, code, 0)

	m, err := New(getTestEnv(257), getTestExec(nil, 0), Opts{})
	assert.Nil(t, err)

	_, err = resolver.NewLoop(backend, nil).Run(m)
	assert.True(t, errors.Is(err, resolver.ErrUnknownBlockNumber))

	err = m.Close()
	assert.Nil(t, err)
	assert.Equal(t, resolver.Fatal, m.Status().Kind)
	assert.True(t, errors.Is(m.Status().Err, ErrAborted))
}

func TestSelfDestruct(t *testing.T) {
	beneficiary := common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906")
	// PUSH20 beneficiary SELFDESTRUCT
	code := common.FromHex("0x73" + beneficiary.Hex()[2:] + "ff")
	backend := getTestBackend(t, code, 10)

	m, err := New(getTestEnv(0), getTestExec(nil, 0), Opts{})
	assert.Nil(t, err)
	defer m.Close()

	status, err := resolver.NewLoop(backend, nil).Run(m)
	assert.Nil(t, err)
	assert.True(t, status.Success())

	err = resolver.Apply(backend, m.Accounts(), nil)
	assert.Nil(t, err)
	err = backend.FinalizeTransaction()
	assert.Nil(t, err)
	assert.False(t, backend.Exists(testContract))
	assert.Equal(t, uint256.NewInt(10), backend.Balance(beneficiary))
}

func TestCodeOverride(t *testing.T) {
	backend := getTestBackend(t, nil, 0)

	exec := getTestExec(nil, 0)
	// PUSH1 0x2a PUSH1 0x00 SSTORE STOP
	exec.Code = common.FromHex("0x602a60005500")
	m, err := New(getTestEnv(0), exec, Opts{})
	assert.Nil(t, err)
	defer m.Close()

	status, err := resolver.NewLoop(backend, nil).Run(m)
	assert.Nil(t, err)
	assert.True(t, status.Success())

	err = resolver.Apply(backend, m.Accounts(), nil)
	assert.Nil(t, err)
	assert.Equal(t, common.HexToHash("0x2a"), backend.StorageAt(testContract, common.Hash{}))
}

func TestUnexpectedCommit(t *testing.T) {
	m, err := New(getTestEnv(0), getTestExec(nil, 0), Opts{})
	assert.Nil(t, err)
	defer m.Close()

	err = m.CommitAccount(resolver.NonexistCommitment{Address: testContract})
	assert.True(t, errors.Is(err, ErrUnexpectedCommit))

	req, done := m.Step()
	assert.False(t, done)
	assert.Equal(t, resolver.NeedAccount{Address: testContract}, req)

	err = m.CommitAccount(resolver.NonexistCommitment{Address: testCaller})
	assert.True(t, errors.Is(err, ErrUnexpectedCommit))
	err = m.CommitBlockhash(uint256.NewInt(1), common.Hash{})
	assert.True(t, errors.Is(err, ErrUnexpectedCommit))

	// Not answered, asked again.
	req, done = m.Step()
	assert.False(t, done)
	assert.Equal(t, resolver.NeedAccount{Address: testContract}, req)
}

func TestTouchedEmptyAccountCleared(t *testing.T) {
	identity := common.BytesToAddress([]byte{4})
	// PUSH1 0x00 x5, PUSH1 0x04, PUSH2 0xffff, CALL, POP, STOP
	code := common.FromHex("0x60006000600060006000600461fffff15000")

	// Byzantium, EIP-158 applies.
	backend := getTestBackend(t, code, 0)
	m, err := New(getTestEnv(5000000), getTestExec(nil, 0), Opts{})
	assert.Nil(t, err)
	defer m.Close()

	status, err := resolver.NewLoop(backend, nil).Run(m)
	assert.Nil(t, err)
	assert.True(t, status.Success())
	assert.Empty(t, m.Accounts())

	// Frontier keeps the empty account.
	backend = getTestBackend(t, code, 0)
	m, err = New(getTestEnv(0), getTestExec(nil, 0), Opts{})
	assert.Nil(t, err)
	defer m.Close()

	status, err = resolver.NewLoop(backend, nil).Run(m)
	assert.Nil(t, err)
	assert.True(t, status.Success())
	changes := m.Accounts()
	assert.Equal(t, 1, len(changes))
	created, ok := changes[0].(resolver.CreateChange)
	assert.True(t, ok)
	assert.Equal(t, identity, created.Address)
}

func TestEmptiedAccountCleared(t *testing.T) {
	backend := worldstate.NewAccountStore(worldstate.Opts{})
	err := backend.Deposit(testCaller, uint256.NewInt(30))
	assert.Nil(t, err)
	backend.BeginTransaction()

	m, err := New(getTestEnv(5000000), getTestExec(nil, 30), Opts{})
	assert.Nil(t, err)
	defer m.Close()

	status, err := resolver.NewLoop(backend, nil).Run(m)
	assert.Nil(t, err)
	assert.True(t, status.Success())

	changes := m.Accounts()
	assert.Equal(t, 2, len(changes))
	created, ok := changes[0].(resolver.CreateChange)
	assert.True(t, ok)
	assert.Equal(t, testContract, created.Address)
	assert.Equal(t, uint256.NewInt(30), created.Balance)
	assert.Equal(t, resolver.NonexistChange{Address: testCaller}, changes[1])
}

func TestCodeCommitment(t *testing.T) {
	code := common.FromHex("0x6000")
	m, err := New(getTestEnv(0), getTestExec(nil, 0), Opts{})
	assert.Nil(t, err)
	defer m.Close()

	req, done := m.Step()
	assert.False(t, done)
	assert.Equal(t, resolver.NeedAccount{Address: testContract}, req)
	err = m.CommitAccount(resolver.FullCommitment{
		Address: testContract,
		Nonce:   uint256.NewInt(0),
		Balance: uint256.NewInt(0),
		Code:    []byte{},
	})
	assert.Nil(t, err)

	// Code of an unresolved account.
	m.pending = resolver.NeedAccountCode{Address: testCallee}
	m.committed = false
	err = m.CommitAccount(resolver.CodeCommitment{Address: testCallee, Code: code})
	assert.True(t, errors.Is(err, ErrUnexpectedCommit))

	m.pending = resolver.NeedAccountCode{Address: testContract}
	err = m.CommitAccount(resolver.CodeCommitment{Address: testCallee, Code: code})
	assert.True(t, errors.Is(err, ErrUnexpectedCommit))
	err = m.CommitAccount(resolver.NonexistCommitment{Address: testContract})
	assert.True(t, errors.Is(err, ErrUnexpectedCommit))

	err = m.CommitAccount(resolver.CodeCommitment{Address: testContract, Code: code})
	assert.Nil(t, err)
	assert.Equal(t, code, m.view.base[testContract].code)
	assert.Equal(t, code, m.view.store.Code(testContract))
}

func TestNonceOutOfRange(t *testing.T) {
	backend := getTestBackend(t, nil, 0)
	err := backend.AdvanceNonce(testContract, new(uint256.Int).Lsh(uint256.NewInt(1), 64))
	assert.Nil(t, err)

	m, err := New(getTestEnv(0), getTestExec(nil, 0), Opts{})
	assert.Nil(t, err)
	defer m.Close()

	status, err := resolver.NewLoop(backend, nil).Run(m)
	assert.True(t, errors.Is(err, resolver.ErrInterpreterFatal))
	assert.Contains(t, err.Error(), ErrOutOfRange.Error())
	assert.Equal(t, resolver.Fatal, status.Kind)
}

func TestNewOutOfRange(t *testing.T) {
	exec := getTestExec(nil, 0)
	exec.Gas = new(uint256.Int).Lsh(uint256.NewInt(1), 64)
	_, err := New(getTestEnv(0), exec, Opts{})
	assert.True(t, errors.Is(err, ErrOutOfRange))

	env := getTestEnv(0)
	env.Number = new(uint256.Int).Lsh(uint256.NewInt(1), 64)
	_, err = New(env, getTestExec(nil, 0), Opts{})
	assert.True(t, errors.Is(err, ErrOutOfRange))
}
