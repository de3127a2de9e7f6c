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
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
	itypes "github.com/wcgcyx/ledgervm/types"
)

// Account is an account of a scenario pre-state or expected post-state.
type Account struct {
	Address common.Address
	Balance *uint256.Int
	Nonce   *uint256.Int
	Code    []byte
	Storage map[common.Hash]common.Hash
}

// CallCreate is an expected nested call.
type CallCreate struct {
	// Nil for contract creation
	Destination *common.Address
	GasLimit    *uint256.Int
	Value       *uint256.Int
	Data        []byte
}

// Expectation is the expected outcome of a scenario.
type Expectation struct {
	// Nil if no output is expected, in which case the run is expected to fail
	Out []byte

	// Optional fields, nil if not to be checked
	Gas         *uint256.Int
	Post        []Account
	LogsHash    *common.Hash
	CallCreates []CallCreate
}

// Scenario is a declarative test case of pre-state, transaction and expected outcome.
type Scenario struct {
	Name   string
	Env    itypes.Env
	Pre    []Account
	Exec   itypes.Exec
	Expect Expectation

	// Not nil if this scenario failed to parse
	Err error
}

type accountJSON struct {
	Balance string            `json:"balance"`
	Nonce   string            `json:"nonce"`
	Code    string            `json:"code"`
	Storage map[string]string `json:"storage"`
}

type callCreateJSON struct {
	Destination string `json:"destination"`
	GasLimit    string `json:"gasLimit"`
	Value       string `json:"value"`
	Data        string `json:"data"`
}

type scenarioJSON struct {
	Env struct {
		Coinbase   string `json:"currentCoinbase"`
		Difficulty string `json:"currentDifficulty"`
		GasLimit   string `json:"currentGasLimit"`
		Number     string `json:"currentNumber"`
		Timestamp  string `json:"currentTimestamp"`
	} `json:"env"`
	Pre  map[string]accountJSON `json:"pre"`
	Exec struct {
		Address  string `json:"address"`
		Caller   string `json:"caller"`
		Code     string `json:"code"`
		Data     string `json:"data"`
		Gas      string `json:"gas"`
		GasPrice string `json:"gasPrice"`
		Origin   string `json:"origin"`
		Value    string `json:"value"`
	} `json:"exec"`
	Out         *string                `json:"out"`
	Gas         *string                `json:"gas"`
	Post        map[string]accountJSON `json:"post"`
	Logs        *string                `json:"logs"`
	CallCreates []callCreateJSON       `json:"callcreates"`
}

// ParseScenarios parses a scenario file, which maps scenario names to scenarios.
// A scenario that fails to parse is returned with its Err set.
func ParseScenarios(data []byte) ([]*Scenario, error) {
	raw := make(map[string]json.RawMessage)
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedScenario, err.Error())
	}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	res := make([]*Scenario, 0, len(names))
	for _, name := range names {
		s, err := ParseScenario(name, raw[name])
		if err != nil {
			log.Warnf("Fail to parse scenario %v: %v", name, err.Error())
			s = &Scenario{Name: name, Err: err}
		}
		res = append(res, s)
	}
	return res, nil
}

// ParseScenario parses a single scenario.
func ParseScenario(name string, data []byte) (*Scenario, error) {
	var sj scenarioJSON
	err := json.Unmarshal(data, &sj)
	if err != nil {
		return nil, malformed("scenario", err)
	}
	p := &parser{}
	s := &Scenario{Name: name}
	s.Env = itypes.Env{
		Coinbase:   p.address("env.currentCoinbase", sj.Env.Coinbase),
		Difficulty: p.number("env.currentDifficulty", sj.Env.Difficulty),
		GasLimit:   p.number64("env.currentGasLimit", sj.Env.GasLimit),
		Number:     p.number64("env.currentNumber", sj.Env.Number),
		Timestamp:  p.number64("env.currentTimestamp", sj.Env.Timestamp),
	}
	s.Pre = p.accounts("pre", sj.Pre)
	s.Exec = itypes.Exec{
		Address:  p.address("exec.address", sj.Exec.Address),
		Caller:   p.address("exec.caller", sj.Exec.Caller),
		Code:     p.bytes("exec.code", sj.Exec.Code),
		Data:     p.bytes("exec.data", sj.Exec.Data),
		Gas:      p.number64("exec.gas", sj.Exec.Gas),
		GasPrice: p.number("exec.gasPrice", sj.Exec.GasPrice),
		Origin:   p.address("exec.origin", sj.Exec.Origin),
		Value:    p.number("exec.value", sj.Exec.Value),
	}
	if sj.Out != nil {
		s.Expect.Out = p.bytes("out", *sj.Out)
		if s.Expect.Out == nil {
			s.Expect.Out = []byte{}
		}
	}
	if sj.Gas != nil {
		s.Expect.Gas = p.number("gas", *sj.Gas)
	}
	if sj.Post != nil {
		s.Expect.Post = p.accounts("post", sj.Post)
	}
	if sj.Logs != nil {
		hash := p.hash("logs", *sj.Logs)
		s.Expect.LogsHash = &hash
	}
	if sj.CallCreates != nil {
		s.Expect.CallCreates = make([]CallCreate, 0, len(sj.CallCreates))
		for i, cj := range sj.CallCreates {
			field := fmt.Sprintf("callcreates[%v]", i)
			c := CallCreate{
				GasLimit: p.number(field+".gasLimit", cj.GasLimit),
				Value:    p.number(field+".value", cj.Value),
				Data:     p.bytes(field+".data", cj.Data),
			}
			if cj.Destination != "" {
				dest := p.address(field+".destination", cj.Destination)
				c.Destination = &dest
			}
			s.Expect.CallCreates = append(s.Expect.CallCreates, c)
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return s, nil
}

// parser keeps the first error met while parsing a scenario.
type parser struct {
	err error
}

func malformed(field string, err error) error {
	return fmt.Errorf("%w: %v: %v", ErrMalformedScenario, field, err.Error())
}

func (p *parser) fail(field string, err error) {
	if p.err == nil {
		p.err = malformed(field, err)
	}
}

// number parses 0x prefixed big-endian hex or unsigned decimal text, limited to 256 bits.
func (p *parser) number(field string, s string) *uint256.Int {
	s = strings.TrimSpace(s)
	if s == "" {
		return uint256.NewInt(0)
	}
	digits, hex := s, false
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		digits, hex = s[2:], true
	}
	if !isDigits(digits, hex) {
		p.fail(field, fmt.Errorf("invalid number %q", s))
		return uint256.NewInt(0)
	}
	v, ok := math.ParseBig256(s)
	if !ok || v.Sign() < 0 {
		p.fail(field, fmt.Errorf("invalid 256 bit number %q", s))
		return uint256.NewInt(0)
	}
	return uint256.MustFromBig(v)
}

// number64 parses a number that the interpreter keeps in 64 bits.
func (p *parser) number64(field string, s string) *uint256.Int {
	v := p.number(field, s)
	if !v.IsUint64() {
		p.fail(field, fmt.Errorf("%v exceeds 64 bits", v))
		return uint256.NewInt(0)
	}
	return v
}

func isDigits(s string, hex bool) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case hex && (c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'):
		default:
			return false
		}
	}
	return true
}

func (p *parser) address(field string, s string) common.Address {
	if !common.IsHexAddress(s) {
		p.fail(field, fmt.Errorf("invalid address %q", s))
		return common.Address{}
	}
	return common.HexToAddress(s)
}

func (p *parser) hash(field string, s string) common.Hash {
	b, err := hexutil.Decode(s)
	if err != nil {
		p.fail(field, err)
		return common.Hash{}
	}
	if len(b) != common.HashLength {
		p.fail(field, fmt.Errorf("invalid hash length %v", len(b)))
		return common.Hash{}
	}
	return common.BytesToHash(b)
}

func (p *parser) bytes(field string, s string) []byte {
	if s == "" {
		return []byte{}
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		p.fail(field, err)
		return nil
	}
	return b
}

// word parses a storage key or value.
func (p *parser) word(field string, s string) common.Hash {
	return common.Hash(p.number(field, s).Bytes32())
}

func (p *parser) accounts(field string, raw map[string]accountJSON) []Account {
	res := make([]Account, 0, len(raw))
	for addrStr, aj := range raw {
		f := field + "." + addrStr
		acct := Account{
			Address: p.address(f, addrStr),
			Balance: p.number(f+".balance", aj.Balance),
			Nonce:   p.number64(f+".nonce", aj.Nonce),
			Code:    p.bytes(f+".code", aj.Code),
			Storage: make(map[common.Hash]common.Hash),
		}
		for k, v := range aj.Storage {
			acct.Storage[p.word(f+".storage", k)] = p.word(f+".storage", v)
		}
		res = append(res, acct)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Address.Cmp(res[j].Address) < 0
	})
	return res
}
