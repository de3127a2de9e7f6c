package worldstate

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
	"github.com/ethereum/go-ethereum/common"
	itypes "github.com/wcgcyx/ledgervm/types"
)

// Dump returns the canonical view of all accounts and logs.
func (s *accountStoreImpl) Dump() itypes.StateDump {
	addrs := s.Addresses()
	dump := itypes.StateDump{
		Accounts: make([]itypes.AccountValue, 0, len(addrs)),
		Logs:     make([]itypes.LogValue, 0, len(s.logs)),
	}
	for _, addr := range addrs {
		dump.Accounts = append(dump.Accounts, s.accounts[addr].value())
	}
	for _, l := range s.logs {
		dump.Logs = append(dump.Logs, itypes.LogValue{
			Address: l.Address,
			Topics:  append([]common.Hash{}, l.Topics...),
			Data:    common.CopyBytes(l.Data),
		})
	}
	return dump
}

// Fingerprint returns a digest of all accounts and logs.
func (s *accountStoreImpl) Fingerprint() common.Hash {
	return s.Dump().Digest()
}
