package types

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
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MarshalAddress implements the mus.Marshaller interface.
func MarshalAddress(v common.Address, bs []byte) (n int) {
	sl := v.Bytes()
	m := mus.MarshallerFn[byte](varint.MarshalByte)
	n = ord.MarshalSlice[byte](sl, m, bs)
	return
}

// UnmarshalAddress implements the mus.Unmarshaller interface.
func UnmarshalAddress(bs []byte) (v common.Address, n int, err error) {
	var sl []byte
	u := mus.UnmarshallerFn[byte](varint.UnmarshalByte)
	sl, n, err = ord.UnmarshalSlice[byte](u, bs)
	if err != nil {
		return
	}
	v.SetBytes(sl)
	return
}

// SizeAddress implements the mus.Sizer interface.
func SizeAddress(v common.Address) (size int) {
	sl := v.Bytes()
	s := mus.SizerFn[byte](varint.SizeByte)
	size = ord.SizeSlice[byte](sl, s)
	return
}

// MarshalHash implements the mus.Marshaller interface.
func MarshalHash(v common.Hash, bs []byte) (n int) {
	sl := v.Bytes()
	m := mus.MarshallerFn[byte](varint.MarshalByte)
	n = ord.MarshalSlice[byte](sl, m, bs)
	return
}

// UnmarshalHash implements the mus.Unmarshaller interface.
func UnmarshalHash(bs []byte) (v common.Hash, n int, err error) {
	var sl []byte
	u := mus.UnmarshallerFn[byte](varint.UnmarshalByte)
	sl, n, err = ord.UnmarshalSlice[byte](u, bs)
	if err != nil {
		return
	}
	v.SetBytes(sl)
	return
}

// SizeHash implements the mus.Sizer interface.
func SizeHash(v common.Hash) (size int) {
	sl := v.Bytes()
	s := mus.SizerFn[byte](varint.SizeByte)
	size = ord.SizeSlice[byte](sl, s)
	return
}

// MarshalUint256 implements the mus.Marshaller interface.
func MarshalUint256(v *uint256.Int, bs []byte) (n int) {
	sl := v.Bytes()
	m := mus.MarshallerFn[byte](varint.MarshalByte)
	n = ord.MarshalSlice[byte](sl, m, bs)
	return
}

// UnmarshalUint256 implements the mus.Unmarshaller interface.
func UnmarshalUint256(bs []byte) (v *uint256.Int, n int, err error) {
	var sl []byte
	u := mus.UnmarshallerFn[byte](varint.UnmarshalByte)
	sl, n, err = ord.UnmarshalSlice[byte](u, bs)
	if err != nil {
		return
	}
	v = uint256.NewInt(0).SetBytes(sl)
	return
}

// SizeUint256 implements the mus.Sizer interface.
func SizeUint256(v *uint256.Int) (size int) {
	sl := v.Bytes()
	s := mus.SizerFn[byte](varint.SizeByte)
	size = ord.SizeSlice[byte](sl, s)
	return
}

// MarshalBytes implements the mus.Marshaller interface.
func MarshalBytes(v []byte, bs []byte) (n int) {
	m := mus.MarshallerFn[byte](varint.MarshalByte)
	n = ord.MarshalSlice[byte](v, m, bs)
	return
}

// UnmarshalBytes implements the mus.Unmarshaller interface.
func UnmarshalBytes(bs []byte) (v []byte, n int, err error) {
	u := mus.UnmarshallerFn[byte](varint.UnmarshalByte)
	v, n, err = ord.UnmarshalSlice[byte](u, bs)
	return
}

// SizeBytes implements the mus.Sizer interface.
func SizeBytes(v []byte) (size int) {
	s := mus.SizerFn[byte](varint.SizeByte)
	size = ord.SizeSlice[byte](v, s)
	return
}

// MarshalStorageSlot implements the mus.Marshaller interface.
func MarshalStorageSlot(v StorageSlot, bs []byte) (n int) {
	n = MarshalHash(v.Key, bs)
	n += MarshalHash(v.Value, bs[n:])
	return
}

// UnmarshalStorageSlot implements the mus.Unmarshaller interface.
func UnmarshalStorageSlot(bs []byte) (v StorageSlot, n int, err error) {
	v.Key, n, err = UnmarshalHash(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Value, n1, err = UnmarshalHash(bs[n:])
	n += n1
	return
}

// SizeStorageSlot implements the mus.Sizer interface.
func SizeStorageSlot(v StorageSlot) (size int) {
	return SizeHash(v.Key) + SizeHash(v.Value)
}

// MarshalAccountValue implements the mus.Marshaller interface.
func MarshalAccountValue(v AccountValue, bs []byte) (n int) {
	n = MarshalAddress(v.Address, bs)
	n += MarshalUint256(v.Nonce, bs[n:])
	n += MarshalUint256(v.Balance, bs[n:])
	n += MarshalBytes(v.Code, bs[n:])
	n += ord.MarshalBool(v.Deleted, bs[n:])
	m := mus.MarshallerFn[StorageSlot](MarshalStorageSlot)
	n += ord.MarshalSlice[StorageSlot](v.Storage, m, bs[n:])
	return
}

// UnmarshalAccountValue implements the mus.Unmarshaller interface.
func UnmarshalAccountValue(bs []byte) (v AccountValue, n int, err error) {
	v = AccountValue{}
	v.Address, n, err = UnmarshalAddress(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Nonce, n1, err = UnmarshalUint256(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Balance, n1, err = UnmarshalUint256(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Code, n1, err = UnmarshalBytes(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Deleted, n1, err = ord.UnmarshalBool(bs[n:])
	n += n1
	if err != nil {
		return
	}
	u := mus.UnmarshallerFn[StorageSlot](UnmarshalStorageSlot)
	v.Storage, n1, err = ord.UnmarshalSlice[StorageSlot](u, bs[n:])
	n += n1
	return
}

// SizeAccountValue implements the mus.Sizer interface.
func SizeAccountValue(v AccountValue) (size int) {
	size = SizeAddress(v.Address)
	size += SizeUint256(v.Nonce)
	size += SizeUint256(v.Balance)
	size += SizeBytes(v.Code)
	size += ord.SizeBool(v.Deleted)
	s := mus.SizerFn[StorageSlot](SizeStorageSlot)
	size += ord.SizeSlice[StorageSlot](v.Storage, s)
	return size
}

// MarshalLogValue implements the mus.Marshaller interface.
func MarshalLogValue(v LogValue, bs []byte) (n int) {
	n = MarshalAddress(v.Address, bs)
	m := mus.MarshallerFn[common.Hash](MarshalHash)
	n += ord.MarshalSlice[common.Hash](v.Topics, m, bs[n:])
	n += MarshalBytes(v.Data, bs[n:])
	return
}

// UnmarshalLogValue implements the mus.Unmarshaller interface.
func UnmarshalLogValue(bs []byte) (v LogValue, n int, err error) {
	v.Address, n, err = UnmarshalAddress(bs)
	if err != nil {
		return
	}
	var n1 int
	u := mus.UnmarshallerFn[common.Hash](UnmarshalHash)
	v.Topics, n1, err = ord.UnmarshalSlice[common.Hash](u, bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Data, n1, err = UnmarshalBytes(bs[n:])
	n += n1
	return
}

// SizeLogValue implements the mus.Sizer interface.
func SizeLogValue(v LogValue) (size int) {
	size = SizeAddress(v.Address)
	s := mus.SizerFn[common.Hash](SizeHash)
	size += ord.SizeSlice[common.Hash](v.Topics, s)
	size += SizeBytes(v.Data)
	return
}

// MarshalStateDump implements the mus.Marshaller interface.
func MarshalStateDump(v StateDump, bs []byte) (n int) {
	m1 := mus.MarshallerFn[AccountValue](MarshalAccountValue)
	n = ord.MarshalSlice[AccountValue](v.Accounts, m1, bs)
	m2 := mus.MarshallerFn[LogValue](MarshalLogValue)
	n += ord.MarshalSlice[LogValue](v.Logs, m2, bs[n:])
	return
}

// UnmarshalStateDump implements the mus.Unmarshaller interface.
func UnmarshalStateDump(bs []byte) (v StateDump, n int, err error) {
	u1 := mus.UnmarshallerFn[AccountValue](UnmarshalAccountValue)
	v.Accounts, n, err = ord.UnmarshalSlice[AccountValue](u1, bs)
	if err != nil {
		return
	}
	var n1 int
	u2 := mus.UnmarshallerFn[LogValue](UnmarshalLogValue)
	v.Logs, n1, err = ord.UnmarshalSlice[LogValue](u2, bs[n:])
	n += n1
	return
}

// SizeStateDump implements the mus.Sizer interface.
func SizeStateDump(v StateDump) (size int) {
	s1 := mus.SizerFn[AccountValue](SizeAccountValue)
	size = ord.SizeSlice[AccountValue](v.Accounts, s1)
	s2 := mus.SizerFn[LogValue](SizeLogValue)
	size += ord.SizeSlice[LogValue](v.Logs, s2)
	return
}

// Digest returns the keccak256 hash of the canonical encoding of the dump.
func (v StateDump) Digest() common.Hash {
	bs := make([]byte, SizeStateDump(v))
	MarshalStateDump(v, bs)
	return crypto.Keccak256Hash(bs)
}
