package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/crypto"
)

func testAddress(t *testing.T, seed byte) crypto.Address {
	t.Helper()
	raw := make([]byte, crypto.AddressLength)
	for i := range raw {
		raw[i] = seed
	}
	addr, err := crypto.NewAddress(crypto.AccountPrefix, raw)
	require.NoError(t, err)
	return addr
}

func TestEmptyStateRootIsThirtyTwoZeroBytes(t *testing.T) {
	root := ComputeStateRoot(types.NewChainState())
	require.Len(t, root, crypto.HashSize)
	for _, b := range root {
		require.Equal(t, byte(0), b)
	}
}

func TestStateRootIsOrderIndependent(t *testing.T) {
	a := testAddress(t, 0x01)
	b := testAddress(t, 0x02)

	s1 := types.NewChainState()
	acc1 := types.NewAccount(a)
	acc1.Balance = big.NewInt(100)
	acc2 := types.NewAccount(b)
	acc2.Balance = big.NewInt(200)
	s1.Accounts[string(a.Bytes())] = acc1
	s1.Accounts[string(b.Bytes())] = acc2

	s2 := types.NewChainState()
	s2.Accounts[string(b.Bytes())] = acc2.Clone()
	s2.Accounts[string(a.Bytes())] = acc1.Clone()

	require.Equal(t, ComputeStateRoot(s1), ComputeStateRoot(s2))
}

func TestStateRootDeterministicAcrossIndependentManagers(t *testing.T) {
	build := func() *Manager {
		s := types.NewChainState()
		addr := testAddress(t, 0x07)
		acc := types.NewAccount(addr)
		acc.Balance = big.NewInt(42)
		s.Accounts[string(addr.Bytes())] = acc
		return NewManager(s)
	}

	m1 := build()
	m2 := build()
	require.Equal(t, m1.Commit(), m2.Commit())
}

func TestStateRootChangesWithMutation(t *testing.T) {
	addr := testAddress(t, 0x09)
	s := types.NewChainState()
	acc := types.NewAccount(addr)
	acc.Balance = big.NewInt(10)
	s.Accounts[string(addr.Bytes())] = acc
	m := NewManager(s)

	before := m.Commit()

	acc2, err := m.GetAccount(addr)
	require.NoError(t, err)
	acc2.Balance = big.NewInt(11)
	require.NoError(t, m.PutAccount(acc2))

	after := m.Commit()
	require.NotEqual(t, before, after)
}

func TestPutAccountAndValidatorAreDefensiveCopies(t *testing.T) {
	addr := testAddress(t, 0x0A)
	m := NewManager(nil)
	acc := types.NewAccount(addr)
	acc.Balance = big.NewInt(5)
	require.NoError(t, m.PutAccount(acc))

	acc.Balance = big.NewInt(999)
	stored, err := m.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(5), stored.Balance)

	val := types.NewValidator(addr, []byte("validator-pubkey"), big.NewInt(7), 0)
	require.NoError(t, m.PutValidator(val))

	val.Stake.SetInt64(999)
	storedVal, err := m.GetValidator(val.ID)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(7), storedVal.Stake)
}
