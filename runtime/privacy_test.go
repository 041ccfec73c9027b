package runtime

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/crypto"
	"github.com/latticebft/corechain/zk"
)

// TestShieldedDepositAndWithdrawRoundTrip deposits amount 10, raising
// total_shielded to 10, then withdraws twice with the same nullifier: the
// second withdrawal fails with double-spend-nullifier.
func TestShieldedDepositAndWithdrawRoundTrip(t *testing.T) {
	c := newTestContext(t, types.FeeSplit{})
	priv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	addr := priv.PubKey().Address()
	fundAccount(t, c, addr, 1_000_000)

	commitment := crypto.HashLeaf([]byte("note-a"))
	depositTx := signedTxWithGasPrice(t, priv, 0, types.PayloadPrivacyDeposit,
		types.PrivacyDepositPayload{Commitment: commitment, Amount: big.NewInt(10)}, -1, -1, 0)
	_, err = c.ApplyTx(depositTx, 1, 0)
	require.NoError(t, err)

	pool := c.Store.GetChainState().DefaultPrivacyPool()
	require.Equal(t, 0, pool.TotalShielded.Cmp(big.NewInt(10)))

	nullifier := crypto.HashLeaf([]byte("nullifier-a"))
	recipient := addr
	amount := big.NewInt(10)
	root := append([]byte(nil), pool.MerkleRoot...)

	artifact, err := c.ZK.Prove(context.Background(), zk.ProofRequest{
		ProgramID:   "privacy-withdraw-v1",
		Commitments: [][]byte{nullifier, root, recipient.Bytes(), amount.Bytes(), commitment},
	})
	require.NoError(t, err)

	withdrawPayload := types.PrivacyWithdrawPayload{
		Nullifier: nullifier, Recipient: recipient, Amount: amount,
		MerkleRoot: root, Commitment: commitment, Proof: artifact.Proof,
	}
	withdrawTx := signedTxWithGasPrice(t, priv, 1, types.PayloadPrivacyWithdraw, withdrawPayload, -1, -1, 0)
	_, err = c.ApplyTx(withdrawTx, 2, 0)
	require.NoError(t, err)

	pool = c.Store.GetChainState().DefaultPrivacyPool()
	require.Equal(t, 0, pool.TotalShielded.Cmp(big.NewInt(0)))

	secondWithdrawTx := signedTxWithGasPrice(t, priv, 2, types.PayloadPrivacyWithdraw, withdrawPayload, -1, -1, 0)
	_, err = c.ApplyTx(secondWithdrawTx, 3, 0)
	require.Error(t, err)
	require.ErrorContains(t, err, "double-spend-nullifier")
}

func TestPrivacyDepositRejectsDuplicateCommitment(t *testing.T) {
	c := newTestContext(t, types.FeeSplit{})
	priv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	addr := priv.PubKey().Address()
	fundAccount(t, c, addr, 1_000_000)

	commitment := crypto.HashLeaf([]byte("note-b"))
	tx1 := signedTxWithGasPrice(t, priv, 0, types.PayloadPrivacyDeposit,
		types.PrivacyDepositPayload{Commitment: commitment, Amount: big.NewInt(5)}, -1, -1, 0)
	_, err = c.ApplyTx(tx1, 1, 0)
	require.NoError(t, err)

	tx2 := signedTxWithGasPrice(t, priv, 1, types.PayloadPrivacyDeposit,
		types.PrivacyDepositPayload{Commitment: commitment, Amount: big.NewInt(5)}, -1, -1, 0)
	_, err = c.ApplyTx(tx2, 2, 0)
	require.Error(t, err)
}

func TestPrivacyWithdrawRejectsStaleMerkleRoot(t *testing.T) {
	c := newTestContext(t, types.FeeSplit{})
	priv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	addr := priv.PubKey().Address()
	fundAccount(t, c, addr, 1_000_000)

	commitment := crypto.HashLeaf([]byte("note-c"))
	depositTx := signedTxWithGasPrice(t, priv, 0, types.PayloadPrivacyDeposit,
		types.PrivacyDepositPayload{Commitment: commitment, Amount: big.NewInt(10)}, -1, -1, 0)
	_, err = c.ApplyTx(depositTx, 1, 0)
	require.NoError(t, err)

	staleRoot := make([]byte, crypto.HashSize)
	withdrawPayload := types.PrivacyWithdrawPayload{
		Nullifier: crypto.HashLeaf([]byte("nullifier-c")), Recipient: addr, Amount: big.NewInt(10),
		MerkleRoot: staleRoot, Commitment: commitment, Proof: []byte("irrelevant"),
	}
	withdrawTx := signedTxWithGasPrice(t, priv, 1, types.PayloadPrivacyWithdraw, withdrawPayload, -1, -1, 0)
	_, err = c.ApplyTx(withdrawTx, 2, 0)
	require.Error(t, err)
	require.ErrorContains(t, err, "merkle-root-mismatch")
}
