package bft

import (
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/crypto"
)

func newTestValidator(t *testing.T, stake int64) (*types.Validator, *crypto.PrivateKey) {
	t.Helper()
	priv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	owner := priv.PubKey().Address()
	v := types.NewValidator(owner, priv.PubKey().Bytes(), big.NewInt(stake), 0)
	return v, priv
}

func testBlock(proposerID uuid.UUID, height uint64) *types.Block {
	return &types.Block{
		Header: &types.BlockHeader{
			Height:     height,
			ProposerID: proposerID,
			StateRoot:  []byte("state"),
		},
	}
}

func TestQuorumThresholdIsTwoThirdsPlusOne(t *testing.T) {
	v1, _ := newTestValidator(t, 10)
	v2, _ := newTestValidator(t, 15)
	v3, _ := newTestValidator(t, 25)
	e := NewEngine([]*types.Validator{v1, v2, v3}, 0, nil)

	// total stake 50 -> floor(2*50/3)+1 = 33+1 = 34
	require.Equal(t, big.NewInt(34), e.QuorumThreshold())
}

func TestVoteReachesQuorumAndFormsQC(t *testing.T) {
	v1, p1 := newTestValidator(t, 10)
	v2, p2 := newTestValidator(t, 15)
	v3, p3 := newTestValidator(t, 25)
	e := NewEngine([]*types.Validator{v1, v2, v3}, 0, nil)

	block := testBlock(v1.ID, 1)
	blockID, err := types.HashBlock(block)
	require.NoError(t, err)

	require.NoError(t, e.Vote(SignVote(p1, blockID, 0)))
	require.Nil(t, e.PendingQC())
	require.NoError(t, e.Vote(SignVote(p2, blockID, 0)))
	require.Nil(t, e.PendingQC())
	require.NoError(t, e.Vote(SignVote(p3, blockID, 0)))

	qc := e.PendingQC()
	require.NotNil(t, qc)
	require.Equal(t, blockID, qc.BlockID)
	require.Len(t, qc.Voters, 3)
}

func TestDuplicateVoteIsIdempotent(t *testing.T) {
	v1, p1 := newTestValidator(t, 10)
	v2, _ := newTestValidator(t, 15)
	e := NewEngine([]*types.Validator{v1, v2}, 0, nil)

	block := testBlock(v1.ID, 1)
	blockID, err := types.HashBlock(block)
	require.NoError(t, err)

	vote := SignVote(p1, blockID, 0)
	require.NoError(t, e.Vote(vote))
	require.NoError(t, e.Vote(vote))
	require.Nil(t, e.PendingQC())
}

func TestVoteFromUnknownValidatorRejected(t *testing.T) {
	v1, _ := newTestValidator(t, 10)
	_, stranger := newTestValidator(t, 99)
	e := NewEngine([]*types.Validator{v1}, 0, nil)

	block := testBlock(v1.ID, 1)
	blockID, err := types.HashBlock(block)
	require.NoError(t, err)

	err = e.Vote(SignVote(stranger, blockID, 0))
	require.Error(t, err)
	require.Nil(t, e.PendingQC())
}

func TestProposeRejectsBadSignature(t *testing.T) {
	v1, p1 := newTestValidator(t, 10)
	e := NewEngine([]*types.Validator{v1}, 0, nil)

	block := testBlock(v1.ID, 1)
	sp, err := SignProposal(p1, block)
	require.NoError(t, err)
	sp.Signature[0] ^= 0xFF

	require.Error(t, e.Propose(sp))
}

func TestProposeFromNonLeaderIsAcceptedPermissively(t *testing.T) {
	v1, p1 := newTestValidator(t, 10)
	v2, _ := newTestValidator(t, 1_000_000)
	// v2 comes first in the roster, so view 0 (slot 0 < 1,000,000) elects v2
	// and v1's proposal is from a non-leader.
	e := NewEngine([]*types.Validator{v2, v1}, 0, nil)

	block := testBlock(v1.ID, 1)
	sp, err := SignProposal(p1, block)
	require.NoError(t, err)

	viewBefore := e.View()
	require.NoError(t, e.Propose(sp))
	require.Equal(t, viewBefore+1, e.View())
}

func TestOnQCAdvancesHeightAndEnqueuesParent(t *testing.T) {
	v1, p1 := newTestValidator(t, 10)
	e := NewEngine([]*types.Validator{v1}, 5, nil)

	parentHash := []byte("parent")
	block := testBlock(v1.ID, 6)
	block.Header.ParentHash = parentHash
	sp, err := SignProposal(p1, block)
	require.NoError(t, err)
	require.NoError(t, e.Propose(sp))

	blockID, err := types.HashBlock(block)
	require.NoError(t, err)
	qc := &QuorumCertificate{BlockID: blockID, View: 0}

	e.OnQC(qc)
	require.Equal(t, uint64(6), e.Height())

	id, ok := e.PopCommit()
	require.True(t, ok)
	require.NotEmpty(t, id)
}

func TestOnTimeoutOnlyAdvancesMatchingView(t *testing.T) {
	v1, _ := newTestValidator(t, 10)
	e := NewEngine([]*types.Validator{v1}, 0, nil)

	e.OnTimeout(5) // stale, view is 0
	require.Equal(t, uint64(0), e.View())

	e.OnTimeout(0)
	require.Equal(t, uint64(1), e.View())
}

func TestLeaderForViewIsAlwaysAValidator(t *testing.T) {
	v1, _ := newTestValidator(t, 10)
	v2, _ := newTestValidator(t, 15)
	v3, _ := newTestValidator(t, 25)
	e := NewEngine([]*types.Validator{v1, v2, v3}, 0, nil)

	validIDs := map[uuid.UUID]bool{v1.ID: true, v2.ID: true, v3.ID: true}
	for view := uint64(0); view < 100; view++ {
		leader := e.LeaderForView(view)
		require.NotNil(t, leader)
		require.True(t, validIDs[leader.ID])
	}
}

func TestRecordSlashAppendsObservabilityArtifact(t *testing.T) {
	v1, _ := newTestValidator(t, 10)
	e := NewEngine([]*types.Validator{v1}, 0, nil)

	digest := e.RecordSlash([]byte("evidence"))
	require.Len(t, digest, crypto.HashSize)

	id, ok := e.PopCommit()
	require.True(t, ok)
	require.Contains(t, id, "slash:")
}
