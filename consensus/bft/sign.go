package bft

import (
	"github.com/latticebft/corechain/core/types"
	"github.com/latticebft/corechain/crypto"
)

// SignProposal builds a SignedProposal for block, signed by priv over
// hash_block(block).
func SignProposal(priv *crypto.PrivateKey, block *types.Block) (*SignedProposal, error) {
	hash, err := types.HashBlock(block)
	if err != nil {
		return nil, err
	}
	return &SignedProposal{
		Block:     block,
		PublicKey: priv.PubKey().Bytes(),
		Signature: priv.Sign(hash),
	}, nil
}

// SignVote builds a SignedVote for (blockID, view), signed by priv.
func SignVote(priv *crypto.PrivateKey, blockID []byte, view uint64) *SignedVote {
	return &SignedVote{
		BlockID:   blockID,
		View:      view,
		PublicKey: priv.PubKey().Bytes(),
		Signature: priv.Sign(voteSignBytes(blockID, view)),
	}
}
