// Package nft proves ERC-721 ownership via a JSON-RPC balanceOf call.
//
// Grounded on the ethclient/JSON-RPC wiring in
// other_examples/2e0c990e_AInalyst-xyz-x402-go__pkg-chain-evm-provider.go.go
// and the abi/bind.NewBoundContract balanceOf call pattern in
// other_examples/ab4ec204_DanDo385-solidity-edu__geth-04-accounts-balances....go.go.
package nft

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// erc721ABI is the minimal ERC-721 interface needed to check ownership.
const erc721ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}
]`

// RPCError wraps a transport or decoding failure from the ownership check.
type RPCError struct {
	Node string
	Err  error
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("nft: rpc call to %s failed: %v", e.Node, e.Err)
}

func (e *RPCError) Unwrap() error { return e.Err }

// Prover checks ERC-721 ownership over JSON-RPC.
type Prover struct {
	parsedABI abi.ABI
}

// NewProver parses the embedded ERC-721 ABI once at construction.
func NewProver() (*Prover, error) {
	parsed, err := abi.JSON(strings.NewReader(erc721ABI))
	if err != nil {
		return nil, fmt.Errorf("nft: parsing erc721 abi: %w", err)
	}
	return &Prover{parsedABI: parsed}, nil
}

// IsOwner implements §4.C: dial nodeURL, bind the ERC-721 ABI at contract,
// and return true iff balanceOf(account) > 0. Any transport or decoding
// failure is reported as *RPCError; the network call may suspend for an
// arbitrary duration and honors ctx cancellation.
func (p *Prover) IsOwner(ctx context.Context, nodeURL, contract, account string) (bool, error) {
	client, err := ethclient.DialContext(ctx, nodeURL)
	if err != nil {
		return false, &RPCError{Node: nodeURL, Err: err}
	}
	defer client.Close()

	bound := bind.NewBoundContract(common.HexToAddress(contract), p.parsedABI, client, client, client)

	var out []interface{}
	callOpts := &bind.CallOpts{Context: ctx}
	if err := bound.Call(callOpts, &out, "balanceOf", common.HexToAddress(account)); err != nil {
		return false, &RPCError{Node: nodeURL, Err: err}
	}
	if len(out) != 1 {
		return false, &RPCError{Node: nodeURL, Err: fmt.Errorf("unexpected balanceOf return shape")}
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return false, &RPCError{Node: nodeURL, Err: fmt.Errorf("balanceOf did not return uint256")}
	}
	return balance.Sign() > 0, nil
}
