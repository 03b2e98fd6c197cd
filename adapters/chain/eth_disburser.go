// Package chain submits custodial transfers through go-ethereum RPC
// clients, one per configured network.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/ethcdm/faucet/core"
	"github.com/ethcdm/faucet/ports"
)

const transferGasLimit = 21000

// EthDisburser sends fixed-amount native transfers from the custodial
// wallet. Nonce fetch and submission are serialized per network so
// concurrent claims cannot reuse a custodial nonce.
type EthDisburser struct {
	key     *ecdsa.PrivateKey
	from    common.Address
	clients map[core.NetworkID]*ethclient.Client
	nonceMu map[core.NetworkID]*sync.Mutex
}

// NewEthDisburser dials every configured network RPC.
func NewEthDisburser(key *ecdsa.PrivateKey, networks map[string]core.Network) (*EthDisburser, error) {
	d := &EthDisburser{
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		clients: make(map[core.NetworkID]*ethclient.Client),
		nonceMu: make(map[core.NetworkID]*sync.Mutex),
	}
	for _, n := range networks {
		client, err := ethclient.Dial(n.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("dialing %s rpc: %w", n.Name, err)
		}
		d.clients[n.ID] = client
		d.nonceMu[n.ID] = &sync.Mutex{}
	}
	return d, nil
}

var (
	_ ports.Disburser     = (*EthDisburser)(nil)
	_ ports.BalanceReader = (*EthDisburser)(nil)
)

// From returns the custodial wallet address.
func (d *EthDisburser) From() common.Address {
	return d.from
}

// Disburse submits a transfer of network.Amount to the recipient and
// returns the transaction hash once the node accepts the submission.
func (d *EthDisburser) Disburse(ctx context.Context, network core.Network, to common.Address) (string, error) {
	client, ok := d.clients[network.ID]
	if !ok {
		return "", core.ErrUnsupportedNetwork
	}

	mu := d.nonceMu[network.ID]
	mu.Lock()
	defer mu.Unlock()

	nonce, err := client.PendingNonceAt(ctx, d.from)
	if err != nil {
		return "", fmt.Errorf("fetching nonce: %w", core.ErrTransferFailed)
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching gas price: %w", core.ErrTransferFailed)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    new(big.Int).Set(network.Amount),
		Gas:      transferGasLimit,
		GasPrice: gasPrice,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(network.ChainID), d.key)
	if err != nil {
		return "", fmt.Errorf("signing transfer: %w", core.ErrTransferFailed)
	}

	if err := client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("submitting transfer: %w", core.ErrTransferFailed)
	}

	return signed.Hash().Hex(), nil
}

// Balance returns the custodial balance on a network.
func (d *EthDisburser) Balance(ctx context.Context, network core.Network, account common.Address) (*big.Int, error) {
	client, ok := d.clients[network.ID]
	if !ok {
		return nil, core.ErrUnsupportedNetwork
	}
	return client.BalanceAt(ctx, account, nil)
}

// Close releases the RPC connections.
func (d *EthDisburser) Close() {
	for _, client := range d.clients {
		client.Close()
	}
}
