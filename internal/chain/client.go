package chain

import (
	"context"      // Context for RPC calls
	"crypto/ecdsa" // Signer key type
	"errors"       // Error values
	"math/big"     // On-chain integer math
	"sync"         // Serialize nonce usage on the signer

	"github.com/ethereum/go-ethereum"              // CallMsg for read calls
	"github.com/ethereum/go-ethereum/common"       // Address and byte helpers
	"github.com/ethereum/go-ethereum/core/types"   // Transaction types and signer
	"github.com/ethereum/go-ethereum/crypto"       // Key handling and keccak
	"github.com/ethereum/go-ethereum/ethclient"    // JSON-RPC client
	"github.com/sirupsen/logrus"                   // Logging library
)

// Issuer abstracts the on-chain KCODE operations so reward paths can be
// tested without an RPC endpoint.
type Issuer interface {
	RewardUserWithKcode(ctx context.Context, to string, amount float64, memo string) (string, error)
	BurnAndTransferKcode(ctx context.Context, to string, amount float64) (string, error)
	BalanceOf(ctx context.Context, address string) (float64, error)
}

// Gas limit for token transfers; generous for the KCODE contract
const transferGasLimit = 200000

// KCODE uses the standard 18 decimals
var weiPerKcode = new(big.Float).SetFloat64(1e18)

// Client signs and submits KCODE transactions with the backend-held reward key
type Client struct {
	ec       *ethclient.Client // JSON-RPC connection
	key      *ecdsa.PrivateKey // Backend signer key
	from     common.Address    // Signer address
	chainID  *big.Int          // EIP-155 chain id
	contract common.Address    // KCODE contract address
	mu       sync.Mutex        // One in-flight transaction at a time (nonce safety)
}

// NewClient dials the RPC endpoint and loads the signer key
func NewClient(rpcURL, signerKeyHex, contractAddr string, chainID int64) (*Client, error) {
	ec, err := ethclient.Dial(rpcURL) // Connect to the RPC endpoint
	if err != nil {
		return nil, err // Connection failed
	}
	key, err := crypto.HexToECDSA(signerKeyHex) // Parse the signer private key
	if err != nil {
		return nil, err // Bad key material
	}
	return &Client{
		ec:       ec,                                     // RPC connection
		key:      key,                                    // Signer key
		from:     crypto.PubkeyToAddress(key.PublicKey),  // Derive signer address
		chainID:  big.NewInt(chainID),                    // Chain id for EIP-155 signing
		contract: common.HexToAddress(contractAddr),      // KCODE contract
	}, nil
}

// RewardUserWithKcode transfers KCODE from the community reserve signer to a
// user wallet and returns the transaction hash. The memo is logged only; the
// ledger row carries it off-chain.
func (c *Client) RewardUserWithKcode(ctx context.Context, to string, amount float64, memo string) (string, error) {
	data := packTransfer("transfer(address,uint256)", to, amount) // ERC-20 transfer calldata
	hash, err := c.send(ctx, data)
	if err != nil {
		return "", err // Submission failed
	}
	// Log the reward with context
	logrus.WithFields(logrus.Fields{
		"to":      to,     // Recipient wallet
		"amount":  amount, // KCODE amount
		"memo":    memo,   // Audit label
		"tx_hash": hash,   // Submitted transaction
	}).Info("KCODE reward submitted")
	return hash, nil
}

// BurnAndTransferKcode invokes the contract's burn-and-transfer entry point
// (used by spend paths where part of the amount is destroyed)
func (c *Client) BurnAndTransferKcode(ctx context.Context, to string, amount float64) (string, error) {
	data := packTransfer("burnAndTransfer(address,uint256)", to, amount) // Contract-specific calldata
	return c.send(ctx, data)
}

// BalanceOf reads the KCODE balance of an address, in whole tokens
func (c *Client) BalanceOf(ctx context.Context, address string) (float64, error) {
	// balanceOf(address) read call
	data := append(selector("balanceOf(address)"), common.LeftPadBytes(common.HexToAddress(address).Bytes(), 32)...)
	res, err := c.ec.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: data}, nil)
	if err != nil {
		return 0, err // RPC failure
	}
	if len(res) < 32 {
		return 0, errors.New("short balanceOf response")
	}
	wei := new(big.Int).SetBytes(res[:32]) // Raw 18-decimal balance
	out, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), weiPerKcode).Float64()
	return out, nil
}

// send signs and submits a transaction against the KCODE contract
func (c *Client) send(ctx context.Context, data []byte) (string, error) {
	c.mu.Lock() // Serialize nonce fetch + submit
	defer c.mu.Unlock()
	nonce, err := c.ec.PendingNonceAt(ctx, c.from) // Next nonce for the signer
	if err != nil {
		return "", err
	}
	gasPrice, err := c.ec.SuggestGasPrice(ctx) // Current gas price
	if err != nil {
		return "", err
	}
	// Build, sign and submit the transaction
	tx := types.NewTransaction(nonce, c.contract, big.NewInt(0), transferGasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), c.key)
	if err != nil {
		return "", err
	}
	if err := c.ec.SendTransaction(ctx, signedTx); err != nil {
		return "", err
	}
	return signedTx.Hash().Hex(), nil // Hash of the submitted transaction
}

// selector returns the 4-byte method selector for a signature
func selector(sig string) []byte {
	return crypto.Keccak256([]byte(sig))[:4]
}

// packTransfer builds calldata for a (address,uint256) method taking a KCODE
// amount expressed as a float of whole tokens
func packTransfer(sig, to string, amount float64) []byte {
	wei, _ := new(big.Float).Mul(new(big.Float).SetFloat64(amount), weiPerKcode).Int(nil) // Tokens -> wei
	data := selector(sig)
	data = append(data, common.LeftPadBytes(common.HexToAddress(to).Bytes(), 32)...) // Recipient
	data = append(data, common.LeftPadBytes(wei.Bytes(), 32)...)                     // Amount
	return data
}
