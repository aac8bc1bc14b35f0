// Package gmx implements the venue boundary against the GMX V1
// contracts on Arbitrum using raw ABI calls over an eth JSON-RPC
// client. Each gateway sub-account is a dedicated key held by the
// client; position requests are signed with the owning sub-account's
// key so the venue attributes the position to it.
package gmx

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"PerpGateway/internal/venue"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

// positionFields is the number of uint256 slots the GMX reader returns
// per position leg.
const positionFields = 9

// Config holds contract addresses and chain parameters
type Config struct {
	RPCURL             string
	ChainID            int64
	PositionRouterAddr string
	ReaderAddr         string
	VaultAddr          string
	SettlementToken    string            // USDC address
	IndexTokens        map[string]string // symbol -> address
}

// Client speaks to the GMX position router, reader and vault
type Client struct {
	eth     *ethclient.Client
	chainID *big.Int
	log     zerolog.Logger

	routerAddr common.Address
	readerAddr common.Address
	vaultAddr  common.Address
	usdcAddr   common.Address
	tokens     map[string]common.Address

	routerABI abi.ABI
	readerABI abi.ABI
	vaultABI  abi.ABI
	erc20ABI  abi.ABI

	mu   sync.RWMutex
	keys map[common.Address]*ecdsa.PrivateKey // sub-account keys
}

var _ venue.Router = (*Client)(nil)
var _ venue.Reader = (*Client)(nil)

func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	eth, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial eth rpc: %w", err)
	}

	routerABI, err := abi.JSON(strings.NewReader(positionRouterABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse router abi: %w", err)
	}
	readerABI, err := abi.JSON(strings.NewReader(readerABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse reader abi: %w", err)
	}
	vaultABI, err := abi.JSON(strings.NewReader(vaultABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse vault abi: %w", err)
	}
	erc20ABI, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}

	tokens := make(map[string]common.Address, len(cfg.IndexTokens))
	for symbol, addr := range cfg.IndexTokens {
		tokens[symbol] = common.HexToAddress(addr)
	}

	return &Client{
		eth:        eth,
		chainID:    big.NewInt(cfg.ChainID),
		log:        log,
		routerAddr: common.HexToAddress(cfg.PositionRouterAddr),
		readerAddr: common.HexToAddress(cfg.ReaderAddr),
		vaultAddr:  common.HexToAddress(cfg.VaultAddr),
		usdcAddr:   common.HexToAddress(cfg.SettlementToken),
		tokens:     tokens,
		routerABI:  routerABI,
		readerABI:  readerABI,
		vaultABI:   vaultABI,
		erc20ABI:   erc20ABI,
		keys:       make(map[common.Address]*ecdsa.PrivateKey),
	}, nil
}

func (c *Client) Close() {
	c.eth.Close()
}

func (c *Client) tokenAddr(symbol string) (common.Address, error) {
	if symbol == "USDC" {
		return c.usdcAddr, nil
	}
	addr, ok := c.tokens[symbol]
	if !ok {
		return common.Address{}, fmt.Errorf("no address configured for token %s", symbol)
	}
	return addr, nil
}

// call executes a read-only contract call and unpacks the single result
func (c *Client) call(ctx context.Context, contractABI abi.ABI, to common.Address, out interface{}, method string, args ...interface{}) error {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("pack %s: %w", method, err)
	}

	raw, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}

	if err := contractABI.UnpackIntoInterface(out, method, raw); err != nil {
		return fmt.Errorf("unpack %s: %w", method, err)
	}
	return nil
}

// transact signs and sends a contract transaction from a sub-account
// key and waits for it to be mined.
func (c *Client) transact(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, value *big.Int, data []byte) (*types.Receipt, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)

	nonce, err := c.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("nonce for %s: %w", from.Hex(), err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", err)
	}
	gasLimit, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value, Data: data})
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), key)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send tx: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, c.eth, signed)
	if err != nil {
		return nil, fmt.Errorf("wait mined %s: %w", signed.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("tx %s reverted", signed.Hash().Hex())
	}
	return receipt, nil
}

func (c *Client) accountKey(account string) (*ecdsa.PrivateKey, common.Address, error) {
	addr := common.HexToAddress(account)
	c.mu.RLock()
	key, ok := c.keys[addr]
	c.mu.RUnlock()
	if !ok {
		return nil, common.Address{}, fmt.Errorf("no key held for sub-account %s", account)
	}
	return key, addr, nil
}

// CreateAccount mints a fresh keypair; the address is the venue-side
// sub-account identity.
func (c *Client) CreateAccount(ctx context.Context) (string, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("generate sub-account key: %w", err)
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)

	c.mu.Lock()
	c.keys[addr] = key
	c.mu.Unlock()

	c.log.Info().Str("account", addr.Hex()).Msg("created venue sub-account")
	return addr.Hex(), nil
}

// SubmitIncrease approves the router for the collateral amount, sends
// createIncreasePosition and derives the venue order key from the
// post-submit request index.
func (c *Client) SubmitIncrease(ctx context.Context, req venue.IncreaseRequest) (venue.OrderKey, error) {
	key, addr, err := c.accountKey(req.Account)
	if err != nil {
		return "", err
	}
	indexToken, err := c.tokenAddr(req.IndexAsset)
	if err != nil {
		return "", err
	}
	collateralToken, err := c.tokenAddr(req.CollateralAsset)
	if err != nil {
		return "", err
	}

	approveData, err := c.erc20ABI.Pack("approve", c.routerAddr, req.AmountIn)
	if err != nil {
		return "", fmt.Errorf("pack approve: %w", err)
	}
	if _, err := c.transact(ctx, key, collateralToken, nil, approveData); err != nil {
		return "", fmt.Errorf("approve collateral: %w", err)
	}

	data, err := c.routerABI.Pack("createIncreasePosition",
		[]common.Address{collateralToken},
		indexToken,
		req.AmountIn,
		req.MinOut,
		req.SizeDelta,
		req.IsLong,
		req.AcceptablePrice,
		req.ExecutionFee,
		[32]byte{},       // referral code
		common.Address{}, // callback target
	)
	if err != nil {
		return "", fmt.Errorf("pack createIncreasePosition: %w", err)
	}
	if _, err := c.transact(ctx, key, c.routerAddr, req.ExecutionFee, data); err != nil {
		return "", fmt.Errorf("createIncreasePosition: %w", err)
	}

	index, err := c.increaseIndex(ctx, addr)
	if err != nil {
		return "", err
	}
	orderKey, err := c.requestKey(ctx, addr, index)
	if err != nil {
		return "", err
	}

	c.log.Info().
		Str("account", addr.Hex()).
		Str("index_asset", req.IndexAsset).
		Str("order_key", string(orderKey)).
		Msg("increase submitted")
	return orderKey, nil
}

// SubmitDecrease sends createDecreasePosition. Proceeds go to the
// request's receiver; no order key is tracked for decreases.
func (c *Client) SubmitDecrease(ctx context.Context, req venue.DecreaseRequest) (venue.OrderKey, error) {
	key, addr, err := c.accountKey(req.Account)
	if err != nil {
		return "", err
	}
	indexToken, err := c.tokenAddr(req.IndexAsset)
	if err != nil {
		return "", err
	}
	collateralToken, err := c.tokenAddr(req.CollateralAsset)
	if err != nil {
		return "", err
	}

	receiver := addr
	if req.Receiver != "" {
		receiver = common.HexToAddress(req.Receiver)
	}

	data, err := c.routerABI.Pack("createDecreasePosition",
		[]common.Address{collateralToken},
		indexToken,
		req.CollateralDelta,
		req.SizeDelta,
		req.IsLong,
		receiver,
		req.AcceptablePrice,
		req.MinOut,
		req.ExecutionFee,
		false, // withdrawETH
		common.Address{},
	)
	if err != nil {
		return "", fmt.Errorf("pack createDecreasePosition: %w", err)
	}
	if _, err := c.transact(ctx, key, c.routerAddr, req.ExecutionFee, data); err != nil {
		return "", fmt.Errorf("createDecreasePosition: %w", err)
	}

	c.log.Info().
		Str("account", addr.Hex()).
		Str("index_asset", req.IndexAsset).
		Msg("decrease submitted")
	return "", nil
}

// CancelIncrease simulates the cancel first to learn whether the
// request is still pending, then sends the transaction. A false result
// from the simulation means the keeper already executed the order.
func (c *Client) CancelIncrease(ctx context.Context, account string, orderKey venue.OrderKey) (bool, error) {
	key, addr, err := c.accountKey(account)
	if err != nil {
		return false, err
	}

	var rawKey [32]byte
	copy(rawKey[:], common.FromHex(string(orderKey)))

	var pending bool
	data, err := c.routerABI.Pack("cancelIncreasePosition", rawKey, addr)
	if err != nil {
		return false, fmt.Errorf("pack cancelIncreasePosition: %w", err)
	}
	raw, err := c.eth.CallContract(ctx, ethereum.CallMsg{From: addr, To: &c.routerAddr, Data: data}, nil)
	if err != nil {
		return false, fmt.Errorf("simulate cancel: %w", err)
	}
	if err := c.routerABI.UnpackIntoInterface(&pending, "cancelIncreasePosition", raw); err != nil {
		return false, fmt.Errorf("unpack cancel result: %w", err)
	}
	if !pending {
		return false, nil
	}

	if _, err := c.transact(ctx, key, c.routerAddr, nil, data); err != nil {
		return false, fmt.Errorf("cancelIncreasePosition: %w", err)
	}

	c.log.Info().
		Str("account", addr.Hex()).
		Str("order_key", string(orderKey)).
		Msg("increase cancelled")
	return true, nil
}

func (c *Client) MinExecutionFee(ctx context.Context) (*big.Int, error) {
	var fee *big.Int
	if err := c.call(ctx, c.routerABI, c.routerAddr, &fee, "minExecutionFee"); err != nil {
		return nil, err
	}
	return fee, nil
}

func (c *Client) IncreaseIndex(ctx context.Context, account string) (*big.Int, error) {
	return c.increaseIndex(ctx, common.HexToAddress(account))
}

func (c *Client) increaseIndex(ctx context.Context, account common.Address) (*big.Int, error) {
	var index *big.Int
	if err := c.call(ctx, c.routerABI, c.routerAddr, &index, "increasePositionsIndex", account); err != nil {
		return nil, err
	}
	return index, nil
}

func (c *Client) requestKey(ctx context.Context, account common.Address, index *big.Int) (venue.OrderKey, error) {
	var raw [32]byte
	if err := c.call(ctx, c.routerABI, c.routerAddr, &raw, "getRequestKey", account, index); err != nil {
		return "", err
	}
	return venue.OrderKey(common.Bytes2Hex(raw[:])), nil
}

// Positions queries the GMX reader for all legs in one call
func (c *Client) Positions(ctx context.Context, q venue.PositionQuery) ([]venue.Position, error) {
	account := common.HexToAddress(q.Account)

	collateralTokens := make([]common.Address, len(q.CollateralAssets))
	for i, symbol := range q.CollateralAssets {
		addr, err := c.tokenAddr(symbol)
		if err != nil {
			return nil, err
		}
		collateralTokens[i] = addr
	}
	indexTokens := make([]common.Address, len(q.IndexAssets))
	for i, symbol := range q.IndexAssets {
		addr, err := c.tokenAddr(symbol)
		if err != nil {
			return nil, err
		}
		indexTokens[i] = addr
	}

	var raw []*big.Int
	if err := c.call(ctx, c.readerABI, c.readerAddr, &raw, "getPositions",
		c.vaultAddr, account, collateralTokens, indexTokens, q.IsLong); err != nil {
		return nil, err
	}

	return parsePositions(raw, len(q.IndexAssets))
}

func (c *Client) MaxPrice(ctx context.Context, indexAsset string) (*big.Int, error) {
	addr, err := c.tokenAddr(indexAsset)
	if err != nil {
		return nil, err
	}
	var price *big.Int
	if err := c.call(ctx, c.vaultABI, c.vaultAddr, &price, "getMaxPrice", addr); err != nil {
		return nil, err
	}
	return price, nil
}

func (c *Client) MinPrice(ctx context.Context, indexAsset string) (*big.Int, error) {
	addr, err := c.tokenAddr(indexAsset)
	if err != nil {
		return nil, err
	}
	var price *big.Int
	if err := c.call(ctx, c.vaultABI, c.vaultAddr, &price, "getMinPrice", addr); err != nil {
		return nil, err
	}
	return price, nil
}

// parsePositions splits the reader's flat uint256 array into one
// Position per leg.
func parsePositions(raw []*big.Int, legs int) ([]venue.Position, error) {
	if len(raw) != legs*positionFields {
		return nil, fmt.Errorf("reader returned %d values for %d legs, want %d", len(raw), legs, legs*positionFields)
	}

	positions := make([]venue.Position, legs)
	for i := 0; i < legs; i++ {
		base := i * positionFields
		positions[i] = venue.Position{
			Size:              raw[base],
			Collateral:        raw[base+1],
			AveragePrice:      raw[base+2],
			EntryFundingRate:  raw[base+3],
			HasRealisedProfit: raw[base+4].Sign() != 0,
			RealisedPnl:       raw[base+5],
			LastIncreasedTime: raw[base+6],
			HasProfit:         raw[base+7].Sign() != 0,
			Delta:             raw[base+8],
		}
	}
	return positions, nil
}
