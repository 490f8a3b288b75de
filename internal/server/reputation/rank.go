package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/time/rate"
)

// rankABI describes the read-only ranking contract. A rank of zero means the
// fid is unranked.
const rankABI = `[{
	"type": "function",
	"name": "getRanksForFids",
	"stateMutability": "view",
	"inputs": [{"name": "fids", "type": "uint256[]"}],
	"outputs": [{"name": "ranks", "type": "uint256[]"}]
}]`

const rankMethod = "getRanksForFids"

// ContractCaller is the subset of ethclient.Client used for eth_call.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// RankClient reads graph-centrality ranks from an on-chain contract.
type RankClient struct {
	caller   ContractCaller
	contract common.Address
	abi      abi.ABI
	limiter  *rate.Limiter
}

// NewRankClient wraps an existing caller. every bounds the call rate.
func NewRankClient(caller ContractCaller, contract common.Address, every time.Duration) (*RankClient, error) {
	parsed, err := abi.JSON(strings.NewReader(rankABI))
	if err != nil {
		return nil, fmt.Errorf("parsing rank abi: %w", err)
	}

	limit := rate.Inf
	if every > 0 {
		limit = rate.Every(every)
	}

	return &RankClient{
		caller:   caller,
		contract: contract,
		abi:      parsed,
		limiter:  rate.NewLimiter(limit, 1),
	}, nil
}

// DialRankClient connects to an RPC endpoint.
func DialRankClient(ctx context.Context, rpcURL, contract string, every time.Duration) (*RankClient, error) {
	if !common.IsHexAddress(contract) {
		return nil, fmt.Errorf("invalid rank contract address %q", contract)
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dialing rank rpc: %w", err)
	}

	return NewRankClient(client, common.HexToAddress(contract), every)
}

// Name returns the provider name
func (c *RankClient) Name() string {
	return ProviderRank
}

// FetchBatch issues one eth_call for all fids.
func (c *RankClient) FetchBatch(ctx context.Context, fids []int64, timeout time.Duration) (map[int64]*Score, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rank rate limit: %w", err)
	}

	ids := make([]*big.Int, len(fids))
	for i, fid := range fids {
		ids[i] = big.NewInt(fid)
	}

	data, err := c.abi.Pack(rankMethod, ids)
	if err != nil {
		return nil, fmt.Errorf("packing rank call: %w", err)
	}

	out, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("calling rank contract: %w", err)
	}

	values, err := c.abi.Unpack(rankMethod, out)
	if err != nil {
		return nil, fmt.Errorf("decoding rank response: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("decoding rank response: expected 1 value, got %d", len(values))
	}
	ranks, ok := values[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("decoding rank response: unexpected type %T", values[0])
	}
	if len(ranks) != len(fids) {
		return nil, fmt.Errorf("decoding rank response: %d ranks for %d fids", len(ranks), len(fids))
	}

	result := absentAll(fids)
	for i, fid := range fids {
		if ranks[i] == nil || ranks[i].Sign() == 0 {
			continue
		}
		rank, _ := new(big.Float).SetInt(ranks[i]).Float64()
		raw, err := json.Marshal(map[string]any{"fid": fid, "rank": ranks[i].String()})
		if err != nil {
			return nil, fmt.Errorf("encoding rank payload: %w", err)
		}
		result[fid] = &Score{FID: fid, Rank: floatPtr(rank), Raw: raw}
	}

	return result, nil
}
