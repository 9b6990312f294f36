package registry

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	sdkerr "github.com/ggonzalez94/xswap-sdk/internal/errors"
)

func TestUniversalRouterAddress(t *testing.T) {
	router, err := UniversalRouterAddress(50, false)
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	if router != common.HexToAddress("0xe1bcb1c502a545ee85a1881b95cdd46d394d2b2e") {
		t.Fatalf("unexpected router: %s", router.Hex())
	}
	beta, err := UniversalRouterAddress(50, true)
	if err != nil {
		t.Fatalf("beta router: %v", err)
	}
	if beta != common.HexToAddress("0x4A4dE54bF3A539dDe03220F54601a4213b66d14d") {
		t.Fatalf("unexpected beta router: %s", beta.Hex())
	}

	_, err = UniversalRouterAddress(51, true)
	detail, ok := sdkerr.AsNetworkError(err)
	if !ok || !detail.Configured || detail.ChainID != 51 {
		t.Fatalf("expected configured-chain error for apothem beta, got %v", err)
	}

	_, err = UniversalRouterAddress(1, false)
	if !sdkerr.Is(err, sdkerr.CodeUnsupportedNetwork) {
		t.Fatalf("expected unsupported network, got %v", err)
	}
	if !strings.Contains(err.Error(), "Universal Router not deployed on chain 1") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestCreationBlock(t *testing.T) {
	block, err := UniversalRouterCreationBlock(51)
	if err != nil || block != 48412660 {
		t.Fatalf("unexpected apothem creation block %d: %v", block, err)
	}
	if _, err := UniversalRouterCreationBlock(137); err == nil {
		t.Fatal("expected error for unknown chain")
	}
}

func TestWETHAddressDistinguishesMissingChainAndFeature(t *testing.T) {
	weth, err := WETHAddress(50)
	if err != nil {
		t.Fatalf("weth: %v", err)
	}
	if weth != common.HexToAddress("0x951857744785E80e2De051c32EE7b25f9c458C42") {
		t.Fatalf("unexpected weth: %s", weth.Hex())
	}

	_, err = WETHAddress(51)
	if err == nil || err.Error() != "unsupported network: chain 51 does not have WETH" {
		t.Fatalf("unexpected apothem weth error: %v", err)
	}
	_, err = WETHAddress(1)
	if err == nil || err.Error() != "unsupported network: Wrapped Token not deployed on chain 1" {
		t.Fatalf("unexpected unknown-chain weth error: %v", err)
	}
}

func TestPermit2Address(t *testing.T) {
	mainnet, err := Permit2Address(50)
	if err != nil {
		t.Fatalf("permit2: %v", err)
	}
	testnet, err := Permit2Address(51)
	if err != nil {
		t.Fatalf("permit2: %v", err)
	}
	if mainnet == testnet {
		t.Fatal("expected distinct permit2 deployments")
	}
	if _, err := Permit2Address(10); !sdkerr.Is(err, sdkerr.CodeUnsupportedNetwork) {
		t.Fatalf("expected unsupported network, got %v", err)
	}
}

func TestWithOverrides(t *testing.T) {
	table, err := Default().WithOverrides(map[int64]Override{
		51:  {WETH: "0x0000000000000000000000000000000000000abc", V3Factory: "0x0000000000000000000000000000000000000def"},
		551: {Name: "devnet", Router: "0x0000000000000000000000000000000000000123", CreationBlock: 7},
	})
	if err != nil {
		t.Fatalf("overrides: %v", err)
	}
	weth, err := table.WETHAddress(51)
	if err != nil || weth != common.HexToAddress("0xabc") {
		t.Fatalf("unexpected overridden weth %s: %v", weth.Hex(), err)
	}
	if _, err := table.V3Factory(51); err != nil {
		t.Fatalf("v3 factory: %v", err)
	}
	if router, err := table.UniversalRouterAddress(51, false); err != nil || router != common.HexToAddress("0xef53145eaa955f0b7749a80315de815e383540fb") {
		t.Fatalf("expected default router to survive overrides: %s %v", router.Hex(), err)
	}
	if block, err := table.CreationBlock(551); err != nil || block != 7 {
		t.Fatalf("unexpected added chain: %d %v", block, err)
	}
	if got := table.ChainIDs(); len(got) != 3 || got[0] != 50 || got[2] != 551 {
		t.Fatalf("unexpected chain ids: %v", got)
	}

	if _, err := WETHAddress(51); err == nil {
		t.Fatal("overrides must not leak into the default table")
	}

	if _, err := Default().WithOverrides(map[int64]Override{50: {Router: "not-an-address"}}); !sdkerr.Is(err, sdkerr.CodeUsage) {
		t.Fatalf("expected usage error for bad address, got %v", err)
	}
}

func TestFactories(t *testing.T) {
	if _, err := Default().V2Factory(50); err != nil {
		t.Fatalf("v2 factory: %v", err)
	}
	_, err := Default().V3Factory(50)
	detail, ok := sdkerr.AsNetworkError(err)
	if !ok || !detail.Configured {
		t.Fatalf("expected missing v3 factory on configured chain, got %v", err)
	}
}

func TestSentinels(t *testing.T) {
	want := new(big.Int).Lsh(big.NewInt(1), 255)
	if ContractBalance().ToBig().Cmp(want) != 0 {
		t.Fatalf("unexpected contract balance: %s", ContractBalance().Dec())
	}
	max160 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 160), big.NewInt(1))
	if MaxUint160().ToBig().Cmp(max160) != 0 {
		t.Fatalf("unexpected max uint160: %s", MaxUint160().Hex())
	}
	if MaxUint256().Hex() != "0x"+strings.Repeat("f", 64) {
		t.Fatalf("unexpected max uint256: %s", MaxUint256().Hex())
	}
	if SenderAsRecipient == RouterAsRecipient || ETHAddress != ZeroAddress {
		t.Fatal("unexpected recipient sentinels")
	}
	if OpenseaConduitSpenderID != 0 || SudoswapSpenderID != 1 {
		t.Fatal("unexpected spender ids")
	}
}

func TestABIConstantsParse(t *testing.T) {
	abis := []string{
		ERC20MinimalABI,
		UniswapV2FactoryABI,
		UniswapV2PairABI,
		UniswapV3FactoryABI,
		UniswapV3PoolABI,
	}
	for _, raw := range abis {
		if _, err := abi.JSON(strings.NewReader(raw)); err != nil {
			t.Fatalf("failed to parse abi json: %v", err)
		}
	}
}

func TestDefaultRPCURL(t *testing.T) {
	if rpc, ok := DefaultRPCURL(50); !ok || rpc == "" {
		t.Fatalf("expected xdc rpc default, got ok=%v rpc=%q", ok, rpc)
	}
	if _, ok := DefaultRPCURL(999999); ok {
		t.Fatal("did not expect rpc default for unsupported chain")
	}
}

func TestResolveRPCURL(t *testing.T) {
	override, err := ResolveRPCURL(" https://rpc.example.test ", 50)
	if err != nil {
		t.Fatalf("resolve with override: %v", err)
	}
	if override != "https://rpc.example.test" {
		t.Fatalf("unexpected override value: %q", override)
	}

	defaultRPC, err := ResolveRPCURL("", 51)
	if err != nil {
		t.Fatalf("resolve with default: %v", err)
	}
	if defaultRPC == "" {
		t.Fatal("expected non-empty default rpc")
	}

	if _, err := ResolveRPCURL("", 999999); err == nil {
		t.Fatal("expected missing chain default rpc error")
	}
}

func TestRPCURLOverrides(t *testing.T) {
	table, err := Default().WithOverrides(map[int64]Override{
		50:  {RPCURL: "https://xdc.example.test"},
		777: {Name: "Devnet", RPCURL: "ws://127.0.0.1:8546"},
	})
	if err != nil {
		t.Fatalf("WithOverrides failed: %v", err)
	}
	if rpc, err := table.RPCURL("", 50); err != nil || rpc != "https://xdc.example.test" {
		t.Fatalf("expected configured xdc rpc, got %q err=%v", rpc, err)
	}
	if rpc, err := table.RPCURL("", 777); err != nil || rpc != "ws://127.0.0.1:8546" {
		t.Fatalf("expected devnet rpc, got %q err=%v", rpc, err)
	}
	if rpc, _ := DefaultRPCURL(50); rpc != "https://rpc.xinfin.network" {
		t.Fatalf("override leaked into the default table: %q", rpc)
	}

	if _, err := table.RPCURL("ftp://rpc.example.test", 50); err == nil {
		t.Fatal("expected unsupported rpc scheme error")
	}
	if _, err := Default().WithOverrides(map[int64]Override{50: {RPCURL: "rpc.example.test"}}); err == nil {
		t.Fatal("expected invalid rpc_url override error")
	}
}
