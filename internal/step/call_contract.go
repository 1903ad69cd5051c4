package step

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"

	"github.com/buildbeaver/playbook/internal/playbook"
	"github.com/buildbeaver/playbook/internal/values"
)

// CallContractStep performs a read-only `eth_call` against a contract,
// encoding its function signature and arguments into calldata the way
// build_calldata does in the original executor: the first four bytes of
// keccak256(signature) as the function selector, followed by the
// canonical ABI encoding of each argument.
//
// The endpoint to dial is either a literal chain_rpc_url or the name of
// a provider declared in setup.rpc_providers (rpc_provider), resolved
// against the shared playbook.Context at Execute time since a step is
// built from its StepConfig alone, before any Context exists.
type CallContractStep struct {
	chainRpcURL         string
	rpcProviderName     string
	contractAddress     common.Address
	functionSig         string
	functionArgs        []values.Value
	functionReturnTypes []values.Type

	// dialFunc and dialProviderFunc are overridable in tests so
	// CallContract's argument handling can be exercised without a live
	// RPC endpoint.
	dialFunc         func(ctx context.Context, url string) (ContractCaller, error)
	dialProviderFunc func(ctx context.Context, provider playbook.RpcProviderConfig) (ContractCaller, error)
}

// ContractCaller is the subset of ethclient.Client's API CallContract
// needs, narrowed so it can be faked in tests.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber interface{}) ([]byte, error)
}

// ethclientCaller adapts *ethclient.Client's CallContract (which takes a
// *big.Int block number) to the narrower, test-friendly ContractCaller
// interface above.
type ethclientCaller struct {
	client *ethclient.Client
}

func (c *ethclientCaller) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber interface{}) ([]byte, error) {
	return c.client.CallContract(ctx, call, nil)
}

func dialEthclient(ctx context.Context, url string) (ContractCaller, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return &ethclientCaller{client: client}, nil
}

// dialRpcProvider dials a named setup.rpc_providers entry according to
// its declared transport and auth combination, mirroring the seven
// RpcProvider variants the original rpc_provider.rs deserializer
// constructs (minus the unused Quorum variant). Basic and bearer auth
// are both carried as an Authorization header via rpc.WithHeader, which
// applies to both HTTP and Websocket transports alike.
func dialRpcProvider(ctx context.Context, provider playbook.RpcProviderConfig) (ContractCaller, error) {
	var (
		rpcClient *rpc.Client
		err       error
	)
	switch provider.ProviderType {
	case playbook.RpcProviderHttp, playbook.RpcProviderWebsocket, "":
		rpcClient, err = rpc.DialContext(ctx, provider.ChainRpcURL)
	case playbook.RpcProviderHttpWithBasicAuth, playbook.RpcProviderWebsocketWithBasicAuth:
		creds := base64.StdEncoding.EncodeToString([]byte(provider.Username + ":" + provider.Password))
		rpcClient, err = rpc.DialOptions(ctx, provider.ChainRpcURL, rpc.WithHeader("Authorization", "Basic "+creds))
	case playbook.RpcProviderHttpWithBearerAuth, playbook.RpcProviderWebsocketWithBearerAuth:
		rpcClient, err = rpc.DialOptions(ctx, provider.ChainRpcURL, rpc.WithHeader("Authorization", "Bearer "+provider.Bearer))
	case playbook.RpcProviderIpc:
		rpcClient, err = rpc.DialIPC(ctx, provider.ChainRpcURL)
	default:
		return nil, errors.Errorf("unsupported rpc provider type %q", provider.ProviderType)
	}
	if err != nil {
		return nil, err
	}
	return &ethclientCaller{client: ethclient.NewClient(rpcClient)}, nil
}

func newCallContractStep(cfg playbook.StepConfig) (Step, error) {
	rpcURL, hasURL := cfg.Arguments["chain_rpc_url"].(string)
	providerName, hasProvider := cfg.Arguments["rpc_provider"].(string)
	if (!hasURL || rpcURL == "") && (!hasProvider || providerName == "") {
		return nil, errors.New("CallContract step requires either a non-empty chain_rpc_url or rpc_provider argument")
	}

	addrRaw, ok := cfg.Arguments["contract_address"].(string)
	if !ok || !common.IsHexAddress(addrRaw) {
		return nil, errors.Errorf("CallContract step requires a valid contract_address argument, got %v", cfg.Arguments["contract_address"])
	}

	sig, ok := cfg.Arguments["function_signature"].(string)
	if !ok || sig == "" {
		return nil, errors.New("CallContract step requires a non-empty function_signature argument")
	}

	args, err := parseFunctionArguments(cfg.Arguments["function_arguments"])
	if err != nil {
		return nil, errors.Wrap(err, "parsing function_arguments")
	}

	returnTypes, err := parseFunctionReturnTypes(cfg.Arguments["function_return_types"])
	if err != nil {
		return nil, errors.Wrap(err, "parsing function_return_types")
	}

	return &CallContractStep{
		chainRpcURL:         rpcURL,
		rpcProviderName:     providerName,
		contractAddress:     common.HexToAddress(addrRaw),
		functionSig:         sig,
		functionArgs:        args,
		functionReturnTypes: returnTypes,
		dialFunc:            dialEthclient,
		dialProviderFunc:    dialRpcProvider,
	}, nil
}

// parseFunctionReturnTypes parses the optional `function_return_types`
// list of type declarations. When declared, CallContract ABI-decodes the
// call result against these types instead of returning raw bytes,
// mirroring the original CallContractInput.return_data_types field.
func parseFunctionReturnTypes(raw interface{}) ([]values.Type, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, errors.Errorf("function_return_types must be a list, got %T", raw)
	}
	out := make([]values.Type, len(items))
	for i, item := range items {
		typeStr, ok := item.(string)
		if !ok {
			return nil, errors.Errorf("function_return_types[%d] must be a type string, got %T", i, item)
		}
		typ, err := values.ParseType(typeStr)
		if err != nil {
			return nil, errors.Wrapf(err, "function_return_types[%d]", i)
		}
		out[i] = typ
	}
	return out, nil
}

// parseFunctionArguments parses the `function_arguments` list, each
// entry shaped as `{type: <type decl>, value: <literal>}`, mirroring the
// original playbook config's CallContract arguments block.
func parseFunctionArguments(raw interface{}) ([]values.Value, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, errors.Errorf("function_arguments must be a list, got %T", raw)
	}
	out := make([]values.Value, len(items))
	for i, item := range items {
		entry, ok := item.(map[interface{}]interface{})
		if !ok {
			entry2, ok2 := item.(map[string]interface{})
			if !ok2 {
				return nil, errors.Errorf("function_arguments[%d] must be a mapping", i)
			}
			typ, err := values.ParseType(entry2["type"].(string))
			if err != nil {
				return nil, errors.Wrapf(err, "function_arguments[%d].type", i)
			}
			v, err := values.ParseValue(typ, entry2["value"])
			if err != nil {
				return nil, errors.Wrapf(err, "function_arguments[%d].value", i)
			}
			out[i] = v
			continue
		}
		typeStr, _ := entry["type"].(string)
		typ, err := values.ParseType(typeStr)
		if err != nil {
			return nil, errors.Wrapf(err, "function_arguments[%d].type", i)
		}
		v, err := values.ParseValue(typ, entry["value"])
		if err != nil {
			return nil, errors.Wrapf(err, "function_arguments[%d].value", i)
		}
		out[i] = v
	}
	return out, nil
}

// buildCalldata mirrors CallContractInput::build_calldata: the four-byte
// Keccak256 function selector followed by the concatenated ABI encoding
// of every argument, in declaration order.
func buildCalldata(signature string, args []values.Value) ([]byte, error) {
	selector := crypto.Keccak256([]byte(signature))[:4]
	calldata := make([]byte, len(selector))
	copy(calldata, selector)
	for i, arg := range args {
		encoded, err := arg.Encode()
		if err != nil {
			return nil, errors.Wrapf(err, "encoding argument %d of %s", i, signature)
		}
		calldata = append(calldata, encoded...)
	}
	return calldata, nil
}

func (s *CallContractStep) Execute(ctx context.Context, pctx *playbook.Context) (Output, error) {
	calldata, err := buildCalldata(s.functionSig, s.functionArgs)
	if err != nil {
		return Output{}, err
	}

	var caller ContractCaller
	if s.rpcProviderName != "" {
		if pctx == nil {
			return Output{}, errors.Errorf("rpc provider %q requires a playbook context", s.rpcProviderName)
		}
		provider, ok := pctx.RpcProvider(s.rpcProviderName)
		if !ok {
			return Output{}, errors.Errorf("rpc provider %q not declared in setup.rpc_providers", s.rpcProviderName)
		}
		caller, err = s.dialProviderFunc(ctx, provider)
		if err != nil {
			return Output{}, errors.Wrapf(err, "dialing rpc provider %q", s.rpcProviderName)
		}
	} else {
		caller, err = s.dialFunc(ctx, s.chainRpcURL)
		if err != nil {
			return Output{}, errors.Wrapf(err, "dialing %s", redactURL(s.chainRpcURL))
		}
	}

	result, err := caller.CallContract(ctx, ethereum.CallMsg{
		To:   &s.contractAddress,
		Data: calldata,
	}, nil)
	if err != nil {
		return Output{}, errors.Wrap(err, "eth_call failed")
	}

	if len(s.functionReturnTypes) > 0 {
		tokens, err := values.Decode(s.functionReturnTypes, result)
		if err != nil {
			return Output{}, errors.Wrap(err, "decoding return data")
		}
		return TokensOutput(tokens), nil
	}

	return BytesOutput(result), nil
}

// redactURL strips basic-auth userinfo before the URL is used in a log
// message or wrapped error.
func redactURL(url string) string {
	if idx := strings.Index(url, "@"); idx >= 0 {
		if schemeIdx := strings.Index(url, "://"); schemeIdx >= 0 && schemeIdx < idx {
			return url[:schemeIdx+3] + "***" + url[idx:]
		}
	}
	return url
}
