package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// CallbackData is the canonical payload threaded through settlement
// callbacks so the payer knows which assets to source and on whose behalf.
type CallbackData struct {
	Token0 common.Address
	Token1 common.Address
	Payer  common.Address
}

var callbackArgs = abi.Arguments{
	{Name: "token0", Type: mustABIType("address")},
	{Name: "token1", Type: mustABIType("address")},
	{Name: "payer", Type: mustABIType("address")},
}

func mustABIType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return t
}

// PackCallbackData ABI-encodes the payload into the opaque bytes handed to
// settlement callbacks.
func PackCallbackData(d CallbackData) ([]byte, error) {
	data, err := callbackArgs.Pack(d.Token0, d.Token1, d.Payer)
	if err != nil {
		return nil, fmt.Errorf("pack callback data: %w", err)
	}
	return data, nil
}

// UnpackCallbackData decodes bytes produced by PackCallbackData.
func UnpackCallbackData(data []byte) (CallbackData, error) {
	values, err := callbackArgs.Unpack(data)
	if err != nil {
		return CallbackData{}, fmt.Errorf("unpack callback data: %w", err)
	}
	if len(values) != 3 {
		return CallbackData{}, fmt.Errorf("unpack callback data: want 3 values, got %d", len(values))
	}
	out := CallbackData{}
	var ok bool
	if out.Token0, ok = values[0].(common.Address); !ok {
		return CallbackData{}, fmt.Errorf("unpack callback data: token0 is not an address")
	}
	if out.Token1, ok = values[1].(common.Address); !ok {
		return CallbackData{}, fmt.Errorf("unpack callback data: token1 is not an address")
	}
	if out.Payer, ok = values[2].(common.Address); !ok {
		return CallbackData{}, fmt.Errorf("unpack callback data: payer is not an address")
	}
	return out, nil
}
