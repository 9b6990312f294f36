package id

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	sdkerr "github.com/ggonzalez94/xswap-sdk/internal/errors"
	"github.com/holiman/uint256"
)

var decimalPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// NormalizeAmount accepts either a base-unit integer or a decimal string and returns both
// forms. flag names the CLI flag pair in error messages.
func NormalizeAmount(flag, baseUnits, decimal string, decimals int) (string, string, error) {
	if baseUnits != "" && decimal != "" {
		return "", "", sdkerr.New(sdkerr.CodeUsage, fmt.Sprintf("use either --%s or --%s-decimal, not both", flag, flag))
	}
	if baseUnits == "" && decimal == "" {
		return "", "", sdkerr.New(sdkerr.CodeUsage, fmt.Sprintf("--%s is required", flag))
	}
	if decimals < 0 {
		return "", "", sdkerr.New(sdkerr.CodeUsage, "decimals must be >= 0")
	}

	if baseUnits != "" {
		if strings.HasPrefix(baseUnits, "-") {
			return "", "", sdkerr.New(sdkerr.CodeUsage, fmt.Sprintf("--%s must be non-negative", flag))
		}
		n, ok := new(big.Int).SetString(baseUnits, 10)
		if !ok {
			return "", "", sdkerr.New(sdkerr.CodeUsage, fmt.Sprintf("--%s must be an integer string", flag))
		}
		if err := checkUint256(n); err != nil {
			return "", "", err
		}
		return n.String(), formatDecimal(n.String(), decimals), nil
	}

	if !decimalPattern.MatchString(decimal) {
		return "", "", sdkerr.New(sdkerr.CodeUsage, fmt.Sprintf("--%s-decimal must be in decimal form like 1.23", flag))
	}
	base, err := decimalToBaseUnits(decimal, decimals)
	if err != nil {
		return "", "", err
	}
	return base, normalizeDecimal(decimal), nil
}

func checkUint256(n *big.Int) error {
	if _, overflow := uint256.FromBig(n); overflow {
		return sdkerr.New(sdkerr.CodeInvalidAmount, "amount exceeds uint256")
	}
	return nil
}

func formatDecimal(baseUnits string, decimals int) string {
	n := new(big.Int)
	n.SetString(baseUnits, 10)
	if decimals == 0 {
		return n.String()
	}

	s := n.String()
	if len(s) <= decimals {
		pad := strings.Repeat("0", decimals-len(s)+1)
		s = pad + s
	}
	intPart := s[:len(s)-decimals]
	fracPart := s[len(s)-decimals:]
	fracPart = strings.TrimRight(fracPart, "0")
	if fracPart == "" {
		return intPart
	}
	return intPart + "." + fracPart
}

func decimalToBaseUnits(decimal string, decimals int) (string, error) {
	parts := strings.SplitN(decimal, ".", 2)
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if len(fracPart) > decimals {
		return "", sdkerr.New(sdkerr.CodeUsage, fmt.Sprintf("decimal precision exceeds token decimals (%d)", decimals))
	}

	fracPart = fracPart + strings.Repeat("0", decimals-len(fracPart))
	combined := intPart + fracPart
	combined = strings.TrimLeft(combined, "0")
	if combined == "" {
		return "0", nil
	}
	n, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return "", sdkerr.New(sdkerr.CodeUsage, "invalid decimal amount")
	}
	if err := checkUint256(n); err != nil {
		return "", err
	}
	return combined, nil
}

func normalizeDecimal(v string) string {
	if !strings.Contains(v, ".") {
		out := strings.TrimLeft(v, "0")
		if out == "" {
			return "0"
		}
		return out
	}
	parts := strings.SplitN(v, ".", 2)
	intPart := strings.TrimLeft(parts[0], "0")
	if intPart == "" {
		intPart = "0"
	}
	fracPart := strings.TrimRight(parts[1], "0")
	if fracPart == "" {
		return intPart
	}
	return intPart + "." + fracPart
}
