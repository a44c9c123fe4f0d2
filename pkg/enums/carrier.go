package enums

import (
	"fmt"
	"strings"
)

// Carrier identifies a shipping provider for tracking-number assignment.
type Carrier string

const (
	CarrierLBC      Carrier = "LBC"
	CarrierJRS      Carrier = "JRS"
	CarrierAirspeed Carrier = "AIRSPEED"
	CarrierLalamove Carrier = "LALAMOVE"
)

var validCarriers = []Carrier{
	CarrierLBC,
	CarrierJRS,
	CarrierAirspeed,
	CarrierLalamove,
}

func (c Carrier) String() string {
	return string(c)
}

// IsValid reports whether the value is a known Carrier.
func (c Carrier) IsValid() bool {
	for _, candidate := range validCarriers {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCarrier converts raw input into a Carrier, case-insensitively.
func ParseCarrier(value string) (Carrier, error) {
	normalized := Carrier(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid carrier %q", value)
}
