package enums

import "fmt"

// ActorKind identifies whose ledger a payment history entry belongs to.
type ActorKind string

const (
	ActorVendor   ActorKind = "vendor"
	ActorSeller   ActorKind = "seller"
	ActorCustomer ActorKind = "customer"
)

// IsValid reports whether the actor kind is known.
func (a ActorKind) IsValid() bool {
	switch a {
	case ActorVendor, ActorSeller, ActorCustomer:
		return true
	}
	return false
}

func (a ActorKind) String() string { return string(a) }

// ParseActorKind converts raw input into an ActorKind.
func ParseActorKind(value string) (ActorKind, error) {
	kind := ActorKind(value)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid actor kind %q", value)
	}
	return kind, nil
}
