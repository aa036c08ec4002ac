package shield

// State tracks how far along bring-up the module is. It only moves
// forward during Start; StateFailed is terminal until the next Start.
type State uint32

const (
	// StateUnpowered means nothing is known about the module yet.
	StateUnpowered State = iota

	// StateAwaitingPower means the power control line was pulsed and the
	// driver is waiting for the module to indicate it is alive.
	StateAwaitingPower

	// StateConfiguring means the module answers AT commands and is being
	// given its base configuration.
	StateConfiguring

	// StateNetworkUnverified means the module is configured but the active
	// carrier profile has not been checked against the desired one.
	StateNetworkUnverified

	// StateNetworkConfiguring means the active carrier profile differed and
	// the desired network configuration is being written.
	StateNetworkConfiguring

	// StateRegistered means the module is attached to a usable network.
	StateRegistered

	// StateFailed means bring-up hit an unrecoverable error.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnpowered:
		return "unpowered"
	case StateAwaitingPower:
		return "awaiting-power"
	case StateConfiguring:
		return "configuring"
	case StateNetworkUnverified:
		return "network-unverified"
	case StateNetworkConfiguring:
		return "network-configuring"
	case StateRegistered:
		return "registered"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
