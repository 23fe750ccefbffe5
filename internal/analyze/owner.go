package analyze

// OwnerStatus is the decoded result of an owner() probe.
type OwnerStatus struct {
	HasOwnerFunction bool
	Owner            *string
	Renounced        bool
}

// DecodeOwnerStatus interprets a raw owner() return word. hasOwnerFn is
// false when the ABI never exposed an owner() function, in which case no
// call was attempted.
func DecodeOwnerStatus(hasOwnerFn bool, ownerHex string) OwnerStatus {
	if !hasOwnerFn {
		return OwnerStatus{HasOwnerFunction: false}
	}

	addr, err := DecodeLastAddress(ownerHex)
	if err != nil {
		return OwnerStatus{HasOwnerFunction: true}
	}

	status := OwnerStatus{HasOwnerFunction: true, Owner: &addr}
	status.Renounced = IsBurnSink(addr)
	return status
}
