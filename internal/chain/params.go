package chain

// =============================================================================
// Contract Parameters
// =============================================================================

// ContractParam is a typed argument for contract invocation.
type ContractParam struct {
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
}

// NewHash160Param creates a Hash160 parameter from a 0x-prefixed script hash.
func NewHash160Param(hash string) ContractParam {
	return ContractParam{Type: "Hash160", Value: hash}
}

// NewStringParam creates a String parameter.
func NewStringParam(value string) ContractParam {
	return ContractParam{Type: "String", Value: value}
}
