package domain

import dErrors "assetledger/pkg/domain-errors"

// Method identifies the sanitisation or destruction procedure applied during
// a transition. Transitions into WIPED accept wipe methods; transitions into
// DESTROYED accept destruction methods. The allowlists mirror the procedures
// the organisation is certified for.
type Method string

// Data sanitisation methods.
const (
	MethodWipeDoD3Pass    Method = "dod_5220_3pass"
	MethodWipeNIST80088   Method = "nist_800_88"
	MethodWipeBlancco     Method = "blancco_certified"
	MethodWipeNotRequired Method = "physical_destruction_only"
)

// Destruction methods.
const (
	MethodShredding   Method = "physical_shredding"
	MethodCrushing    Method = "crushing"
	MethodDegaussing  Method = "degauss_and_destroy"
	MethodDisassembly Method = "secure_disassembly"
)

var wipeMethods = map[Method]bool{
	MethodWipeDoD3Pass:    true,
	MethodWipeNIST80088:   true,
	MethodWipeBlancco:     true,
	MethodWipeNotRequired: true,
}

var destructionMethods = map[Method]bool{
	MethodShredding:   true,
	MethodCrushing:    true,
	MethodDegaussing:  true,
	MethodDisassembly: true,
}

// ParseWipeMethod validates a data sanitisation method.
func ParseWipeMethod(s string) (Method, error) {
	m := Method(s)
	if !wipeMethods[m] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid wipe method: "+s)
	}
	return m, nil
}

// ParseDestructionMethod validates a destruction method.
func ParseDestructionMethod(s string) (Method, error) {
	m := Method(s)
	if !destructionMethods[m] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid destruction method: "+s)
	}
	return m, nil
}

// IsWipeMethod reports whether the method is an approved sanitisation method.
func (m Method) IsWipeMethod() bool {
	return wipeMethods[m]
}

// IsDestructionMethod reports whether the method is an approved destruction method.
func (m Method) IsDestructionMethod() bool {
	return destructionMethods[m]
}

func (m Method) String() string {
	return string(m)
}
