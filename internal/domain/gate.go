package domain

// Gate identifies one of the lot's barrier gates.
type Gate string

const (
	GateEntry Gate = "ENTRY"
	GateExit  Gate = "EXIT"
)

// GateAction is an operator command for a barrier gate.
type GateAction string

const (
	GateActionOpen  GateAction = "OPEN"
	GateActionClose GateAction = "CLOSE"
)
