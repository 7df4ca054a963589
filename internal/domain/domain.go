// Package domain defines ChemistFlow's opaque value types: the chemical
// entities the Preprocessor owns (Reaction, Mechanism, and their details)
// and the Engine's compute vocabulary (SystemState, SystemProps). Field
// semantics beyond id equality and the ordering invariants called out in
// individual doc comments are the Preprocessor's and Engine's concern —
// ChemistFlow forwards these shapes opaquely.
package domain

// ReactionID identifies a Reaction. The canonical wire form is an integer;
// an older string form exists upstream but is not supported here.
type ReactionID int

// MechanismID identifies a Mechanism.
type MechanismID int

// MoleculeID identifies a Molecule.
type MoleculeID int

// CatalystID identifies a Catalyst.
type CatalystID int

// StageID identifies a Stage.
type StageID int

// Molecule is carried opaquely; Name is the only field ChemistFlow itself
// reads, used as the positional-zip key in compute fan-out.
type Molecule struct {
	MoleculeID MoleculeID `json:"moleculeId"`
	Name       string     `json:"name"`
}

// Catalyst is carried opaquely.
type Catalyst struct {
	CatalystID CatalystID `json:"catalystId"`
	Name       string     `json:"name"`
}

// Stage is carried opaquely.
type Stage struct {
	StageID StageID `json:"stageId"`
	Name    string  `json:"name"`
}

// Reaction is the minimal reaction summary returned by create and used as
// the create request body.
type Reaction struct {
	ReactionID   ReactionID `json:"reactionId"`
	ReactionName string     `json:"reactionName"`
}

// ReagentIn carries the amount paired positionally with an inbound
// Molecule in ReactionDetails.InboundReagents.
type ReagentIn struct {
	Amount float64 `json:"amount"`
}

// ProductFrom carries the amount paired positionally with an outbound
// Molecule in ReactionDetails.OutboundProducts.
type ProductFrom struct {
	Amount float64 `json:"amount"`
}

// Accelerate carries parallel temperature/pressure arrays for one
// reaction condition. The two arrays are positional-zipped with
// shorter-wins semantics: mismatched lengths truncate rather than error.
type Accelerate struct {
	Temperature []float64 `json:"temperature"`
	Pressure    []float64 `json:"pressure"`
}

// ReagentEntry pairs an inbound reagent amount with its Molecule.
type ReagentEntry struct {
	ReagentIn ReagentIn `json:"reagentIn"`
	Molecule  Molecule  `json:"molecule"`
}

// ProductEntry pairs an outbound product amount with its Molecule.
type ProductEntry struct {
	ProductFrom ProductFrom `json:"productFrom"`
	Molecule    Molecule    `json:"molecule"`
}

// ConditionEntry pairs an Accelerate condition with the Catalyst it runs
// over. The order of ReactionDetails.Conditions fixes the order of the
// Engine calls a compute request issues; each condition contributes
// min(len(Temperature), len(Pressure)) of them.
type ConditionEntry struct {
	Accelerate Accelerate `json:"accelerate"`
	Catalyst   Catalyst   `json:"catalyst"`
}

// ReactionDetails is the full reaction record returned by the Preprocessor
// and cached under ReactionID. Order of InboundReagents, OutboundProducts,
// and Conditions is significant.
type ReactionDetails struct {
	Reaction         Reaction         `json:"reaction"`
	InboundReagents  []ReagentEntry   `json:"inboundReagents"`
	OutboundProducts []ProductEntry   `json:"outboundProducts"`
	Conditions       []ConditionEntry `json:"conditions"`
}

// Mechanism is the minimal mechanism summary.
type Mechanism struct {
	MechanismID      MechanismID `json:"mechanismId"`
	MechanismName    string      `json:"mechanismName"`
	MechanismType    string      `json:"mechanismType"`
	ActivationEnergy float64     `json:"activationEnergy"`
}

// Follow carries free-text description attached to a MechanismContext.
type Follow struct {
	Description string `json:"description"`
}

// MechanismContext pairs a Mechanism with its Follow description.
type MechanismContext struct {
	Mechanism Mechanism `json:"mechanism"`
	Follow    Follow    `json:"follow"`
}

// StageInteractants pairs a Stage with the Interactants active in it.
type StageInteractants struct {
	Stage        Stage         `json:"stage"`
	Interactants []Interactant `json:"interactants"`
}

// MechanismDetails is the full mechanism record returned by the
// Preprocessor and cached under MechanismID.
type MechanismDetails struct {
	MechanismContext  MechanismContext    `json:"mechanismContext"`
	StageInteractants []StageInteractants `json:"stageInteractants"`
}

// Database names an Engine thermodynamic database (e.g. "supcrt07").
type Database struct {
	Name string `json:"name"`
}

// SystemState is one (temperature, pressure, database, molecule-amounts)
// tuple sent to the Engine as a single compute sub-request.
type SystemState struct {
	Temperature     float64            `json:"temperature"`
	Pressure        float64            `json:"pressure"`
	Database        Database           `json:"database"`
	MoleculeAmounts map[string]float64 `json:"moleculeAmounts"`
}

// SystemProps is the opaque, Engine-computed thermodynamic property record,
// decoded from the Engine's JSON response body and re-encoded as-is (key
// order and number formatting are not preserved).
type SystemProps map[string]any

// MoleculeAmountList is the client-supplied per-reaction amount vectors
// used to build SystemState.MoleculeAmounts via positional zip.
type MoleculeAmountList struct {
	InboundReagentAmounts  []float64 `json:"inboundReagentAmounts"`
	OutboundProductAmounts []float64 `json:"outboundProductAmounts"`
}

// ZipShorterWins returns min(len(a), len(b)) and is the shared contract
// for every positional zip ChemistFlow performs: truncate to the shorter
// list, never error on length mismatch.
func ZipShorterWins(lenA, lenB int) int {
	if lenA < lenB {
		return lenA
	}
	return lenB
}
