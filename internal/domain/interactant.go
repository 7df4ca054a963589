package domain

import (
	"encoding/json"
	"fmt"
)

// InteractantTag discriminates the six Interactant variants on the wire.
type InteractantTag string

const (
	TagMolecule    InteractantTag = "IMolecule"
	TagCatalyst    InteractantTag = "ICatalyst"
	TagAccelerate  InteractantTag = "IAccelerate"
	TagProductFrom InteractantTag = "IProductFrom"
	TagReagentIn   InteractantTag = "IReagentIn"
	TagReaction    InteractantTag = "IReaction"
)

// Interactant is a tagged union over six variants, encoded on the wire as
// {"tag": "<Variant>", "contents": <variant-specific>}. At most one of the
// payload fields is set, selected by Tag.
type Interactant struct {
	Tag         InteractantTag
	Molecule    *Molecule
	Catalyst    *Catalyst
	Accelerate  *Accelerate
	ProductFrom *ProductFrom
	ReagentIn   *ReagentIn
	Reaction    *Reaction
}

type interactantWire struct {
	Tag      InteractantTag  `json:"tag"`
	Contents json.RawMessage `json:"contents"`
}

// MarshalJSON emits the {"tag":...,"contents":...} envelope.
func (i Interactant) MarshalJSON() ([]byte, error) {
	var contents any
	switch i.Tag {
	case TagMolecule:
		contents = i.Molecule
	case TagCatalyst:
		contents = i.Catalyst
	case TagAccelerate:
		contents = i.Accelerate
	case TagProductFrom:
		contents = i.ProductFrom
	case TagReagentIn:
		contents = i.ReagentIn
	case TagReaction:
		contents = i.Reaction
	default:
		return nil, fmt.Errorf("domain: unknown interactant tag %q", i.Tag)
	}
	raw, err := json.Marshal(contents)
	if err != nil {
		return nil, err
	}
	return json.Marshal(interactantWire{Tag: i.Tag, Contents: raw})
}

// UnmarshalJSON decodes the {"tag":...,"contents":...} envelope. Unknown
// tags are a decoding error, not a silently-dropped variant.
func (i *Interactant) UnmarshalJSON(data []byte) error {
	var wire interactantWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	i.Tag = wire.Tag
	switch wire.Tag {
	case TagMolecule:
		var v Molecule
		if err := json.Unmarshal(wire.Contents, &v); err != nil {
			return err
		}
		i.Molecule = &v
	case TagCatalyst:
		var v Catalyst
		if err := json.Unmarshal(wire.Contents, &v); err != nil {
			return err
		}
		i.Catalyst = &v
	case TagAccelerate:
		var v Accelerate
		if err := json.Unmarshal(wire.Contents, &v); err != nil {
			return err
		}
		i.Accelerate = &v
	case TagProductFrom:
		var v ProductFrom
		if err := json.Unmarshal(wire.Contents, &v); err != nil {
			return err
		}
		i.ProductFrom = &v
	case TagReagentIn:
		var v ReagentIn
		if err := json.Unmarshal(wire.Contents, &v); err != nil {
			return err
		}
		i.ReagentIn = &v
	case TagReaction:
		var v Reaction
		if err := json.Unmarshal(wire.Contents, &v); err != nil {
			return err
		}
		i.Reaction = &v
	default:
		return fmt.Errorf("domain: unknown interactant tag %q", wire.Tag)
	}
	return nil
}
