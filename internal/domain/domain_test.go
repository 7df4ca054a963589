package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteractantRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   Interactant
	}{
		{
			name: "molecule",
			in:   Interactant{Tag: TagMolecule, Molecule: &Molecule{MoleculeID: 1, Name: "H2O"}},
		},
		{
			name: "catalyst",
			in:   Interactant{Tag: TagCatalyst, Catalyst: &Catalyst{CatalystID: 2, Name: "Pt"}},
		},
		{
			name: "accelerate",
			in:   Interactant{Tag: TagAccelerate, Accelerate: &Accelerate{Temperature: []float64{300, 310}, Pressure: []float64{1, 1}}},
		},
		{
			name: "productFrom",
			in:   Interactant{Tag: TagProductFrom, ProductFrom: &ProductFrom{Amount: 2.5}},
		},
		{
			name: "reagentIn",
			in:   Interactant{Tag: TagReagentIn, ReagentIn: &ReagentIn{Amount: 1.5}},
		},
		{
			name: "reaction",
			in:   Interactant{Tag: TagReaction, Reaction: &Reaction{ReactionID: 9, ReactionName: "R9"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.in)
			require.NoError(t, err)

			var out Interactant
			require.NoError(t, json.Unmarshal(raw, &out))
			assert.Equal(t, tt.in, out)

			raw2, err := json.Marshal(out)
			require.NoError(t, err)
			assert.JSONEq(t, string(raw), string(raw2))
		})
	}
}

func TestInteractantUnknownTag(t *testing.T) {
	var out Interactant
	err := json.Unmarshal([]byte(`{"tag":"IBogus","contents":{}}`), &out)
	require.Error(t, err)
}

func TestZipShorterWins(t *testing.T) {
	assert.Equal(t, 2, ZipShorterWins(2, 5))
	assert.Equal(t, 3, ZipShorterWins(7, 3))
	assert.Equal(t, 0, ZipShorterWins(0, 4))
}

func TestReactionDetailsRoundTrip(t *testing.T) {
	details := ReactionDetails{
		Reaction: Reaction{ReactionID: 42, ReactionName: "R"},
		InboundReagents: []ReagentEntry{
			{ReagentIn: ReagentIn{Amount: 1}, Molecule: Molecule{MoleculeID: 1, Name: "A"}},
		},
		OutboundProducts: []ProductEntry{
			{ProductFrom: ProductFrom{Amount: 2}, Molecule: Molecule{MoleculeID: 2, Name: "B"}},
		},
		Conditions: []ConditionEntry{
			{
				Accelerate: Accelerate{Temperature: []float64{300}, Pressure: []float64{1}},
				Catalyst:   Catalyst{CatalystID: 1, Name: "Cat"},
			},
		},
	}

	raw, err := json.Marshal(details)
	require.NoError(t, err)

	var out ReactionDetails
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, details, out)
}
