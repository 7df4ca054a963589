package reaktoro

import "github.com/chemistflow/chemistflow/internal/domain"

// zipMoleculeAmounts builds the Molecule-name -> amount map a SystemState
// carries, by positionally zipping reaction.InboundReagents with
// amounts.InboundReagentAmounts and reaction.OutboundProducts with
// amounts.OutboundProductAmounts, each truncated to the shorter of the
// two lists.
func zipMoleculeAmounts(reaction domain.ReactionDetails, amounts domain.MoleculeAmountList) map[string]float64 {
	out := make(map[string]float64)

	n := domain.ZipShorterWins(len(reaction.InboundReagents), len(amounts.InboundReagentAmounts))
	for i := 0; i < n; i++ {
		out[reaction.InboundReagents[i].Molecule.Name] = amounts.InboundReagentAmounts[i]
	}

	m := domain.ZipShorterWins(len(reaction.OutboundProducts), len(amounts.OutboundProductAmounts))
	for i := 0; i < m; i++ {
		out[reaction.OutboundProducts[i].Molecule.Name] = amounts.OutboundProductAmounts[i]
	}

	return out
}

// buildSystemStates flattens every condition's Accelerate temperature/
// pressure pair into a SystemState, preserving the order conditions
// appear in reaction.Conditions and, within a condition, the order
// temperature/pressure entries are zipped.
func buildSystemStates(reaction domain.ReactionDetails, database domain.Database, moleculeAmounts map[string]float64) []domain.SystemState {
	var states []domain.SystemState
	for _, condition := range reaction.Conditions {
		accel := condition.Accelerate
		n := domain.ZipShorterWins(len(accel.Temperature), len(accel.Pressure))
		for i := 0; i < n; i++ {
			states = append(states, domain.SystemState{
				Temperature:     accel.Temperature[i],
				Pressure:        accel.Pressure[i],
				Database:        database,
				MoleculeAmounts: moleculeAmounts,
			})
		}
	}
	return states
}
