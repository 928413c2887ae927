// register.go wires the default evaluator into sim's provider lookup table.
// Importing sim/link (directly or blank) makes "default" resolvable by
// sim.NewLinkEvaluator.
package link

import "github.com/opensatcom/missionsim/sim"

func init() {
	sim.RegisterLinkEvaluator("default", newEvaluator)
}

func newEvaluator(params sim.Params) (sim.LinkEvaluator, error) {
	avail, err := params.Float("availability_target", 0.99)
	if err != nil {
		return nil, err
	}
	rho, err := params.Float("water_vapor_density_g_m3", 7.5)
	if err != nil {
		return nil, err
	}
	return Evaluator{Defaults: ModelDefaults{AvailabilityTarget: avail, WaterVaporDensityGM3: rho}}, nil
}
