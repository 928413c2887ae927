package orbit

import "github.com/opensatcom/missionsim/sim"

func init() {
	sim.RegisterTrajectory("precomputed", newPrecomputed)
	sim.RegisterTrajectory("synthetic-pass", newSyntheticPass)
	sim.RegisterTrajectory("sgp4", newSGP4)
}
