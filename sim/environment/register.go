package environment

import "github.com/opensatcom/missionsim/sim"

func init() {
	sim.RegisterEnvironment("static", newStatic)
	sim.RegisterEnvironment("rain-events", newRainEvents)
	sim.RegisterEnvironment("table", newTable)
}
