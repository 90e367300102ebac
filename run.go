package hh

// Run steps n once per stimulus sample after the first and records every state.
// The returned trajectory has len(stim) states, the first one being the state of n on entry.
// n is left at the final state.
func Run(n *Neuron, stim Stimulus, dt float64) *Trajectory {
	traj := NewTrajectory(stim, dt)
	if len(stim) == 0 {
		return traj
	}
	traj.States = append(traj.States, n.State)
	for i := 1; i < len(stim); i++ {
		n.Step(stim[i], dt)
		traj.States = append(traj.States, n.State)
	}
	return traj
}

// Replay continues traj from the state recorded at index k-1, with the same stimulus and
// step, using the constants and policy of n. The state at k-1 is all the information the
// continuation needs: Replay(n, traj, k).States[j] equals traj.States[k-1+j].
func Replay(n *Neuron, traj *Trajectory, k int) *Trajectory {
	if k < 1 || k > traj.Len() {
		panic("replay index out of range")
	}
	c := n.Clone()
	c.State = traj.States[k-1]
	return Run(c, traj.Stimulus[k-1:], traj.Dt)
}
