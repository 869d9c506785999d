package compose

import (
	"github.com/felixgeelhaar/statekit"
)

// State is the engine's position in a composition run.
type State string

const (
	StateIdle          State = stateIdle
	StateLoading       State = stateLoading
	StateScanning      State = stateScanning
	StateGraphBuilt    State = stateGraphBuilt
	StateSorted        State = stateSorted
	StateInstantiating State = stateInstantiating
	StateComplete      State = stateComplete
	StateFailed        State = stateFailed
)

// Untyped machine state ids.
const (
	stateIdle          = "idle"
	stateLoading       = "loading"
	stateScanning      = "scanning"
	stateGraphBuilt    = "graph-built"
	stateSorted        = "sorted"
	stateInstantiating = "instantiating"
	stateComplete      = "complete"
	stateFailed        = "failed"
)

// Event types for the engine state machine.
const (
	EventLoad        = "LOAD"
	EventLoaded      = "LOADED"
	EventLinked      = "LINKED"
	EventSorted      = "SORTED"
	EventInstantiate = "INSTANTIATE"
	EventFinish      = "FINISH"
	EventFail        = "FAIL"
)

// lifecycleContext is the statekit machine context. The engine keeps its run
// data itself, so the machine only tracks the state.
type lifecycleContext struct{}

type lifecycle struct {
	interp *statekit.Interpreter[lifecycleContext]
}

// newLifecycle builds the run state machine. Complete and failed have no
// outgoing transitions.
func newLifecycle() (*lifecycle, error) {
	machine, err := statekit.NewMachine[lifecycleContext]("bindery-compose-engine").
		WithInitial(stateIdle).
		WithContext(lifecycleContext{}).
		State(stateIdle).
		On(EventLoad).Target(stateLoading).
		On(EventFail).Target(stateFailed).Done().
		State(stateLoading).
		On(EventLoaded).Target(stateScanning).
		On(EventFail).Target(stateFailed).Done().
		State(stateScanning).
		On(EventLinked).Target(stateGraphBuilt).
		On(EventFail).Target(stateFailed).Done().
		State(stateGraphBuilt).
		On(EventSorted).Target(stateSorted).
		On(EventFail).Target(stateFailed).Done().
		State(stateSorted).
		On(EventInstantiate).Target(stateInstantiating).
		On(EventFinish).Target(stateComplete).
		On(EventFail).Target(stateFailed).Done().
		State(stateInstantiating).
		On(EventFinish).Target(stateComplete).
		On(EventFail).Target(stateFailed).Done().
		State(stateComplete).Done().
		State(stateFailed).Done().
		Build()
	if err != nil {
		return nil, err
	}

	interp := statekit.NewInterpreter(machine)
	interp.Start()
	return &lifecycle{interp: interp}, nil
}

func (l *lifecycle) send(event string) State {
	l.interp.Send(statekit.Event{Type: statekit.EventType(event)})
	return l.state()
}

func (l *lifecycle) state() State {
	return State(l.interp.State().Value)
}
