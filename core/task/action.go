package task

import (
	"errors"
	"maps"
)

// ActionType is the lifecycle step a task performs. It is an open tag: workers define the
// actions they understand, and the constants below are only the common ones.
type ActionType string

const (
	ActionCreate     ActionType = "create"
	ActionConfirm    ActionType = "confirm"
	ActionBootstrap  ActionType = "bootstrap"
	ActionDelete     ActionType = "delete"
	ActionInstall    ActionType = "install"
	ActionConfigure  ActionType = "configure"
	ActionInitialize ActionType = "initialize"
	ActionStart      ActionType = "start"
	ActionStop       ActionType = "stop"
	ActionRemove     ActionType = "remove"
)

// TaskServiceAction says which service a task acts on, what it does to it, and through which
// automator. Fields carries automator specific parameters, such as a cookbook recipe.
type TaskServiceAction struct {
	Service   string            `json:"name"`
	Action    ActionType        `json:"action"`
	Automator string            `json:"automator"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Validate only checks that an action is named. Node level actions such as bootstrap carry no
// service, and the action itself is not interpreted here.
func (t TaskServiceAction) Validate() error {
	if t.Action == "" {
		return errors.New("service action has no action")
	}
	return nil
}

func (t TaskServiceAction) Equal(o TaskServiceAction) bool {
	return t.Service == o.Service &&
		t.Action == o.Action &&
		t.Automator == o.Automator &&
		maps.Equal(t.Fields, o.Fields)
}

func (t TaskServiceAction) clone() TaskServiceAction {
	t.Fields = maps.Clone(t.Fields)
	return t
}
