package domain

import "strconv"

// MaxInstances caps how many instances may be on the table at once.
const MaxInstances = 3

type InstanceID int64

func (id InstanceID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Instance is one persona seat. Persona.Prompt may diverge from the catalog
// entry once the user edits it.
type Instance struct {
	ID      InstanceID
	Persona Persona
}
