package chat

// Stage is the lead-capture position of a session. Each implementation
// carries only the answers known at that point, so a lead can only be
// built from AwaitingRequirement.
type Stage interface {
	String() string
	stage()
}

type Idle struct{}

type AwaitingName struct{}

type AwaitingEmail struct {
	Name string
}

type AwaitingRequirement struct {
	Name  string
	Email string
}

// Complete routes like Idle but never re-enters capture.
type Complete struct{}

func (Idle) String() string                { return "idle" }
func (AwaitingName) String() string        { return "awaiting_name" }
func (AwaitingEmail) String() string       { return "awaiting_email" }
func (AwaitingRequirement) String() string { return "awaiting_requirement" }
func (Complete) String() string            { return "complete" }

func (Idle) stage()                {}
func (AwaitingName) stage()        {}
func (AwaitingEmail) stage()       {}
func (AwaitingRequirement) stage() {}
func (Complete) stage()            {}
