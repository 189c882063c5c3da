package domain

// ActorContext describes who initiated a mutation. At most one of TechID
// and DispatcherID is set; neither set means the system acted.
type ActorContext struct {
	TechID       string `json:"tech_id,omitempty"`
	DispatcherID string `json:"dispatcher_id,omitempty"`
	Reason       string `json:"reason,omitempty"`
	IPAddress    string `json:"ip_address,omitempty"`
	UserAgent    string `json:"user_agent,omitempty"`
}

// SystemActor returns the actor used by background work.
func SystemActor(reason string) ActorContext {
	return ActorContext{Reason: reason}
}

// IsSystem reports whether no person is attributed.
func (a ActorContext) IsSystem() bool {
	return a.TechID == "" && a.DispatcherID == ""
}

// Ambiguous reports the contract violation of naming both actors.
func (a ActorContext) Ambiguous() bool {
	return a.TechID != "" && a.DispatcherID != ""
}

// TechPtr returns the technician id or nil.
func (a ActorContext) TechPtr() *string {
	if a.TechID == "" {
		return nil
	}
	id := a.TechID
	return &id
}

// DispatcherPtr returns the dispatcher id or nil.
func (a ActorContext) DispatcherPtr() *string {
	if a.DispatcherID == "" {
		return nil
	}
	id := a.DispatcherID
	return &id
}

// Label is a short display form used in logs.
func (a ActorContext) Label() string {
	switch {
	case a.TechID != "":
		return "tech:" + a.TechID
	case a.DispatcherID != "":
		return "dispatcher:" + a.DispatcherID
	default:
		return "system"
	}
}
