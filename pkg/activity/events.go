package activity

// ModuleCompiled describes the compilation of the module at path. meta
// carries member counts and the root flag.
func ModuleCompiled(path string, meta map[string]any) Event {
	return Event{Verb: VerbModuleCompiled, Module: path, Metadata: meta}
}

// MutationCommitted describes a successful commit of member on the module at
// path.
func MutationCommitted(path, member string, args []any) Event {
	return Event{Verb: VerbMutationCommitted, Module: path, Member: member, Args: args}
}

// ActionDispatched describes a dispatch of member on the module at path.
func ActionDispatched(path, member, dispatchID string, args []any) Event {
	return Event{Verb: VerbActionDispatched, Module: path, Member: member, DispatchID: dispatchID, Args: args}
}

// WithErr records err on the event.
func (e Event) WithErr(err error) Event {
	if err != nil {
		e.Err = err.Error()
	}
	return e
}

// ObjectType returns the kind of object the event refers to.
func (e Event) ObjectType() string {
	return e.Verb.ObjectType()
}

// ObjectID identifies the object the event refers to: the dispatch id for
// dispatches, the member for commits and the module path for compiles.
func (e Event) ObjectID() string {
	switch e.Verb {
	case VerbActionDispatched:
		if e.DispatchID != "" {
			return e.DispatchID
		}
		return e.Member
	case VerbMutationCommitted:
		return e.Member
	case VerbModuleCompiled:
		return e.Module
	default:
		return ""
	}
}

// Valid reports whether the event has a store verb and identifies its object.
func (e Event) Valid() bool {
	return e.ObjectType() != "" && e.ObjectID() != ""
}

// Data flattens the event payload for sinks that store a single map. Metadata
// keys never override module, member, dispatch_id, args or error.
func (e Event) Data() map[string]any {
	data := cloneMap(e.Metadata)
	set := func(key string, value any) {
		if data == nil {
			data = map[string]any{}
		}
		data[key] = value
	}
	if e.Module != "" {
		set("module", e.Module)
	}
	if e.Member != "" {
		set("member", e.Member)
	}
	if e.DispatchID != "" {
		set("dispatch_id", e.DispatchID)
	}
	if len(e.Args) > 0 {
		set("args", append([]any{}, e.Args...))
	}
	if e.Err != "" {
		set("error", e.Err)
	}
	return data
}
