package access

// Actor is the authenticated caller. Roles come from the token and are not
// re-read during a request.
type Actor struct {
	ID    string
	Roles []string
}

// Decision is what the guard resolved for a request.
type Decision struct {
	Resource   string
	Action     Action
	Possession Possession
	ActorID    string
	Grant      Grant
}

func (d Decision) Granted() bool {
	return d.Grant.Granted
}

func (d Decision) IsAny() bool {
	return d.Possession == Any
}

// Owns checks a record's owner id against the actor. Any possession owns
// everything; own possession requires the owner field to match.
func (d Decision) Owns(ownerID string) bool {
	if d.Possession == Any {
		return true
	}
	if d.Possession != Own {
		return false
	}
	if _, ok := OwnerField(d.Resource); !ok {
		return false
	}
	return ownerID != "" && ownerID == d.ActorID
}

// OwnsPtr is Owns for nullable owner columns.
func (d Decision) OwnsPtr(ownerID *string) bool {
	if ownerID == nil {
		return d.Possession == Any
	}
	return d.Owns(*ownerID)
}

// Scope returns the owner id lists must be restricted to, if any.
func (d Decision) Scope() (string, bool) {
	if d.Possession == Own {
		return d.ActorID, true
	}
	return "", false
}
