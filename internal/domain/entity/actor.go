package entity

// ActorRole identifies who performs an action
type ActorRole string

// Actor roles
const (
	RoleAgent  ActorRole = "AGENT"
	RoleAdmin  ActorRole = "ADMIN"
	RoleSystem ActorRole = "SYSTEM"
)

// Actor is the authenticated caller of an operation
type Actor struct {
	ID   string
	Role ActorRole
}

// SystemActor is used by scheduled jobs
func SystemActor() Actor {
	return Actor{ID: "system", Role: RoleSystem}
}

// IsAdmin reports whether the actor has administrative rights
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSystem
}

// CanManage reports whether the actor may act on a claim owned by ownerID
func (a Actor) CanManage(ownerID string) bool {
	return a.IsAdmin() || (a.ID != "" && a.ID == ownerID)
}
