package user

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// rank orders the closed role set. Anything missing from it is not a role.
var rank = map[Role]int{
	RoleUser:  1,
	RoleAdmin: 2,
}

func (r Role) IsValid() bool {
	_, ok := rank[r]
	return ok
}

// Satisfies reports whether r meets the required tier. ADMIN satisfies both
// tiers, USER only USER. Unknown roles satisfy nothing.
func (r Role) Satisfies(required Role) bool {
	have, ok := rank[r]
	if !ok {
		return false
	}

	need, ok := rank[required]
	if !ok {
		return false
	}

	return have >= need
}

func (r Role) String() string {
	return string(r)
}
