package model

// Role はユーザーに割り当てられるロールを表す。
// user_rolesテーブルにユーザーIDごとに0行以上格納される。
type Role string

const (
	// RoleUser は一般ユーザー。行が存在しない場合と同じ権限を持つ。
	RoleUser Role = "user"
	// RoleModerator は番組・記事を管理するモデレーター。
	RoleModerator Role = "moderator"
	// RoleAdmin は全権限を持つ管理者。モデレーター権限を暗黙に含む。
	RoleAdmin Role = "admin"
)

// ParseRole は文字列をRoleに変換する。未知の値はfalseを返す。
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleModerator, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// RoleSet はユーザーが保持するロールの集合を表す。
// 重複行はセット意味論で吸収される。
type RoleSet map[Role]struct{}

// NewRoleSet は指定ロールからRoleSetを生成する。
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Has は指定ロールを保持しているかを返す。
func (s RoleSet) Has(role Role) bool {
	_, ok := s[role]
	return ok
}

// IsAdmin はadminロールを保持しているかを返す。
// RoleSetから導出される値であり、独立に保存してはならない。
func (s RoleSet) IsAdmin() bool {
	return s.Has(RoleAdmin)
}

// IsModerator はモデレーター権限を持つかを返す。
// adminは暗黙にモデレーター権限を持つ。
func (s RoleSet) IsModerator() bool {
	return s.Has(RoleAdmin) || s.Has(RoleModerator)
}

// Clone はRoleSetの独立したコピーを返す。
func (s RoleSet) Clone() RoleSet {
	c := make(RoleSet, len(s))
	for r := range s {
		c[r] = struct{}{}
	}
	return c
}

// Values はロールを[]Roleとして返す。順序は保証しない。
func (s RoleSet) Values() []Role {
	roles := make([]Role, 0, len(s))
	for r := range s {
		roles = append(roles, r)
	}
	return roles
}
