package domain

// roleRule denies an action for an (actor, target) role pair. A zero actor
// role matches any actor.
type roleRule struct {
	actor  Role
	target Role
	err    error
}

var kickRules = []roleRule{
	{target: RoleOwner, err: ErrCannotKickOwner},
	{actor: RoleAdmin, target: RoleAdmin, err: ErrAdminKickAdmin},
}

var changeRoleRules = []roleRule{
	{target: RoleOwner, err: ErrCannotChangeOwner},
}

func checkRules(rules []roleRule, actor, target Role) error {
	for _, rule := range rules {
		if rule.actor != "" && rule.actor != actor {
			continue
		}
		if rule.target != target {
			continue
		}
		return rule.err
	}
	return nil
}

// CheckKick reports whether actor may remove target from a team.
func CheckKick(actor, target Role) error {
	return checkRules(kickRules, actor, target)
}

// CheckChangeRole reports whether actor may change target's role.
func CheckChangeRole(actor, target Role) error {
	return checkRules(changeRoleRules, actor, target)
}

// CheckLeave reports whether a member with the given role may leave a team.
func CheckLeave(role Role) error {
	if role == RoleOwner {
		return ErrOwnerCannotLeave
	}
	return nil
}
