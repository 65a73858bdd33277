// Package matching selects chat partners: a pure compatibility evaluator
// over gender/preference pairs, and a read-only matcher that scans the
// waiting pool. Nothing in this package creates or mutates state.
package matching

import "randomchat/backend/internal/models"

// Compatible reports whether two profiles may be paired. Both directions
// are validated independently: a's preference against b's gender AND b's
// preference against a's gender must hold.
func Compatible(a, b *models.User) bool {
	return accepts(a, b) && accepts(b, a)
}

// accepts checks one direction: does user's preference admit candidate's
// gender. An unset gender is a distinct value that satisfies no gender
// constraint, so a user without a gender only ever passes the any branch.
func accepts(user, candidate *models.User) bool {
	switch user.Preference {
	case models.PreferenceAny:
		// No gender constraint from this side. Deliberately no reverse
		// filtering either: an "any" requester takes anyone who accepts them.
		return true
	case models.PreferenceSame:
		return candidate.Gender.Valid() && candidate.Gender == user.Gender
	case models.PreferenceOpposite:
		want, ok := user.Gender.Opposite()
		return ok && candidate.Gender == want
	case models.PreferenceOther:
		return candidate.Gender == models.GenderOther
	default:
		return false
	}
}
