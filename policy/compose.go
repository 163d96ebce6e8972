package policy

// Precedence selects how a list of Engines is combined into one Decision.
type Precedence string

const (
	// DenyOverrides: any deny among the profiles wins, regardless of order.
	DenyOverrides Precedence = "deny_overrides"
	// AllowOverrides: any explicit allow wins unless every profile denies.
	AllowOverrides Precedence = "allow_overrides"
	// FirstApplicable: the first profile to reach a non-neutral decision wins.
	FirstApplicable Precedence = "first_applicable"
)

// Check is one of an Engine's three boolean-resource operations, used to
// parameterize ComposeCheck over CanUseTool/CanReadPath/CanWritePath.
type Check func(*Engine, string) Decision

// ComposeCheck evaluates check across every engine in order and combines
// the results according to precedence. An empty engines list always allows.
func ComposeCheck(engines []*Engine, precedence Precedence, resource string, check Check) Decision {
	if len(engines) == 0 {
		return Allow()
	}

	switch precedence {
	case AllowOverrides:
		var lastDeny Decision
		sawAllow := false
		for _, e := range engines {
			d := check(e, resource)
			if d.Allowed {
				sawAllow = true
			} else {
				lastDeny = d
			}
		}
		if sawAllow {
			return Allow()
		}
		return lastDeny

	case FirstApplicable:
		for _, e := range engines {
			d := check(e, resource)
			if !d.Allowed {
				return d
			}
		}
		return Allow()

	case DenyOverrides:
		fallthrough
	default:
		for _, e := range engines {
			if d := check(e, resource); !d.Allowed {
				return d
			}
		}
		return Allow()
	}
}

// ComposeCanUseTool composes CanUseTool across engines under precedence.
func ComposeCanUseTool(engines []*Engine, precedence Precedence, name string) Decision {
	return ComposeCheck(engines, precedence, name, (*Engine).CanUseTool)
}

// ComposeCanReadPath composes CanReadPath across engines under precedence.
func ComposeCanReadPath(engines []*Engine, precedence Precedence, relPath string) Decision {
	return ComposeCheck(engines, precedence, relPath, (*Engine).CanReadPath)
}

// ComposeCanWritePath composes CanWritePath across engines under precedence.
func ComposeCanWritePath(engines []*Engine, precedence Precedence, relPath string) Decision {
	return ComposeCheck(engines, precedence, relPath, (*Engine).CanWritePath)
}
