package knowledge

import (
	"errors"
	"fmt"
	"strings"
)

// Demand is the market demand label attached to a role.
type Demand int

const (
	DemandUnknown Demand = iota
	DemandModerate
	DemandHigh
	DemandVeryHigh
)

var demandNames = map[Demand]string{
	DemandModerate: "Moderate",
	DemandHigh:     "High",
	DemandVeryHigh: "Very High",
}

func (d Demand) String() string {
	if name, ok := demandNames[d]; ok {
		return name
	}
	return "Unknown"
}

// ParseDemand accepts the display form ("Very High") as well as the
// compact one ("VeryHigh"), case-insensitive.
func ParseDemand(s string) (Demand, error) {
	key := strings.ToLower(strings.Join(strings.Fields(s), ""))
	for d, name := range demandNames {
		if strings.ToLower(strings.ReplaceAll(name, " ", "")) == key {
			return d, nil
		}
	}
	return DemandUnknown, fmt.Errorf("unknown demand %q", s)
}

func (d Demand) MarshalText() ([]byte, error) {
	if _, ok := demandNames[d]; !ok {
		return nil, fmt.Errorf("unknown demand %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Demand) UnmarshalText(text []byte) error {
	parsed, err := ParseDemand(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Role is a job-role category together with the keywords that vote for it.
type Role struct {
	Name        string
	Keywords    []string
	Demand      Demand
	SalaryRange string
}

func (r Role) clone() Role {
	r.Keywords = append([]string(nil), r.Keywords...)
	return r
}

// Base is the read-only role and skill reference data. It is built once and
// never mutated afterwards, so a single value may be shared by any number of
// concurrent analyses.
type Base struct {
	roles       []Role
	skills      []string
	defaultRole string
	index       map[string]int
}

// New validates and copies the supplied data. Keywords and skill phrases are
// lower-cased; role and skill order is kept as given.
func New(roles []Role, skills []string, defaultRole string) (*Base, error) {
	if len(roles) == 0 {
		return nil, errors.New("at least one role is required")
	}

	b := &Base{
		roles: make([]Role, 0, len(roles)),
		index: make(map[string]int, len(roles)),
	}

	for i, role := range roles {
		name := strings.TrimSpace(role.Name)
		if name == "" {
			return nil, fmt.Errorf("role #%d: name is required", i)
		}
		if _, dup := b.index[name]; dup {
			return nil, fmt.Errorf("role %q: declared twice", name)
		}
		if _, ok := demandNames[role.Demand]; !ok {
			return nil, fmt.Errorf("role %q: unknown demand", name)
		}

		keywords := make([]string, 0, len(role.Keywords))
		for _, kw := range role.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				return nil, fmt.Errorf("role %q: empty keyword", name)
			}
			keywords = append(keywords, kw)
		}
		if len(keywords) == 0 {
			return nil, fmt.Errorf("role %q: at least one keyword is required", name)
		}

		b.index[name] = len(b.roles)
		b.roles = append(b.roles, Role{
			Name:        name,
			Keywords:    keywords,
			Demand:      role.Demand,
			SalaryRange: strings.TrimSpace(role.SalaryRange),
		})
	}

	defaultRole = strings.TrimSpace(defaultRole)
	if _, ok := b.index[defaultRole]; !ok {
		return nil, fmt.Errorf("default role %q is not a declared role", defaultRole)
	}
	b.defaultRole = defaultRole

	seen := make(map[string]struct{}, len(skills))
	b.skills = make([]string, 0, len(skills))
	for _, skill := range skills {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill == "" {
			return nil, errors.New("empty skill phrase")
		}
		if _, dup := seen[skill]; dup {
			return nil, fmt.Errorf("skill %q: declared twice", skill)
		}
		seen[skill] = struct{}{}
		b.skills = append(b.skills, skill)
	}

	return b, nil
}

// Roles returns the roles in declaration order.
func (b *Base) Roles() []Role {
	roles := make([]Role, 0, len(b.roles))
	for _, r := range b.roles {
		roles = append(roles, r.clone())
	}
	return roles
}

// Skills returns the lower-cased skill vocabulary in declaration order.
func (b *Base) Skills() []string {
	return append([]string(nil), b.skills...)
}

func (b *Base) Role(name string) (Role, bool) {
	idx, ok := b.index[name]
	if !ok {
		return Role{}, false
	}
	return b.roles[idx].clone(), true
}

// DefaultRole is the role reported when no keyword of any role matches.
func (b *Base) DefaultRole() Role {
	role, _ := b.Role(b.defaultRole)
	return role
}
