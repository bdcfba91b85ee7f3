package screening

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type rolesFilter struct {
	toggle
	roles map[string]struct{}
	names []string
}

// NewRoles creates a filter that keeps only documents classified into one of
// the configured roles. Role names compare case-insensitively.
func NewRoles() Filter {
	return &rolesFilter{}
}

func (f *rolesFilter) Name() string { return "roles" }

func (f *rolesFilter) Validate(cfg *Config) error {
	f.roles = make(map[string]struct{}, len(cfg.Roles))
	f.names = f.names[:0]
	for _, role := range cfg.Roles {
		role = strings.TrimSpace(role)
		if role == "" {
			return fmt.Errorf("empty role name")
		}
		f.roles[strings.ToLower(role)] = struct{}{}
		f.names = append(f.names, role)
	}
	return nil
}

func (f *rolesFilter) Apply(_ context.Context, deps Deps, r *Results) (*Results, Step, error) {
	initial := r.Len()
	if len(f.roles) == 0 {
		return r, Step{Initial: initial, Dropped: 0, Left: r.Len()}, nil
	}

	removed := r.RemoveIf(func(e *Entry) bool {
		if e.Failed() {
			return false
		}
		_, ok := f.roles[strings.ToLower(e.Result.Role)]
		return !ok
	})
	if len(removed) > 0 {
		deps.Logger.Info("excluding documents by role",
			zap.Strings("wanted_roles", f.names),
			zap.Strings("excluded_documents", removed),
			zap.Int("documents_left", r.Len()),
		)
	}

	return r, Step{Initial: initial, Dropped: len(removed), Left: r.Len()}, nil
}

func (f *rolesFilter) Status() Status {
	details := map[string]string{}
	if len(f.names) > 0 {
		details["roles"] = strings.Join(f.names, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
