package config

import (
	"regexp"

	"github.com/opencatalog/powerbi-connector/pkg/pbierrors"
)

// AllowDenyPattern filters candidate strings through ordered lists of regular
// expressions. A candidate is allowed iff it matches at least one pattern in
// Allow and no pattern in Deny. An empty Allow list allows nothing, which is
// distinct from the canonical allow-everything default.
type AllowDenyPattern struct {
	Allow []string `yaml:"allow" json:"allow"`
	Deny  []string `yaml:"deny" json:"deny"`

	allowRe []*regexp.Regexp
	denyRe  []*regexp.Regexp
}

// AllowAll returns the canonical allow-everything pattern. Structural
// equality against this value is how normalization distinguishes "unset"
// from "explicitly customized".
func AllowAll() AllowDenyPattern {
	return AllowDenyPattern{Allow: []string{".*"}, Deny: []string{}}
}

// IsAllowAll reports whether p is structurally equal to the canonical
// allow-everything pattern.
func (p AllowDenyPattern) IsAllowAll() bool {
	return p.Equal(AllowAll())
}

// Equal reports structural equality of the allow and deny lists, order
// included.
func (p AllowDenyPattern) Equal(o AllowDenyPattern) bool {
	if len(p.Allow) != len(o.Allow) || len(p.Deny) != len(o.Deny) {
		return false
	}
	for i, s := range p.Allow {
		if o.Allow[i] != s {
			return false
		}
	}
	for i, s := range p.Deny {
		if o.Deny[i] != s {
			return false
		}
	}
	return true
}

// Compile validates and compiles every pattern. It is idempotent and must
// succeed before Allowed is used.
func (p *AllowDenyPattern) Compile() error {
	allowRe := make([]*regexp.Regexp, 0, len(p.Allow))
	for _, expr := range p.Allow {
		re, err := regexp.Compile(expr)
		if err != nil {
			return pbierrors.Wrap(err, pbierrors.ErrorTypeValidation, "invalid allow pattern").
				WithDetail("pattern", expr)
		}
		allowRe = append(allowRe, re)
	}

	denyRe := make([]*regexp.Regexp, 0, len(p.Deny))
	for _, expr := range p.Deny {
		re, err := regexp.Compile(expr)
		if err != nil {
			return pbierrors.Wrap(err, pbierrors.ErrorTypeValidation, "invalid deny pattern").
				WithDetail("pattern", expr)
		}
		denyRe = append(denyRe, re)
	}

	p.allowRe = allowRe
	p.denyRe = denyRe
	return nil
}

// Allowed reports whether s matches some allow pattern and no deny pattern.
// Patterns that were not compiled yet are compiled on first use; invalid
// patterns deny everything, so callers should Compile during validation to
// surface bad expressions early.
func (p *AllowDenyPattern) Allowed(s string) bool {
	if p.allowRe == nil && p.denyRe == nil {
		if err := p.Compile(); err != nil {
			return false
		}
	}

	for _, re := range p.denyRe {
		if re.MatchString(s) {
			return false
		}
	}
	for _, re := range p.allowRe {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
