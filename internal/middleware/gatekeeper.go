package middleware

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"

	"github.com/chatqpt/chatqpt/internal/config"
	"github.com/chatqpt/chatqpt/internal/ctxkeys"
	"github.com/chatqpt/chatqpt/internal/model"
	"github.com/chatqpt/chatqpt/internal/service"
)

// RouteClass is the access class the gatekeeper resolves a path to.
type RouteClass int

const (
	RouteProtected RouteClass = iota // default: requires a valid session
	RoutePublic                      // no session check
	RouteAuthOnly                    // login/signup/reset pages; signed-in users bounce
	RouteAPIAuth                     // auth API surface, bypasses session checks
)

// RouteClassifier matches request paths against ordered pattern lists.
//
// Pattern forms follow the route-list syntax: a trailing `$` anchors an exact
// match (`/$`, `/auth/verify-email$`), `(.*)` marks a wildcard suffix
// (`/api/auth(.*)`), and a plain path matches itself and any subpath by
// prefix (`/terms`). Every pattern is implicitly anchored at the start.
type RouteClassifier struct {
	public  []*regexp.Regexp
	auth    []*regexp.Regexp
	apiAuth []*regexp.Regexp
}

func NewRouteClassifier(public, auth, apiAuth []string) (*RouteClassifier, error) {
	c := &RouteClassifier{}

	var err error
	c.public, err = compileRoutes(public)
	if err != nil {
		return nil, err
	}
	c.auth, err = compileRoutes(auth)
	if err != nil {
		return nil, err
	}
	c.apiAuth, err = compileRoutes(apiAuth)
	if err != nil {
		return nil, err
	}

	return c, nil
}

func compileRoutes(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("^" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid route pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Classify resolves the class of a path; first match wins, in the order
// api-auth, public, auth-only, then protected as the fallback.
func (c *RouteClassifier) Classify(path string) RouteClass {
	if matchesAny(c.apiAuth, path) {
		return RouteAPIAuth
	}
	if matchesAny(c.public, path) {
		return RoutePublic
	}
	if matchesAny(c.auth, path) {
		return RouteAuthOnly
	}
	return RouteProtected
}

func matchesAny(routes []*regexp.Regexp, path string) bool {
	for _, re := range routes {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// Gatekeeper classifies every request before its handler runs. Public and
// auth-API paths pass through untouched; all other paths resolve the session
// cookie through the session manager. Signed-in users are bounced off
// auth-only pages; signed-out users leave protected pages for the login page
// with a callbackUrl carrying their original destination.
func Gatekeeper(cfg *config.Config, classifier *RouteClassifier, sessions *service.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class := classifier.Classify(r.URL.Path)
			if class == RoutePublic || class == RouteAPIAuth {
				next.ServeHTTP(w, r)
				return
			}

			var session *model.Session
			var user *model.User
			cookie, err := r.Cookie(sessions.CookieName())
			if err == nil {
				session, user = sessions.Validate(cookie.Value)
				if session == nil {
					// Stale cookie: send a clearing directive along
					http.SetCookie(w, sessions.BlankCookie())
				} else if session.Fresh {
					http.SetCookie(w, sessions.Cookie(session))
				}
			}
			signedIn := session != nil

			if class == RouteAuthOnly {
				if signedIn {
					http.Redirect(w, r, cfg.DefaultLoginRedirect, http.StatusSeeOther)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if !signedIn {
				callbackURL := r.URL.Path
				if r.URL.RawQuery != "" {
					callbackURL += "?" + r.URL.RawQuery
				}
				target := "/auth/login?callbackUrl=" + url.QueryEscape(callbackURL)
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}

			ctx := ctxkeys.WithUser(r.Context(), user)
			ctx = ctxkeys.WithSession(ctx, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
