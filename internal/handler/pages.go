package handler

import (
	"fmt"
	"net/http"

	"github.com/chatqpt/chatqpt/internal/ctxkeys"
)

// pagesHandler serves the thin page shells the gatekeeper guards. The actual
// UI is rendered client-side; these exist so the route classes have targets.
type pagesHandler struct {
	appName string
}

func NewPagesHandler(appName string) *pagesHandler {
	return &pagesHandler{appName: appName}
}

func (h *pagesHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.page(w, "Welcome to "+h.appName)
}

func (h *pagesHandler) Chat(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	if user == nil {
		// Gatekeeper redirects before this point; belt and suspenders.
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	h.page(w, "Chat — signed in as "+user.Email)
}

func (h *pagesHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.page(w, "Sign in to "+h.appName)
}

func (h *pagesHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	h.page(w, "Reset your password")
}

func (h *pagesHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	h.page(w, "Choose a new password")
}

func (h *pagesHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	h.page(w, "Verify your email")
}

func (h *pagesHandler) Terms(w http.ResponseWriter, r *http.Request) {
	h.page(w, "Terms of Service")
}

func (h *pagesHandler) Privacy(w http.ResponseWriter, r *http.Request) {
	h.page(w, "Privacy Policy")
}

func (h *pagesHandler) page(w http.ResponseWriter, title string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!doctype html><html><head><title>%s</title></head><body><h1>%s</h1></body></html>", title, title)
}
