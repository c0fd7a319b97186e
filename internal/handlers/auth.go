package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func (a *App) LoginGet(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, "login.html", nil)
}

func (a *App) LoginPost(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := a.Store.GetUserByUsername(r.Context(), username)
	if err != nil {
		slog.Error("Failed to look up user", "error", err)
		a.redirectWithFlash(w, r, "/login", FlashMessage{Type: "error", Message: "Internal Server Error"})
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		a.redirectWithFlash(w, r, "/login", FlashMessage{Type: "error", Message: "Invalid username or password"})
		return
	}

	session, _ := a.SessionStore.Get(r, sessionName)
	session.Values["authenticated"] = true
	session.Values["user_id"] = user.ID
	session.Values["username"] = user.Username
	session.AddFlash(FlashMessage{Type: "success", Message: "Welcome, " + user.Username + "!"})
	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session", "error", err)
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	slog.Info("Login successful", "user_id", user.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := a.SessionStore.Get(r, sessionName)
	session.Values["authenticated"] = false
	delete(session.Values, "user_id")
	delete(session.Values, "username")
	session.AddFlash(FlashMessage{Type: "success", Message: "Logged out successfully!"})
	session.Save(r, w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// RequireLogin ensures the user is logged in
func (a *App) RequireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := a.SessionStore.Get(r, sessionName)
		if auth, ok := session.Values["authenticated"].(bool); !ok || !auth {
			slog.Debug("Not authenticated, redirecting to /login", "path", r.URL.Path)
			if wantsJSON(r) {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"code": "UNAUTHENTICATED", "message": "Please log in again."})
				return
			}
			a.redirectWithFlash(w, r, "/login", FlashMessage{Type: "error", Message: "You must be logged in to access this page."})
			return
		}
		next(w, r)
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
