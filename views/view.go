package views

import (
	"bytes"
	"context"
	"net/http"

	"github.com/AdamBeresnev/hackathon-judging/internal/httputil"
	"github.com/AdamBeresnev/hackathon-judging/internal/middleware"
	users "github.com/AdamBeresnev/hackathon-judging/internal/user"
	"github.com/a-h/templ"
)

// Render writes the page only once it rendered completely, a failure answers
// with a 500 instead of half a page.
func Render(w http.ResponseWriter, r *http.Request, component templ.Component) {
	var buf bytes.Buffer
	if err := component.Render(r.Context(), &buf); err != nil {
		httputil.InternalServerError(w, "Failed to render page", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func GetUser(ctx context.Context) *users.User {
	return middleware.GetAuthenticatedUser(ctx)
}
