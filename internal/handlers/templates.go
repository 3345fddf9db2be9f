package handlers

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/mozik-app/mozik/internal/logger"
)

// pageData feeds the embedded form templates.
type pageData struct {
	Error string
	Email string
	// Token parameterizes the reset form action.
	Token string
	// Action and Accept parameterize the shared upload form.
	Action string
	Accept string
}

const pageShell = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>mozik</title></head>
<body>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
%s
</body>
</html>`

func mustPage(body string) *template.Template {
	return template.Must(template.New("page").Parse(fmt.Sprintf(pageShell, body)))
}

var (
	signupPage = mustPage(`<h1>Sign up</h1>
<form method="post" action="/signup">
<input type="email" name="email" placeholder="email" value="{{.Email}}">
<input type="password" name="password" placeholder="password">
<button type="submit">Sign up</button>
</form>
<a href="/login">Log in</a>`)

	loginPage = mustPage(`<h1>Log in</h1>
<form method="post" action="/login">
<input type="email" name="email" placeholder="email" value="{{.Email}}">
<input type="password" name="password" placeholder="password">
<button type="submit">Log in</button>
</form>
<a href="/signup">Sign up</a> <a href="/forgot-password">Forgot password?</a>`)

	forgotPage = mustPage(`<h1>Reset your password</h1>
<form method="post" action="/forgot-password">
<input type="email" name="email" placeholder="email" value="{{.Email}}">
<button type="submit">Send reset link</button>
</form>`)

	forgotSentPage = mustPage(`<h1>Check your inbox</h1>
<p>If an account exists for that address, a reset link is on its way.</p>`)

	resetPage = mustPage(`<h1>Choose a new password</h1>
<p>Resetting password for {{.Email}}</p>
<form method="post" action="/reset-password/{{.Token}}">
<input type="password" name="password" placeholder="new password">
<input type="password" name="password_confirm" placeholder="confirm password">
<button type="submit">Set password</button>
</form>`)

	resetInvalidPage = mustPage(`<h1>Link not valid</h1>
<p>This reset link is invalid or has expired.</p>
<a href="/forgot-password">Request a new one</a>`)

	uploadPage = mustPage(`<h1>Create a mosaic</h1>
<form method="post" action="{{.Action}}" enctype="multipart/form-data">
<input type="file" name="file" accept="{{.Accept}}">
<input type="number" name="blur_strength" placeholder="blur strength">
<button type="submit">Upload</button>
</form>`)
)

func renderPage(w http.ResponseWriter, status int, tmpl *template.Template, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		logger.Log.Errorw("failed to render page", "err", err)
	}
}
