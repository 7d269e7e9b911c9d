package routes

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/haguru/myblog/internal/auth"
	"github.com/haguru/myblog/internal/models/dto"
	"github.com/haguru/myblog/internal/userservice"
	"github.com/haguru/myblog/pkg/helper"
)

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>Login</title></head>
<body>
<h1>Login</h1>
{{if .Failed}}<p class="error">Invalid username or password.</p>{{end}}
<form method="post" action="{{.Action}}">
  <label>Username <input type="text" name="username" autocomplete="username"></label>
  <label>Password <input type="password" name="password" autocomplete="current-password"></label>
  <button type="submit">Sign in</button>
</form>
</body>
</html>
`))

var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html>
<head><title>Home</title></head>
<body>
{{if .Username}}<p>Welcome, {{.Username}}!</p>{{else}}<p>Welcome! <a href="{{.LoginPage}}">Login</a></p>{{end}}
</body>
</html>
`))

type loginPageData struct {
	Action string
	Failed bool
}

type homePageData struct {
	Username  string
	LoginPage string
}

// LoginPage renders the login form. A request with an "error" query parameter
// shows the failed-login notice.
func (r *Route) LoginPage(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		r.errorResponse(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", req.Method), ErrMethodNotAllowed)
		return
	}
	r.render(w, loginTemplate, loginPageData{
		Action: r.FormLogin.ProcessingURL,
		Failed: req.URL.Query().Has("error"),
	})
}

// LoginProcess authenticates the submitted form. On success it sets the
// session cookie and redirects to the default success URL; on failure it
// redirects to the failure URL.
func (r *Route) LoginProcess(w http.ResponseWriter, req *http.Request) {
	funcName := helper.GetFuncName()

	if req.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		r.errorResponse(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", req.Method), ErrMethodNotAllowed)
		return
	}

	r.Metrics.IncCounter(LoginRequestsTotal)

	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	if err := req.ParseForm(); err != nil {
		r.Metrics.IncCounter(LoginFailedTotal)
		r.errorResponse(w, http.StatusBadRequest, err, ErrInvalidRequestBody)
		return
	}

	login := dto.LoginRequestDTO{
		Username: req.PostForm.Get(FormUsername),
		Password: req.PostForm.Get(FormPassword),
	}
	if err := r.validator.Struct(login); err != nil {
		r.Logger.Debug("Login form validation failed", "func", funcName, "error", err)
		r.Metrics.IncCounter(LoginFailedTotal)
		http.Redirect(w, req, r.FormLogin.FailureURL, http.StatusFound)
		return
	}

	startTime := time.Now()
	user, err := r.UserService.AuthenticateUser(req.Context(), login.Username, login.Password)
	r.Metrics.ObserveHistogram(LoginDurationSeconds, time.Since(startTime).Seconds())
	if err != nil {
		r.Metrics.IncCounter(LoginFailedTotal)
		if !errors.Is(err, userservice.ErrInvalidCredentials) {
			r.Logger.Error(ErrInvalidCredentials, "func", funcName, "user", login.Username, "error", err)
		}
		http.Redirect(w, req, r.FormLogin.FailureURL, http.StatusFound)
		return
	}

	sessionToken, err := auth.CreateToken(user.Username, r.Audience, r.PrivateKey, r.SessionTTL)
	if err != nil {
		r.Metrics.IncCounter(LoginFailedTotal)
		r.errorResponse(w, http.StatusInternalServerError, err, ErrFailedToGenerateToken)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    sessionToken,
		Path:     "/",
		MaxAge:   int(r.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   req.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	r.Metrics.IncCounter(LoginSuccessTotal)
	r.Logger.Info("User logged in", "func", funcName, "user", user.Username)
	http.Redirect(w, req, r.FormLogin.DefaultSuccessURL, http.StatusFound)
}

// Home renders the public landing page, greeting the caller when logged in.
func (r *Route) Home(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != HomeRouteAPI {
		http.NotFound(w, req)
		return
	}
	data := homePageData{LoginPage: r.FormLogin.LoginPage}
	if p := auth.PrincipalFrom(req.Context()); p != nil {
		data.Username = p.Username
	}
	r.render(w, homeTemplate, data)
}

func (r *Route) render(w http.ResponseWriter, tmpl *template.Template, data interface{}) {
	w.Header().Set(helper.ContentType, "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		r.Logger.Error(ErrFailedToRenderPage, "template", tmpl.Name(), "error", err)
	}
}
