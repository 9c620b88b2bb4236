package access

import (
	"crypto/subtle"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/petify/petify-api/internal/middleware"
)

type codeRequest struct {
	Code string `json:"code"`
}

type Handler struct {
	code   string
	secure bool
}

// NewHandler serves the access gate endpoints. secure adds the Secure
// attribute to the cookie and should be set in production.
func NewHandler(code string, secure bool) *Handler {
	return &Handler{code: code, secure: secure}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/api/access-code", h.SubmitCode)
	r.GET(middleware.UnlockPath, h.UnlockPage)
	r.GET(middleware.UnlockPath+"/unlock.js", h.UnlockScript)
}

func (h *Handler) SubmitCode(c *gin.Context) {
	if h.code == "" {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil || !h.matches(req.Code) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid access code"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessCookieName, middleware.AccessCookieValue,
		middleware.AccessCookieMaxAge, "/", "", h.secure, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) matches(code string) bool {
	return subtle.ConstantTimeCompare([]byte(code), []byte(h.code)) == 1
}

var unlockPage = template.Must(template.New("unlock").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Petify - Coming soon</title>
<style>
body{font-family:system-ui,sans-serif;display:flex;min-height:100vh;align-items:center;justify-content:center;margin:0;background:#f6f4ef}
form{background:#fff;padding:2rem;border-radius:12px;box-shadow:0 4px 20px rgba(0,0,0,.08);width:20rem}
input,button{width:100%;box-sizing:border-box;padding:.6rem;margin-top:.75rem;font-size:1rem}
#error{color:#b42318;min-height:1.2rem}
</style>
</head>
<body>
<form id="unlock" data-redirect="{{.Redirect}}">
<h1>Petify</h1>
<p>Enter the access code to continue.</p>
<input type="password" name="code" autocomplete="off" required>
<button type="submit">Unlock</button>
<p id="error"></p>
</form>
<script src="/unlock/unlock.js"></script>
</body>
</html>
`))

const unlockScript = `document.getElementById("unlock").addEventListener("submit", async function (e) {
  e.preventDefault();
  var form = e.target;
  var res = await fetch("/api/access-code", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({code: form.code.value})
  });
  if (res.ok) {
    window.location.assign(form.dataset.redirect || "/");
  } else {
    document.getElementById("error").textContent = "Invalid access code";
  }
});
`

// UnlockPage renders the code form. The redirect target is kept only when
// it is a local path.
func (h *Handler) UnlockPage(c *gin.Context) {
	redirect := c.Query("redirect")
	if !strings.HasPrefix(redirect, "/") || strings.HasPrefix(redirect, "//") {
		redirect = "/"
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	_ = unlockPage.Execute(c.Writer, struct{ Redirect string }{redirect})
}

func (h *Handler) UnlockScript(c *gin.Context) {
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", []byte(unlockScript))
}
