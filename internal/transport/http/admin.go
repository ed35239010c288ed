package http

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"csv-quiz-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const adminCookie = "quiz_admin"

// AdminAuth is the fixed-credential gate in front of the admin pages. A
// successful login is remembered in a signed HS256 cookie.
type AdminAuth struct {
	username     string
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	secure       bool
	now          func() time.Time
}

type adminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewAdminAuth builds the gate. An empty passwordHash disables admin login.
func NewAdminAuth(username, passwordHash, secret string, ttl time.Duration, secureCookie bool) *AdminAuth {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &AdminAuth{
		username:     username,
		passwordHash: []byte(passwordHash),
		secret:       []byte(secret),
		ttl:          ttl,
		secure:       secureCookie,
		now:          time.Now,
	}
}

// Enabled reports whether any credentials are configured.
func (a *AdminAuth) Enabled() bool {
	return len(a.passwordHash) > 0 && len(a.secret) > 0
}

// Verify checks a username/password pair.
func (a *AdminAuth) Verify(username, password string) bool {
	if !a.Enabled() {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
	return userOK && passOK
}

// Issue signs a fresh admin token.
func (a *AdminAuth) Issue() (string, error) {
	now := a.now()
	claims := &adminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "csv-quiz-service",
			Subject:   a.username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Valid reports whether token is a live admin token signed by us.
func (a *AdminAuth) Valid(token string) bool {
	if !a.Enabled() || token == "" {
		return false
	}
	claims := &adminClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		return false
	}
	return claims.Role == "admin" && claims.Subject == a.username
}

// Require redirects requests without a valid admin cookie to the login page.
func (a *AdminAuth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(adminCookie)
		if err != nil || !a.Valid(c.Value) {
			redirect(w, r, "/admin/login")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *AdminAuth) setCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookie,
		Value:    token,
		Path:     "/admin",
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	})
}

type loginPage struct {
	Error string
}

type dashboardPage struct {
	Notice   string
	Error    string
	Stats    []domain.WrongAnswerStat
	Attempts []domain.Attempt
}

func (h *Handler) AdminLoginForm(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(adminCookie); err == nil && h.admin.Valid(c.Value) {
		redirect(w, r, "/admin/dashboard")
		return
	}
	h.render(w, http.StatusOK, "admin_login.html", loginPage{})
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	if !h.admin.Enabled() {
		h.render(w, http.StatusForbidden, "admin_login.html", loginPage{Error: "管理功能未啟用"})
		return
	}
	if !h.admin.Verify(r.FormValue("username"), r.FormValue("password")) {
		h.render(w, http.StatusUnauthorized, "admin_login.html", loginPage{Error: "帳號或密碼錯誤"})
		return
	}
	token, err := h.admin.Issue()
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.admin.setCookie(w, token, int(h.admin.ttl.Seconds()))
	redirect(w, r, "/admin/dashboard")
}

func (h *Handler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	h.admin.setCookie(w, "", -1)
	redirect(w, r, "/admin/login")
}

func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	page := dashboardPage{
		Notice: r.URL.Query().Get("notice"),
		Error:  r.URL.Query().Get("error"),
	}

	stats, err := h.service.WrongAnswerStats(r.Context())
	switch {
	case errors.Is(err, domain.ErrQuestionBankMissing), errors.Is(err, domain.ErrQuestionBankMalformed):
		if page.Error == "" {
			page.Error = err.Error()
		}
	case err != nil:
		h.serverError(w, r, err)
		return
	}
	page.Stats = stats

	attempts, err := h.service.RecentAttempts(r.Context(), 20)
	if err != nil {
		// the archive is optional; the dashboard still works without it
		log.Printf("recent attempts: %v", err)
	}
	page.Attempts = attempts

	h.render(w, http.StatusOK, "admin_dashboard.html", page)
}

func (h *Handler) AdminUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.UploadLimit)
	if err := r.ParseMultipartForm(h.opts.UploadLimit); err != nil {
		redirect(w, r, "/admin/dashboard?"+url.Values{"error": {"上傳失敗：" + err.Error()}}.Encode())
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		redirect(w, r, "/admin/dashboard?"+url.Values{"error": {"請選擇題庫檔案"}}.Encode())
		return
	}
	defer file.Close()

	n, err := h.service.ReplaceQuestionBank(r.Context(), file)
	switch {
	case errors.Is(err, domain.ErrQuestionBankMalformed):
		redirect(w, r, "/admin/dashboard?"+url.Values{"error": {"題庫格式錯誤：" + err.Error()}}.Encode())
		return
	case err != nil:
		h.serverError(w, r, err)
		return
	}
	redirect(w, r, "/admin/dashboard?"+url.Values{"notice": {fmt.Sprintf("已匯入 %d 題", n)}}.Encode())
}

func (h *Handler) AdminExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ExportLeaderboard(r.Context(), &buf); err != nil {
		h.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="leaderboard.csv"`)
	_, _ = buf.WriteTo(w)
}
