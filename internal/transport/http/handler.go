package http

import (
	"embed"
	"errors"
	"html/template"
	"log"
	"net"
	"net/http"
	"strconv"

	"jeopardy-service/internal/domain"
	"jeopardy-service/internal/game"

	"github.com/julienschmidt/httprouter"
	qrcode "github.com/skip2/go-qrcode"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler wires the game session into the HTTP surface: open contestant
// routes (register, buzz) and loopback-only admin routes (board, answer,
// reset, QR share link).
type Handler struct {
	session *game.Session
	tmpl    *template.Template
}

func NewHandler(session *game.Session) *Handler {
	return &Handler{
		session: session,
		tmpl:    template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

// Routes builds the router. All routes are GET; contestant actions are
// plain form submissions and the admin drives the game from browser links.
func (h *Handler) Routes() http.Handler {
	mux := httprouter.New()
	mux.GET("/", h.splash)
	mux.GET("/register", h.register)
	mux.GET("/buzzer", h.buzzer)
	mux.GET("/buzz", h.buzz)
	mux.GET("/answer", h.answer)
	mux.GET("/admin", h.admin)
	mux.GET("/qr", h.qr)
	mux.GET("/healthz", h.health)
	return mux
}

func (h *Handler) splash(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.render(w, "splash.html", nil)
}

func (h *Handler) buzzer(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.render(w, "buzzer.html", nil)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	name := r.URL.Query().Get("name")
	if err := h.session.Register(r.Context(), clientIP(r), name); err != nil {
		h.writeError(w, err)
		return
	}
	http.Redirect(w, r, "/buzzer", http.StatusTemporaryRedirect)
}

func (h *Handler) buzz(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if _, err := h.session.Buzz(r.Context(), clientIP(r)); err != nil {
		h.writeError(w, err)
		return
	}
	http.Redirect(w, r, "/buzzer", http.StatusTemporaryRedirect)
}

// answer is the combined admin surface for one board cell: it always
// reveals, and optionally overrides the point value and/or grades the
// active player in the same request.
func (h *Handler) answer(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := requireAdmin(r); err != nil {
		h.writeError(w, err)
		return
	}
	q := r.URL.Query()
	cat, catErr := strconv.Atoi(q.Get("c"))
	ans, ansErr := strconv.Atoi(q.Get("a"))
	if catErr != nil || ansErr != nil {
		h.writeError(w, domain.ErrIndexOutOfRange)
		return
	}

	if raw := q.Get("value"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			http.Error(w, "Invalid point value", http.StatusBadRequest)
			return
		}
		if err := h.session.SetAnswerValue(cat, ans, value); err != nil {
			h.writeError(w, err)
			return
		}
	}

	if raw := q.Get("rating"); raw != "" {
		rating, ok := domain.ParseRating(raw)
		if !ok {
			http.Error(w, "Invalid rating", http.StatusBadRequest)
			return
		}
		if err := h.session.Grade(cat, ans, rating); err != nil {
			h.writeError(w, err)
			return
		}
	}

	view, err := h.session.Reveal(cat, ans)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.render(w, "answer.html", view)
}

// admin applies any requested mutation, then renders the board snapshot.
func (h *Handler) admin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := requireAdmin(r); err != nil {
		h.writeError(w, err)
		return
	}
	q := r.URL.Query()

	if raw := q.Get("setstate"); raw != "" {
		code, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid state code", http.StatusBadRequest)
			return
		}
		h.session.SetStatus(code)
	}
	if raw := q.Get("player"); raw != "" {
		idx, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid player index", http.StatusBadRequest)
			return
		}
		h.session.SelectPlayer(idx)
	}
	if q.Get("clearbuzz") == "true" {
		h.session.ClearBuzzes()
	}
	if q.Get("reset") == "true" {
		if err := h.session.Reset(r.Context()); err != nil {
			h.writeError(w, err)
			return
		}
	}

	h.render(w, "admin.html", h.session.AdminSnapshot())
}

// qr serves a QR code of the contestant join URL so phones can scan their
// way onto the splash page.
func (h *Handler) qr(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := requireAdmin(r); err != nil {
		h.writeError(w, err)
		return
	}
	png, err := qrcode.Encode("http://"+r.Host+"/", qrcode.Medium, 256)
	if err != nil {
		log.Printf("qr encode: %v", err)
		http.Error(w, "Could not generate QR code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		http.Error(w, "Not an admin", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrGameNotJoinable):
		http.Error(w, "Game has already started! Try again later.", http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidName):
		http.Error(w, "Invalid name", http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotRegistered):
		http.Error(w, "Not registered", http.StatusBadRequest)
	case errors.Is(err, domain.ErrIndexOutOfRange):
		http.Error(w, "No such answer", http.StatusBadRequest)
	case errors.Is(err, domain.ErrIdentityUnavailable):
		http.Error(w, "Could not get IP address", http.StatusInternalServerError)
	default:
		log.Printf("request failed: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

// requireAdmin restricts an operation to callers on the loopback address.
func requireAdmin(r *http.Request) error {
	ip := clientIP(r)
	if ip == "" {
		return domain.ErrIdentityUnavailable
	}
	parsed := net.ParseIP(ip)
	if parsed == nil || !parsed.IsLoopback() {
		return domain.ErrUnauthorized
	}
	return nil
}

// clientIP extracts the peer address without the port. Contestant identity
// is the raw peer IP; anything stronger plugs in behind game.IdentityStore.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// Some test servers hand over a bare IP without a port.
		if net.ParseIP(r.RemoteAddr) != nil {
			return r.RemoteAddr
		}
		return ""
	}
	return host
}
