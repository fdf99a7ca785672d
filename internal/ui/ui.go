package ui

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/varsilias/energy-advisor/internal/buildinfo"
	"github.com/varsilias/energy-advisor/internal/chat"
	"github.com/varsilias/energy-advisor/internal/keys"
	"github.com/varsilias/energy-advisor/pkg/types"
	"github.com/varsilias/energy-advisor/web"
)

const (
	AppTitle       = "Domótica Eficiente: Asesor Energético"
	AppDescription = "Proporciona diagnósticos, propuestas de dispositivos Smart Home y estimaciones de ahorro energético."
)

type UI struct {
	log  *slog.Logger
	tpl  *template.Template
	chat *chat.Controller
	keys *keys.Host
	md   *Renderer
	loc  *time.Location

	pingEvery time.Duration
}

// New parses the embedded templates. host may be nil, in which case the key
// dialog and /ui/key are left out.
func New(log *slog.Logger, c *chat.Controller, host *keys.Host) (*UI, error) {
	t, err := template.New("root").ParseFS(web.Templates(), "*.html", "partials/*.html")
	if err != nil {
		return nil, err
	}
	return &UI{
		log:       log,
		tpl:       t,
		chat:      c,
		keys:      host,
		md:        NewRenderer(),
		loc:       time.Local,
		pingEvery: 30 * time.Second,
	}, nil
}

type MsgView struct {
	ID     string
	Sender string
	HTML   template.HTML
	At     string // wall clock, es-ES style
	ISO    string
}

func (u *UI) view(m types.Message) MsgView {
	ts := m.Timestamp.In(u.loc)
	return MsgView{
		ID:     m.ID,
		Sender: string(m.Sender),
		HTML:   u.md.HTML(m.Text),
		At:     ts.Format("15:04:05"),
		ISO:    ts.Format(time.RFC3339),
	}
}

func (u *UI) views(msgs []types.Message) []MsgView {
	out := make([]MsgView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, u.view(m))
	}
	return out
}

type versionVM struct {
	Version string
	Commit  string
	BuiltAt string
}

func currentVersion() versionVM {
	return versionVM{Version: buildinfo.Version, Commit: buildinfo.Commit, BuiltAt: buildinfo.BuiltAt}
}

type noticeVM struct {
	Level string
	Text  string
}

func (u *UI) render(w http.ResponseWriter, name string, data any, status int) {
	var buf bytes.Buffer
	if err := u.tpl.ExecuteTemplate(&buf, name, data); err != nil {
		u.errTpl(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (u *UI) renderString(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := u.tpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (u *UI) errTpl(w http.ResponseWriter, err error) {
	u.log.Error("template execute", "err", err)
	http.Error(w, "template error", http.StatusInternalServerError)
}
