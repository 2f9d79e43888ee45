package view

import (
	"bytes"
	"html/template"
	"io"
	"strings"

	"github.com/valyala/bytebufferpool"
)

// Renderer turns pages into HTML documents.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("layout").Funcs(template.FuncMap{
		"initial": initial,
	}).Parse(layoutHTML)
	if err != nil {
		return nil, err
	}
	for name, body := range map[string]string{
		"page":    pageHTML,
		"confirm": confirmHTML,
	} {
		if _, err := tmpl.New(name).Parse(body); err != nil {
			return nil, err
		}
	}
	return &Renderer{tmpl: tmpl}, nil
}

// MustRenderer panics when the built-in templates do not parse.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Render writes page to w. Nothing is written when execution fails.
func (r *Renderer) Render(w io.Writer, page Page) error {
	return r.execute(w, "page", page)
}

func (r *Renderer) RenderConfirm(w io.Writer, page ConfirmPage) error {
	return r.execute(w, "confirm", page)
}

func (r *Renderer) execute(w io.Writer, name string, data any) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := r.tmpl.ExecuteTemplate(buf, name, data); err != nil {
		return err
	}
	_, err := io.Copy(w, bytes.NewReader(buf.B))
	return err
}

func Stylesheet() []byte {
	return []byte(appCSS)
}

func initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "?"
	}
	return strings.ToUpper(string([]rune(name)[:1]))
}

const layoutHTML = `{{define "head"}}<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>{{.}}</title>
    <link rel="stylesheet" href="/static/app.css" />
  </head>
  <body>
    <main class="container">
      <header class="header">
        <h1 class="title">Puppy Bowl</h1>
      </header>
{{end}}
{{define "foot"}}    </main>
  </body>
</html>
{{end}}`

const pageHTML = `{{template "head" .Title}}
      {{if .Busy}}<div class="busy" role="status">Working on it...</div>{{end}}
      {{with .Notice}}{{if .Text}}<div class="notice notice-{{.Level}}" role="status">{{.Text}}</div>{{end}}{{end}}
      <section class="panel" data-kind="{{.Kind}}">
        {{if eq .Kind "unavailable"}}
          <div class="empty">{{.Message}}</div>
          <form method="post" action="{{.RefreshPath}}"><button type="submit"{{if .Busy}} disabled{{end}}>Try again</button></form>
        {{else if eq .Kind "empty"}}
          <div class="empty">{{.Message}}</div>
        {{else if eq .Kind "detail"}}
          {{with .Detail}}
          <article class="detail" data-player-id="{{.ID}}">
            {{if .ImageURL}}<img class="portrait" src="{{.ImageURL}}" alt="{{.Name}}" />{{else}}<div class="portrait placeholder">{{initial .Name}}</div>{{end}}
            <h2 class="panelTitle">{{.Name}}</h2>
            <dl class="facts">
              <dt>ID</dt><dd class="mono">{{.ID}}</dd>
              <dt>Breed</dt><dd>{{.Breed}}</dd>
              <dt>Status</dt><dd>{{.Status}}</dd>
              <dt>Team</dt><dd class="team">{{.Team}}</dd>
            </dl>
            <div class="actions">
              <form method="post" action="{{.BackPath}}"><button type="submit"{{if $.Busy}} disabled{{end}}>Back to all puppies</button></form>
              <a class="danger" href="{{.RemovePath}}">Remove from roster</a>
            </div>
          </article>
          {{end}}
        {{else}}
          <ul class="list">
            {{range .Cards}}
              <li class="row card" data-player-id="{{.ID}}">
                {{if .ImageURL}}<img class="thumb" src="{{.ImageURL}}" alt="{{.Name}}" />{{else}}<div class="thumb placeholder">{{initial .Name}}</div>{{end}}
                <div class="rowMain">
                  <div class="rowName">{{.Name}}</div>
                  <div class="rowMeta"><span class="mono">#{{.ID}}</span></div>
                </div>
                <div class="actions">
                  <form method="post" action="{{.DetailsPath}}"><button type="submit"{{if $.Busy}} disabled{{end}}>See details</button></form>
                  <a class="danger" href="{{.RemovePath}}">Remove</a>
                </div>
              </li>
            {{end}}
          </ul>
        {{end}}
      </section>
      {{with .Form}}
      <section class="panel">
        <h2 class="panelTitle">Add a puppy</h2>
        <form class="create" method="post" action="{{.Action}}">
          <label>Name <input name="name" required /></label>
          <label>Breed <input name="breed" required /></label>
          <label>Image URL <input name="imageUrl" type="url" /></label>
          <label>Status
            <select name="status">
              {{range .Statuses}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Value}}</option>{{end}}
            </select>
          </label>
          <button type="submit"{{if $.Busy}} disabled{{end}}>Add to roster</button>
        </form>
      </section>
      {{end}}
      {{if ne .Kind "unavailable"}}<form method="post" action="{{.RefreshPath}}"><button class="link" type="submit">Refresh</button></form>{{end}}
{{template "foot"}}`

const confirmHTML = `{{template "head" "Remove player"}}
      <section class="panel" data-kind="confirm">
        <p class="prompt">{{.Prompt}}</p>
        <div class="actions">
          <form method="post" action="{{.ConfirmPath}}">
            <input type="hidden" name="confirm" value="yes" />
            <button class="danger" type="submit">Remove</button>
          </form>
          <a href="{{.CancelPath}}">Cancel</a>
        </div>
      </section>
{{template "foot"}}`

const appCSS = `:root {
  color-scheme: light dark;
  --bg: #f7f5f2;
  --panel: #ffffff;
  --text: #1d1b19;
  --muted: #6b655f;
  --accent: #b4562a;
  --danger: #b3261e;
}

* { box-sizing: border-box; }
body { margin: 0; background: var(--bg); color: var(--text); font: 15px/1.45 system-ui, sans-serif; }
.container { max-width: 760px; margin: 0 auto; padding: 24px 16px 48px; }
.header { margin-bottom: 16px; }
.title { margin: 0; font-size: 28px; color: var(--accent); }
.panel { background: var(--panel); border-radius: 10px; padding: 16px; margin-bottom: 16px; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
.panelTitle { margin: 0 0 12px; font-size: 18px; }
.list { list-style: none; margin: 0; padding: 0; }
.row { display: flex; align-items: center; gap: 12px; padding: 10px 0; border-bottom: 1px solid rgba(0,0,0,.06); }
.row:last-child { border-bottom: none; }
.rowMain { flex: 1; }
.rowName { font-weight: 600; }
.rowMeta, .mono { color: var(--muted); font-family: ui-monospace, monospace; font-size: 13px; }
.thumb { width: 56px; height: 56px; border-radius: 8px; object-fit: cover; }
.portrait { width: 100%; max-height: 320px; border-radius: 10px; object-fit: cover; }
.placeholder { display: flex; align-items: center; justify-content: center; background: rgba(0,0,0,.06); font-size: 22px; color: var(--muted); }
.portrait.placeholder { height: 180px; }
.facts { display: grid; grid-template-columns: max-content 1fr; gap: 4px 12px; }
.facts dt { color: var(--muted); }
.facts dd { margin: 0; }
.actions { display: flex; gap: 8px; align-items: center; }
.actions form { margin: 0; }
.notice { padding: 10px 12px; border-radius: 8px; margin-bottom: 12px; background: rgba(180,86,42,.08); }
.notice-error { background: rgba(179,38,30,.1); color: var(--danger); }
.busy { margin-bottom: 12px; color: var(--muted); }
.empty { color: var(--muted); padding: 12px 0; }
.create { display: grid; gap: 8px; }
.create label { display: grid; gap: 4px; }
button { cursor: pointer; }
button:disabled { cursor: progress; opacity: .6; }
.danger { color: var(--danger); }
.link { background: none; border: none; color: var(--accent); padding: 0; }
`
