package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"rental-watch/internal/address"
	"rental-watch/internal/diff"
)

var watchTemplate = template.Must(template.New("watch").Parse(`<!DOCTYPE html>
<html><body>
<h1>New records at {{.Address}}</h1>
{{if .Delta.Violations}}<p>{{.Delta.Violations}} new building violation{{if ne .Delta.Violations 1}}s{{end}} ({{.Current.Violations}} on file).</p>{{end}}
{{if .Delta.Complaints}}<p>{{.Delta.Complaints}} new 311 complaint{{if ne .Delta.Complaints 1}}s{{end}} ({{.Current.Complaints}} on file).</p>{{end}}
<p><a href="{{.RecordsURL}}">View the records</a></p>
<p>You are receiving this because you watch this address. <a href="{{.UnsubscribeURL}}">Unsubscribe</a></p>
</body></html>`))

var landlordTemplate = template.Must(template.New("landlord").Parse(`<!DOCTYPE html>
<html><body>
<h1>New activity at {{.Address}}</h1>
<p>Severity: {{.Severity}}</p>
{{if .Delta.Violations}}<p>{{.Delta.Violations}} new building violation{{if ne .Delta.Violations 1}}s{{end}} ({{.Current.Violations}} on file).</p>{{end}}
{{if .Delta.Complaints}}<p>{{.Delta.Complaints}} new 311 complaint{{if ne .Delta.Complaints 1}}s{{end}} ({{.Current.Complaints}} on file).</p>{{end}}
<p><a href="{{.DashboardURL}}">Open your dashboard</a></p>
</body></html>`))

// WatchNotice is the content of a subscriber email.
type WatchNotice struct {
	Email            string
	Address          string
	Delta            diff.Counts
	Current          diff.Counts
	UnsubscribeToken string
}

// LandlordNotice is the content of a claimed-building email.
type LandlordNotice struct {
	Email      string
	Address    string
	BuildingID uint
	Delta      diff.Counts
	Current    diff.Counts
	Severity   diff.Severity
}

// Renderer turns notices into messages. Output depends only on the notice.
type Renderer struct {
	siteURL string
}

func NewRenderer(siteURL string) *Renderer {
	return &Renderer{siteURL: strings.TrimRight(siteURL, "/")}
}

func (r *Renderer) Watch(n WatchNotice) (Message, error) {
	data := struct {
		WatchNotice
		RecordsURL     string
		UnsubscribeURL string
	}{
		WatchNotice:    n,
		RecordsURL:     r.siteURL + "/address/" + address.Slug(n.Address),
		UnsubscribeURL: r.siteURL + "/unsubscribe?token=" + url.QueryEscape(n.UnsubscribeToken),
	}
	return render(watchTemplate, data, n.Email, "New records at "+n.Address)
}

func (r *Renderer) Landlord(n LandlordNotice) (Message, error) {
	data := struct {
		LandlordNotice
		DashboardURL string
	}{
		LandlordNotice: n,
		DashboardURL:   fmt.Sprintf("%s/dashboard/buildings/%d", r.siteURL, n.BuildingID),
	}
	return render(landlordTemplate, data, n.Email, fmt.Sprintf("[%s] New activity at %s", n.Severity, n.Address))
}

func render(tmpl *template.Template, data interface{}, to, subject string) (Message, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	text, err := PlainText(buf.String())
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject, HTML: buf.String(), Text: text}, nil
}

// PlainText derives the text alternative of an HTML email: one line per
// heading or paragraph, link targets in parentheses.
func PlainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	var lines []string
	doc.Find("h1, h2, p, li").Each(func(_ int, s *goquery.Selection) {
		line := strings.Join(strings.Fields(s.Text()), " ")
		s.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			line += " (" + href + ")"
		})
		if line != "" {
			lines = append(lines, line)
		}
	})
	return strings.Join(lines, "\n"), nil
}
