package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Template names a built-in message.
type Template string

const (
	TemplateOrderAccepted  Template = "order_accepted"
	TemplateOrderShipped   Template = "order_shipped"
	TemplateOrderDelivered Template = "order_delivered"
)

//go:embed templates/*.md
var templateFS embed.FS

const subjectPrefix = "subject:"

// Content is a rendered message.
type Content struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer expands markdown templates and converts them to sanitized HTML.
type Renderer struct {
	templates map[Template]*template.Template
	markdown  goldmark.Markdown
	policy    *bluemonday.Policy
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{
		templates: map[Template]*template.Template{},
		markdown:  goldmark.New(goldmark.WithExtensions(extension.Linkify)),
		policy:    newEmailHTMLPolicy(),
	}
	for _, name := range []Template{TemplateOrderAccepted, TemplateOrderShipped, TemplateOrderDelivered} {
		raw, err := templateFS.ReadFile("templates/" + string(name) + ".md")
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", name, err)
		}
		tmpl, err := template.New(string(name)).Option("missingkey=zero").Parse(string(raw))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// Render substitutes vars into the named template. The first line must be
// "subject: ..."; the rest is markdown.
func (r *Renderer) Render(name Template, vars map[string]string) (Content, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return Content{}, fmt.Errorf("unknown template %q", name)
	}
	escaped := make(map[string]string, len(vars))
	for k, v := range vars {
		escaped[k] = escapeMarkdown(v)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, escaped); err != nil {
		return Content{}, fmt.Errorf("execute template %s: %w", name, err)
	}

	subject, body, found := strings.Cut(buf.String(), "\n")
	if !found || !strings.HasPrefix(strings.ToLower(subject), subjectPrefix) {
		return Content{}, fmt.Errorf("template %s has no subject line", name)
	}
	subject = strings.TrimSpace(subject[len(subjectPrefix):])
	body = strings.TrimSpace(body)

	var html bytes.Buffer
	if err := r.markdown.Convert([]byte(body), &html); err != nil {
		return Content{}, fmt.Errorf("convert template %s: %w", name, err)
	}
	return Content{
		Subject: unescapeMarkdown(subject),
		HTML:    strings.TrimSpace(r.policy.Sanitize(html.String())),
		Text:    body,
	}, nil
}

func newEmailHTMLPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	return policy
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;",
)

var markdownUnescaper = strings.NewReplacer(
	`\\`, `\`, `\*`, "*", `\_`, "_", "\\`", "`", `\[`, "[", `\]`, "]", "&lt;", "<", "&gt;", ">",
)

// escapeMarkdown keeps substituted values from injecting markup.
func escapeMarkdown(v string) string {
	return markdownEscaper.Replace(v)
}

func unescapeMarkdown(v string) string {
	return markdownUnescaper.Replace(v)
}
