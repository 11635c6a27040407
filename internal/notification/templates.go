// AngelaMos | 2026
// templates.go

package notification

import (
	"fmt"
	"html/template"
	"strings"
	"sync"
)

const (
	TemplateConfirmation = "confirmation"
	TemplateOperator     = "operator"
)

const confirmationBody = `<h2>Thanks {{.Submission.Name}}, we got your info!</h2>
<p>We received the details for <strong>{{.Submission.BusinessName}}</strong>
and the <strong>{{.Submission.Package}}</strong> package.</p>
<p>The next step is a short call so we can talk through your goals.</p>
<p><a href="{{.CalendarLink}}">Book your call</a></p>
<p>Talk soon,<br>Studio Thielman</p>`

const operatorBody = `<h2>New submission</h2>
<table>
<tr><td>Name</td><td>{{.Submission.Name}}</td></tr>
<tr><td>Business</td><td>{{.Submission.BusinessName}}</td></tr>
<tr><td>Email</td><td>{{.Submission.Email}}</td></tr>
<tr><td>Phone</td><td>{{.Submission.Phone}}</td></tr>
<tr><td>Package</td><td>{{.Submission.Package}}</td></tr>
<tr><td>Industry</td><td>{{.Submission.Industry}}</td></tr>
<tr><td>Timeline</td><td>{{.Submission.Timeline}}</td></tr>
<tr><td>Preferred contact</td><td>{{.Submission.PreferredContact}}</td></tr>
</table>
{{with .Submission.BusinessDescription}}<p>{{.}}</p>{{end}}
<p><a href="{{.AdminLink}}">Open in the admin dashboard</a></p>`

// TemplateStore holds parsed email bodies by name. Rendering escapes all
// submitted values.
type TemplateStore struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

func NewTemplateStore() *TemplateStore {
	s := &TemplateStore{templates: make(map[string]*template.Template)}
	s.MustRegister(TemplateConfirmation, confirmationBody)
	s.MustRegister(TemplateOperator, operatorBody)
	return s
}

func (s *TemplateStore) Register(name, body string) error {
	tmpl, err := template.New(name).Parse(body)
	if err != nil {
		return fmt.Errorf("parse template %s: %w", name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[name] = tmpl
	return nil
}

func (s *TemplateStore) MustRegister(name, body string) {
	if err := s.Register(name, body); err != nil {
		panic(err)
	}
}

func (s *TemplateStore) Render(name string, data any) (string, error) {
	s.mu.RLock()
	tmpl, ok := s.templates[name]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("template %s not found", name)
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return out.String(), nil
}
