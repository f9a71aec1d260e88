package notify

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Template names used by the account lifecycle.
const (
	TemplateAccountConfirm      = "account_confirm"
	TemplateEmailConfirm        = "email_confirm"
	TemplatePasswordReset       = "password_reset"
	TemplatePasswordResetDone   = "password_reset_done"
	TemplateDeleteRequestQueued = "delete_request_queued"
)

//go:embed templates.yaml
var defaultTemplates []byte

type templateSpec struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

type catalogFile struct {
	Templates map[string]templateSpec `yaml:"templates"`
}

// Catalog holds the parsed mail templates, keyed by name. Subjects and
// bodies are text/template strings over a flat string map.
type Catalog struct {
	specs map[string]templateSpec
}

// LoadCatalog parses the embedded default templates, then overlays the
// optional YAML file at path (empty path = defaults only).
func LoadCatalog(path string) (*Catalog, error) {
	cat := &Catalog{specs: make(map[string]templateSpec)}
	if err := cat.merge(defaultTemplates); err != nil {
		return nil, fmt.Errorf("parse embedded templates: %w", err)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read template file %s: %w", path, err)
		}
		if err := cat.merge(raw); err != nil {
			return nil, fmt.Errorf("parse template file %s: %w", path, err)
		}
	}
	return cat, nil
}

func (c *Catalog) merge(raw []byte) error {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return err
	}
	for name, spec := range f.Templates {
		c.specs[name] = spec
	}
	return nil
}

// Render produces the subject and body for a named template.
func (c *Catalog) Render(name string, data map[string]string) (subject, body string, err error) {
	spec, ok := c.specs[name]
	if !ok {
		return "", "", fmt.Errorf("unknown mail template %q", name)
	}
	subject, err = render(name+":subject", spec.Subject, data)
	if err != nil {
		return "", "", err
	}
	body, err = render(name+":body", spec.Body, data)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

func render(name, text string, data map[string]string) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", name, err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("execute %s: %w", name, err)
	}
	return sb.String(), nil
}
