// cmd/tools/worker-generator/generate.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"loan-origination/pkg/registry"
)

const modulePath = "loan-origination"

// WorkerData feeds the scaffold templates.
type WorkerData struct {
	ID              string
	Name            string
	Description     string
	PackageName     string
	TaskType        string
	TimeoutLiteral  string
	ErrorCodes      []string
	InputFields     []Field
	OutputFields    []Field
	InputSchemaJSON string
	Module          string
}

// Field is one struct field derived from a schema property.
type Field struct {
	Name    string
	Type    string
	JSONTag string
}

var initialisms = map[string]string{
	"id": "ID", "pan": "PAN", "emi": "EMI", "url": "URL", "otp": "OTP", "kyc": "KYC", "sms": "SMS",
}

// goName turns a camelCase or snake_case property into an exported identifier.
func goName(prop string) string {
	var words []string
	current := strings.Builder{}
	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	for _, r := range prop {
		switch {
		case r == '_' || r == '-':
			flush()
		case r >= 'A' && r <= 'Z':
			flush()
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()

	var b strings.Builder
	for _, w := range words {
		if up, ok := initialisms[strings.ToLower(w)]; ok {
			b.WriteString(up)
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]) + w[1:])
	}
	return b.String()
}

func goType(details map[string]interface{}) string {
	switch details["type"] {
	case "string":
		return "string"
	case "integer":
		return "int64"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		return "[]interface{}"
	default:
		return "interface{}"
	}
}

// fieldsFromSchema lists the schema's properties as fields, sorted by property name.
func fieldsFromSchema(schema map[string]interface{}) []Field {
	props, _ := schema["properties"].(map[string]interface{})
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		details, _ := props[name].(map[string]interface{})
		fields = append(fields, Field{
			Name:    goName(name),
			Type:    goType(details),
			JSONTag: fmt.Sprintf("`json:\"%s\"`", name),
		})
	}
	return fields
}

func timeoutLiteral(raw string) (string, error) {
	if raw == "" {
		return "30 * time.Second", nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return "", fmt.Errorf("invalid timeout %q: %w", raw, err)
	}
	if d%time.Second == 0 {
		return fmt.Sprintf("%d * time.Second", d/time.Second), nil
	}
	return fmt.Sprintf("%d * time.Millisecond", d/time.Millisecond), nil
}

// NewWorkerData derives template data from a registry activity.
func NewWorkerData(a *registry.Activity) (*WorkerData, error) {
	timeout, err := timeoutLiteral(a.Timeout)
	if err != nil {
		return nil, err
	}

	schema := a.InputSchema
	if len(schema) == 0 {
		schema = map[string]interface{}{"type": "object"}
	}
	raw, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal input schema: %w", err)
	}
	if bytes.ContainsRune(raw, '`') {
		return nil, fmt.Errorf("input schema of %s contains a backtick", a.ID)
	}

	return &WorkerData{
		ID:              a.ID,
		Name:            a.DisplayName,
		Description:     strings.Join(strings.Fields(a.Description), " "),
		PackageName:     strings.NewReplacer("-", "", "_", "").Replace(a.ID),
		TaskType:        a.TaskType,
		TimeoutLiteral:  timeout,
		ErrorCodes:      a.ErrorCodes,
		InputFields:     fieldsFromSchema(a.InputSchema),
		OutputFields:    fieldsFromSchema(a.OutputSchema),
		InputSchemaJSON: string(raw),
		Module:          modulePath,
	}, nil
}

var scaffolds = []struct {
	file string
	tmpl *template.Template
}{
	{"config.go", template.Must(template.New("config").Parse(configTemplate))},
	{"models.go", template.Must(template.New("models").Parse(modelsTemplate))},
	{"validation.go", template.Must(template.New("validation").Parse(validationTemplate))},
	{"handler.go", template.Must(template.New("handler").Parse(handlerTemplate))},
	{"handler_test.go", template.Must(template.New("test").Parse(testTemplate))},
}

// Render produces the gofmt-ed scaffold files keyed by file name.
func Render(data *WorkerData) (map[string][]byte, error) {
	out := make(map[string][]byte, len(scaffolds))
	for _, s := range scaffolds {
		var buf bytes.Buffer
		if err := s.tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("render %s: %w", s.file, err)
		}
		src, err := format.Source(buf.Bytes())
		if err != nil {
			return nil, fmt.Errorf("format %s: %w", s.file, err)
		}
		out[s.file] = src
	}
	return out, nil
}

// Write renders the scaffold into outputDir/<activity id>. Existing files are
// kept unless force is set.
func Write(data *WorkerData, outputDir string, force bool) ([]string, error) {
	files, err := Render(data)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(outputDir, data.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var written []string
	for _, name := range names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil && !force {
			continue
		}
		if err := os.WriteFile(path, files[name], 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

const configTemplate = `// internal/workers/loan/{{ .ID }}/config.go
package {{ .PackageName }}

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Timeout: {{ .TimeoutLiteral }},
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
`

const modelsTemplate = `// internal/workers/loan/{{ .ID }}/models.go
package {{ .PackageName }}

type Input struct {
{{- range .InputFields }}
	{{ .Name }} {{ .Type }} {{ .JSONTag }}
{{- end }}
}

type Output struct {
{{- range .OutputFields }}
	{{ .Name }} {{ .Type }} {{ .JSONTag }}
{{- end }}
}
`

const validationTemplate = `// internal/workers/loan/{{ .ID }}/validation.go
package {{ .PackageName }}

import "{{ .Module }}/internal/common/validation"

var inputSchema = validation.MustCompileJSON(` + "`{{ .InputSchemaJSON }}`" + `)
`

const handlerTemplate = `// internal/workers/loan/{{ .ID }}/handler.go
package {{ .PackageName }}

import (
	"context"
	"fmt"

	apperrors "{{ .Module }}/internal/common/errors"
	"{{ .Module }}/internal/common/logger"
	"{{ .Module }}/internal/common/observability"
	"{{ .Module }}/internal/workers/loan/jobs"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "{{ .TaskType }}"
)

type Handler struct {
	config *Config
	logger logger.Logger
	errors *apperrors.ErrorHandler
	obs    *observability.Observability
}

func NewHandler(config *Config, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		logger: log,
		errors: apperrors.NewErrorHandler(log),
		obs:    obs,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	done := jobs.Track(h.obs, TaskType)

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	var input Input
	if err := jobs.Decode(job, inputSchema, &input); err != nil {
		done(err)
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		done(err)
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	done(jobs.Complete(ctx, client, job, output, h.logger))
}

// Execute implements {{ .TaskType }}: {{ .Description }}
{{- if .ErrorCodes }}
// Registered error codes:{{ range .ErrorCodes }} {{ . }}{{ end }}.
{{- end }}
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return nil, apperrors.NewInternalError(fmt.Errorf("%s is not implemented", TaskType))
}
`

const testTemplate = `// internal/workers/loan/{{ .ID }}/handler_test.go
package {{ .PackageName }}

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, (&Config{}).Validate())
}
`
