package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"github.com/fipacademy/cronograma/internal/logging"
	"github.com/gofiber/fiber/v2"
)

var pageTemplates = []string{"login", "register", "cronograma", "not_found"}

func parsePageTemplates(templateDir string, funcMap template.FuncMap, pages []string) (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		parsed, err := template.New("base").Funcs(funcMap).ParseFiles(
			filepath.Join(templateDir, "base.html"),
			filepath.Join(templateDir, page+".html"),
		)
		if err != nil {
			return nil, fmt.Errorf("parse page template %s: %w", page, err)
		}
		templates[page] = parsed
	}
	return templates, nil
}

func newTemplateFuncMap() template.FuncMap {
	return template.FuncMap{
		"t":          translateMessage,
		"itemText":   templateItemText,
		"formatDate": formatTemplateDate,
		"toJSON":     templateToJSON,
	}
}

// templateItemText looks up schedule.<key>.<field> in the page messages.
func templateItemText(messages map[string]string, key string, field string) string {
	return translateMessage(messages, "schedule."+key+"."+field)
}

func formatTemplateDate(value time.Time, layout string) string {
	if value.IsZero() {
		return ""
	}
	return value.Format(layout)
}

func templateToJSON(value any) template.JS {
	serialized, err := json.Marshal(value)
	if err != nil {
		return template.JS("null")
	}
	return template.JS(serialized)
}

func (handler *Handler) render(c *fiber.Ctx, name string, data fiber.Map) error {
	tmpl, ok := handler.templates[name]
	if !ok {
		return c.Status(fiber.StatusInternalServerError).SendString("template not found")
	}

	var output bytes.Buffer
	if err := tmpl.ExecuteTemplate(&output, "base", handler.withTemplateDefaults(c, data)); err != nil {
		handler.logger.Error("render template", "template", name, logging.Err(err))
		return c.Status(fiber.StatusInternalServerError).SendString("failed to render template")
	}
	c.Type("html", "utf-8")
	return c.Send(output.Bytes())
}

func (handler *Handler) withTemplateDefaults(c *fiber.Ctx, data fiber.Map) fiber.Map {
	if data == nil {
		data = fiber.Map{}
	}
	language := currentLanguage(c)
	if language == "" {
		language = handler.i18n.DefaultLanguage()
	}

	defaults := fiber.Map{
		"Messages":    currentMessages(c),
		"Lang":        language,
		"ToggleLang":  handler.i18n.Toggle(language),
		"CurrentPath": c.OriginalURL(),
		"CSRFToken":   csrfToken(c),
		"Scheme":      handler.scheme,
	}
	for key, value := range defaults {
		if _, ok := data[key]; !ok {
			data[key] = value
		}
	}
	if _, ok := data["CurrentUser"]; !ok {
		if enrollment, ok := currentEnrollment(c); ok {
			data["CurrentUser"] = enrollment
		}
	}
	return data
}
