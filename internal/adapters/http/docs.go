package http

import (
	"os"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
)

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>getmaptiles API - Swagger UI</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
  <style>html{box-sizing:border-box}*,*::before,*::after{box-sizing:inherit}body{margin:0;background:#fafafa}</style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '/docs/openapi.json',
      dom_id: '#swagger-ui',
      deepLinking: true,
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: 'BaseLayout',
    });
  </script>
</body>
</html>`

// DefaultSpecPath is where the OpenAPI document lives relative to the working directory.
const DefaultSpecPath = "api/openapi.yaml"

// apiDoc loads and validates the OpenAPI document once.
type apiDoc struct {
	path string
	once sync.Once
	raw  []byte
	doc  *openapi3.T
	err  error
}

func (d *apiDoc) load() {
	d.raw, d.err = os.ReadFile(d.path)
	if d.err != nil {
		return
	}
	loader := openapi3.NewLoader()
	d.doc, d.err = loader.LoadFromData(d.raw)
	if d.err == nil {
		d.err = d.doc.Validate(loader.Context)
	}
}

// SetupDocs registers Swagger UI at /docs and the OpenAPI document read from
// specPath at /docs/openapi.yaml and /docs/openapi.json.
func SetupDocs(app *fiber.App, specPath string) {
	d := &apiDoc{path: specPath}

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(swaggerUIHTML)
	})

	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		d.once.Do(d.load)
		if d.raw == nil {
			return errNotFound(c, "openapi.yaml not found")
		}
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(d.raw)
	})

	app.Get("/docs/openapi.json", func(c *fiber.Ctx) error {
		d.once.Do(d.load)
		if d.raw == nil {
			return errNotFound(c, "openapi.yaml not found")
		}
		if d.err != nil {
			LoggerFromCtx(c.UserContext()).Error("invalid openapi document", "path", d.path, "error", d.err)
			return errInternal(c, "invalid openapi document")
		}
		return c.JSON(d.doc)
	})
}
