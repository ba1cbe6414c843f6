// Package googlemaps renders a map surface as a standalone HTML page driving
// the Google Maps JavaScript API.
package googlemaps

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
	"github.com/chtimi59/getmaptiles/internal/core/ports"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <style>html, body, #{{.Handle}} { height: 100%; margin: 0; padding: 0; }</style>
</head>
<body>
  <div id="{{.Handle}}"></div>
  <script>
    function initMap() {
      const map = new google.maps.Map(document.getElementById({{.Handle}}), {{.View}});
{{- if .Styles}}
      map.set("styles", {{.Styles}});
{{- end}}
{{- range .Polylines}}
      new google.maps.Polyline({{.}}).setMap(map);
{{- end}}
{{- range .Markers}}
      new google.maps.Marker({ position: {{.}}, map: map });
{{- end}}
    }
    window.initMap = initMap;
  </script>
  <script src="https://maps.googleapis.com/maps/api/js?key={{.APIKey}}&callback=initMap&v=weekly" defer></script>
</body>
</html>
`

var page = template.Must(template.New("map").Parse(pageTemplate))

// polylineOptions is the google.maps.PolylineOptions subset we emit.
type polylineOptions struct {
	Path        []domain.GeoPoint `json:"path"`
	Geodesic    bool              `json:"geodesic"`
	StrokeColor string            `json:"strokeColor"`
}

// Page implements ports.Surface and ports.Exporter.
type Page struct {
	Title     string
	Handle    string
	APIKey    string
	View      domain.MapViewConfig
	Styles    []domain.StyleRule
	Polylines []polylineOptions
	Markers   []domain.GeoPoint
}

func (p *Page) SetStyles(rules []domain.StyleRule) {
	p.Styles = append([]domain.StyleRule(nil), rules...)
}

func (p *Page) DrawPolyline(pl domain.Polyline) {
	p.Polylines = append(p.Polylines, polylineOptions{
		Path:        pl.Path,
		Geodesic:    pl.Geodesic,
		StrokeColor: pl.StrokeColor,
	})
}

func (p *Page) DrawMarker(m domain.Marker) {
	p.Markers = append(p.Markers, m.Position)
}

// Export renders the HTML page.
func (p *Page) Export() (domain.Rendering, error) {
	var buf bytes.Buffer
	if err := page.Execute(&buf, p); err != nil {
		return domain.Rendering{}, fmt.Errorf("render map page: %w", err)
	}
	return domain.Rendering{ContentType: "text/html; charset=utf-8", Body: buf.Bytes()}, nil
}

// Factory creates pages sharing one API key.
type Factory struct {
	APIKey string
	Title  string
}

// NewSurface implements ports.SurfaceFactory. The handle is the id of the map element.
func (f Factory) NewSurface(handle string, view domain.MapViewConfig) (ports.Surface, error) {
	if handle == "" {
		return nil, fmt.Errorf("empty map element id")
	}
	title := f.Title
	if title == "" {
		title = "Map"
	}
	return &Page{Title: title, Handle: handle, APIKey: f.APIKey, View: view}, nil
}
