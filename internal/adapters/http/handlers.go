package http

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
	"github.com/chtimi59/getmaptiles/internal/core/usecases"
	"github.com/chtimi59/getmaptiles/internal/pkg/geospatial"
)

// parseFloats reads n comma-separated numbers.
func parseFloats(raw string, n int) ([]float64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated numbers, got %d", n, len(parts))
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		out[i] = v
	}
	return out, nil
}

// setNames splits the sets query parameter, dropping empty entries.
func setNames(raw string) []string {
	var names []string
	for _, n := range strings.Split(raw, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// ListSetsHandler returns one page of stored set summaries.
func ListSetsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit := pageParams(c)
		page, total, err := deps.Sets.List(c.UserContext(), limit, offset)
		if err != nil {
			return errFromService(c, err)
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(SetPage{Data: page, Pagination: pg})
	}
}

// GetSetHandler returns a stored set.
func GetSetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		set, err := deps.Sets.Get(c.UserContext(), c.Params("name"))
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(set)
	}
}

// CreateSetHandler imports a descriptor document. The set name comes from the
// name query parameter or, failing that, from the document envelope.
func CreateSetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		set, err := domain.DecodeRectangleSet(c.Body())
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if name := c.Query("name"); name != "" {
			set.Name = name
		}
		if set.Name == "" {
			return errBadRequest(c, "set name is required")
		}

		if err := deps.Sets.Save(c.UserContext(), &set); err != nil {
			return errFromService(c, err)
		}
		c.Set(fiber.HeaderLocation, "/v1/sets/"+set.Name)
		return c.Status(201).JSON(set)
	}
}

// PutSetHandler replaces the named set with the descriptors in the body.
func PutSetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		set, err := domain.DecodeRectangleSet(c.Body())
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		set.Name = c.Params("name")

		if err := deps.Sets.Save(c.UserContext(), &set); err != nil {
			return errFromService(c, err)
		}
		return c.JSON(set)
	}
}

// DeleteSetHandler removes a stored set.
func DeleteSetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sets.Delete(c.UserContext(), c.Params("name")); err != nil {
			return errFromService(c, err)
		}
		return c.SendStatus(204)
	}
}

// closedPath is a rectangle outline with its ground size.
type closedPath struct {
	ID          string            `json:"id"`
	StrokeColor string            `json:"stroke_color"`
	Path        []domain.GeoPoint `json:"path"`
	WidthM      float64           `json:"width_m"`
	HeightM     float64           `json:"height_m"`
	PerimeterM  float64           `json:"perimeter_m"`
}

func closedPaths(set *domain.RectangleSet) []closedPath {
	fallback := set.DefaultColor
	if fallback == "" {
		fallback = domain.DefaultStrokeColor
	}
	out := make([]closedPath, 0, set.Len())
	for _, r := range set.Rectangles {
		w, h := geospatial.Size(r)
		path := r.Path()
		out = append(out, closedPath{
			ID:          r.ID,
			StrokeColor: r.StrokeColor(fallback),
			Path:        path,
			WidthM:      w,
			HeightM:     h,
			PerimeterM:  geospatial.PathLength(path),
		})
	}
	return out
}

// SetPathsHandler returns the closed outline of every rectangle of a set, in
// the order they are drawn.
func SetPathsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		set, err := deps.Sets.Get(c.UserContext(), c.Params("name"))
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(closedPaths(set))
	}
}

// SetDescriptorsHandler exports a set in the list form accepted on import.
func SetDescriptorsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		set, err := deps.Sets.Get(c.UserContext(), c.Params("name"))
		if err != nil {
			return errFromService(c, err)
		}
		data, err := domain.EncodeDescriptors(set.Rectangles)
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(data)
	}
}

// viewport reads bbox=minLat,minLng,maxLat,maxLng or lat, lng and radius (meters).
func viewport(c *fiber.Ctx) (domain.Bounds, error) {
	if raw := c.Query("bbox"); raw != "" {
		v, err := parseFloats(raw, 4)
		if err != nil {
			return domain.Bounds{}, fmt.Errorf("bbox: %w", err)
		}
		return domain.Bounds{MinLat: v[0], MinLng: v[1], MaxLat: v[2], MaxLng: v[3]}, nil
	}

	if c.Query("lat") == "" || c.Query("lng") == "" || c.Query("radius") == "" {
		return domain.Bounds{}, fmt.Errorf("bbox or lat, lng and radius are required")
	}
	v, err := parseFloats(c.Query("lat")+","+c.Query("lng")+","+c.Query("radius"), 3)
	if err != nil {
		return domain.Bounds{}, err
	}
	lat, lng, radius := v[0], v[1], v[2]
	if radius <= 0 || radius > 50000 {
		return domain.Bounds{}, fmt.Errorf("radius must be between 1 and 50000 meters")
	}
	return geospatial.BoundingBox(domain.GeoPoint{Lat: lat, Lng: lng}, radius), nil
}

// RectanglesHandler returns stored rectangles crossing a viewport.
func RectanglesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := viewport(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		rects, err := deps.Sets.Intersecting(c.UserContext(), b, c.QueryInt("limit", 500))
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(rects)
	}
}

// RenderHandler draws the sets named in the sets query parameter on one map
// and returns the surface output as is.
func RenderHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		format := c.Params("format", usecases.FormatHTML)
		names := setNames(c.Query("sets"))

		out, err := deps.Render.Render(c.UserContext(), format, names...)
		if err != nil {
			return errFromService(c, err)
		}
		c.Set(fiber.HeaderContentType, out.ContentType)
		return c.Send(out.Body)
	}
}

// FormatsHandler lists the render formats.
func FormatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"formats": deps.Render.Formats()})
	}
}

func tileLevel(c *fiber.Ctx) int {
	return c.QueryInt("level", usecases.DefaultTileLevel)
}

// TileCoverageHandler returns the tiles covering an area, row by row.
// With format=script the list is wrapped as window.DATA for a map page.
func TileCoverageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Query("area")
		if raw == "" {
			return errBadRequest(c, "area is required")
		}
		v, err := parseFloats(raw, 4)
		if err != nil {
			return errBadRequest(c, "area: "+err.Error())
		}
		area := domain.Rectangle{Data: [4]float64{v[0], v[1], v[2], v[3]}}

		rects, err := deps.Tiles.Coverage(tileLevel(c), area)
		if err != nil {
			return errFromService(c, err)
		}

		if c.Query("format") == "script" {
			data, err := domain.EncodeDataScript(rects)
			if err != nil {
				return errInternal(c, err.Error())
			}
			c.Set(fiber.HeaderContentType, "application/javascript")
			return c.Send(data)
		}
		return c.JSON(rects)
	}
}

// TileTraceHandler returns the tiles containing a point from the root down to level.
func TileTraceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lng") == "" {
			return errBadRequest(c, "lat and lng are required")
		}
		v, err := parseFloats(c.Query("lat")+","+c.Query("lng"), 2)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		rects, err := deps.Tiles.Trace(tileLevel(c), domain.GeoPoint{Lat: v[0], Lng: v[1]})
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(rects)
	}
}

// GetTileHandler describes one tile.
func GetTileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := deps.Tiles.Tile(c.Params("name"))
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(d)
	}
}

// surveyRequest starts a tile survey.
type surveyRequest struct {
	Name  string     `json:"name"`
	Level int        `json:"level"`
	Area  [4]float64 `json:"area"`
}

// StartSurveyHandler launches a tile survey whose result is stored as a set.
func StartSurveyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req surveyRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Level == 0 {
			req.Level = usecases.DefaultTileLevel
		}

		area := domain.Rectangle{ID: "center", Data: req.Area}
		runID, err := deps.Tiles.StartSurvey(c.UserContext(), req.Name, req.Level, area)
		if err != nil {
			return errFromService(c, err)
		}

		c.Set(fiber.HeaderLocation, "/v1/sets/"+req.Name)
		return c.Status(202).JSON(fiber.Map{
			"name":   req.Name,
			"level":  req.Level,
			"run_id": runID,
		})
	}
}
