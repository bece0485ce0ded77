// Package present renders cached OpenWeatherMap documents for the terminal.
package present

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/i474232898/whats-the-weather/internal/common"
	"github.com/i474232898/whats-the-weather/internal/weather"
)

// Options controls the layout of rendered output.
type Options struct {
	// Indent is the number of spaces per nesting level.
	Indent int
	// JSON prints the raw document instead of the summary.
	JSON bool
	// Location is used for sunrise, sunset and forecast times; nil means
	// time.Local.
	Location *time.Location
}

// Render prints the slot of entry selected by kind, or a notice when nothing
// has been cached for it.
func Render(w io.Writer, entry weather.CityWeatherEntry, kind weather.Kind, opts Options) error {
	payload := entry.Payload(kind)
	if len(payload) == 0 {
		_, err := fmt.Fprintf(w, "No cached %s weather information for this location\n", kind)
		return err
	}

	if opts.JSON {
		return JSON(w, payload, opts.Indent)
	}
	if kind == weather.KindForecast {
		return Forecast(w, payload, opts)
	}
	return Current(w, payload, opts)
}

// JSON pretty prints payload with sorted keys.
func JSON(w io.Writer, payload []byte, indent int) error {
	if indent < 0 {
		indent = 0
	}
	out := pretty.PrettyOptions(payload, &pretty.Options{
		Width:    80,
		Indent:   strings.Repeat(" ", indent),
		SortKeys: true,
	})
	_, err := w.Write(out)
	return err
}

// Current prints a current conditions document.
func Current(w io.Writer, payload []byte, opts Options) error {
	doc := gjson.ParseBytes(payload)
	sp := strings.Repeat(" ", max(opts.Indent, 0))

	var b strings.Builder
	fmt.Fprintf(&b, "Current weather for %s:\n", doc.Get("name").String())
	for _, item := range doc.Get("weather").Array() {
		fmt.Fprintf(&b, "%s%s\n", sp, capitalize(item.Get("description").String()))
	}

	temps := common.ConvertTemps(
		doc.Get("main.temp").Float(),
		doc.Get("main.temp_min").Float(),
		doc.Get("main.temp_max").Float(),
	)
	fmt.Fprintf(&b, "%sTemperatures:\n", sp)
	fmt.Fprintf(&b, "%s%sCurrent:  %5s\n", sp, sp, formatFloat(temps.Current))
	fmt.Fprintf(&b, "%s%sMax:  %9s\n", sp, sp, formatFloat(temps.High))
	fmt.Fprintf(&b, "%s%sMin:  %9s\n", sp, sp, formatFloat(temps.Low))
	fmt.Fprintf(&b, "%sHumidity: %s%%\n", sp, doc.Get("main.humidity").String())
	fmt.Fprintf(&b, "%sSunrise: %s\n", sp, common.FormatTimestamp(doc.Get("sys.sunrise").Int(), opts.Location))
	fmt.Fprintf(&b, "%sSunset: %s\n", sp, common.FormatTimestamp(doc.Get("sys.sunset").Int(), opts.Location))

	optional := []struct {
		path   string
		format string
	}{
		{"rain.3h", "Rain volume for last 3 hours: %s"},
		{"clouds.all", "Cloudiness: %s%%"},
		{"wind.speed", "Wind speed: %s meters/sec"},
		{"wind.deg", "Wind direction: %s degrees"},
		{"wind.gust", "Wind gust: %s meters/sec"},
		{"snow.3h", "Snow volume for last 3 hours: %s"},
	}
	for _, o := range optional {
		if v, ok := nonZero(doc, o.path); ok {
			fmt.Fprintf(&b, sp+o.format+"\n", v)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Forecast prints one line per forecast slot.
func Forecast(w io.Writer, payload []byte, opts Options) error {
	doc := gjson.ParseBytes(payload)
	sp := strings.Repeat(" ", max(opts.Indent, 0))

	var b strings.Builder
	fmt.Fprintf(&b, "Forecast for %s:\n", doc.Get("city.name").String())
	for _, slot := range doc.Get("list").Array() {
		temps := common.ConvertTemps(
			slot.Get("main.temp").Float(),
			slot.Get("main.temp_min").Float(),
			slot.Get("main.temp_max").Float(),
		)
		fmt.Fprintf(&b, "%s%s: %s, %s F (low %s, high %s)\n",
			sp,
			common.FormatTimestamp(slot.Get("dt").Int(), opts.Location),
			capitalize(slot.Get("weather.0.description").String()),
			formatFloat(temps.Current),
			formatFloat(temps.Low),
			formatFloat(temps.High),
		)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// nonZero reports a value that exists and is not zero or empty.
func nonZero(doc gjson.Result, path string) (string, bool) {
	r := doc.Get(path)
	if !r.Exists() {
		return "", false
	}
	switch r.Type {
	case gjson.Number:
		if r.Float() == 0 {
			return "", false
		}
	case gjson.String:
		if r.String() == "" {
			return "", false
		}
	default:
		return "", false
	}
	return r.String(), true
}

// formatFloat prints the shortest exact form, keeping one decimal on whole
// numbers (50.0, not 50).
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
