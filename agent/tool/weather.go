package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

const geocodeUserAgent = "TravelAssistant/1.0"

type weatherTool struct {
	catalog *Catalog
}

var _ einotool.InvokableTool = (*weatherTool)(nil)

type weatherArgs struct {
	City        string `json:"city"`
	CountryCode string `json:"country_code"`
}

func (t *weatherTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "get_weather",
		Desc: "Get current weather and a 7-day forecast for a city. Use this when the user asks about weather conditions, what to pack, what to wear, or when planning activities that depend on weather.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"city":         {Type: schema.String, Desc: "Name of the city (e.g. 'Paris', 'Tokyo', 'New York')", Required: true},
			"country_code": {Type: schema.String, Desc: "Optional ISO 3166-1 alpha-2 country code to disambiguate"},
		}),
	}, nil
}

func (t *weatherTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...einotool.Option) (string, error) {
	var args weatherArgs
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return weatherUnavailable, nil
	}
	return t.catalog.weather(ctx, args), nil
}

const weatherUnavailable = "Weather service is temporarily unavailable. I'll provide general climate guidance instead."

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type openMeteoForecast struct {
	Current struct {
		Temperature  float64 `json:"temperature_2m"`
		Humidity     float64 `json:"relative_humidity_2m"`
		ApparentTemp float64 `json:"apparent_temperature"`
		WeatherCode  int     `json:"weather_code"`
		WindSpeed    float64 `json:"wind_speed_10m"`
	} `json:"current"`
	Daily struct {
		Time          []string  `json:"time"`
		TempMax       []float64 `json:"temperature_2m_max"`
		TempMin       []float64 `json:"temperature_2m_min"`
		Precipitation []float64 `json:"precipitation_sum"`
		WeatherCode   []int     `json:"weather_code"`
	} `json:"daily"`
}

func (c *Catalog) weather(ctx context.Context, args weatherArgs) string {
	city := strings.TrimSpace(args.City)

	locationQuery := city
	if cc := strings.TrimSpace(args.CountryCode); cc != "" {
		locationQuery = city + ", " + cc
	}

	geoQuery := url.Values{}
	geoQuery.Set("q", locationQuery)
	geoQuery.Set("format", "json")
	geoQuery.Set("limit", "1")

	header := http.Header{}
	header.Set("User-Agent", geocodeUserAgent)

	var places []nominatimPlace
	if err := c.getJSON(ctx, c.cfg.NominatimBaseURL+"/search", geoQuery, header, &places); err != nil {
		return weatherFallback(err)
	}
	if len(places) == 0 {
		return fmt.Sprintf("Could not find location '%s'. Please check the city name and try again.", city)
	}

	lat, latErr := strconv.ParseFloat(places[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(places[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return weatherUnavailable
	}

	display := city
	if name := strings.TrimSpace(places[0].DisplayName); name != "" {
		display, _, _ = strings.Cut(name, ",")
	}

	forecastQuery := url.Values{}
	forecastQuery.Set("latitude", num(lat))
	forecastQuery.Set("longitude", num(lon))
	forecastQuery.Set("current", "temperature_2m,relative_humidity_2m,apparent_temperature,weather_code,wind_speed_10m")
	forecastQuery.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,weather_code")
	forecastQuery.Set("timezone", "auto")
	forecastQuery.Set("forecast_days", "7")

	var forecast openMeteoForecast
	if err := c.getJSON(ctx, c.cfg.OpenMeteoBaseURL+"/v1/forecast", forecastQuery, nil, &forecast); err != nil {
		return weatherFallback(err)
	}

	return renderWeather(display, lat, lon, forecast)
}

func renderWeather(city string, lat, lon float64, f openMeteoForecast) string {
	lines := []string{
		fmt.Sprintf("Weather for %s (lat %.2f, lon %.2f):", city, lat, lon),
		"\nCurrent conditions:",
		"- " + wmoCodeText(f.Current.WeatherCode),
		fmt.Sprintf("- Temperature: %s°C (feels like %s°C)", num(f.Current.Temperature), num(f.Current.ApparentTemp)),
		fmt.Sprintf("- Humidity: %s%%", num(f.Current.Humidity)),
		fmt.Sprintf("- Wind: %s km/h", num(f.Current.WindSpeed)),
		"\n7-day forecast:",
	}

	days := min(7, len(f.Daily.Time))
	for i := 0; i < days; i++ {
		cond := "Unknown conditions"
		if i < len(f.Daily.WeatherCode) {
			cond = wmoCodeText(f.Daily.WeatherCode[i])
		}

		rain := ""
		if i < len(f.Daily.Precipitation) && f.Daily.Precipitation[i] > 0 {
			rain = fmt.Sprintf(", %smm rain", num(f.Daily.Precipitation[i]))
		}

		low, high := "?", "?"
		if i < len(f.Daily.TempMin) {
			low = num(f.Daily.TempMin[i])
		}
		if i < len(f.Daily.TempMax) {
			high = num(f.Daily.TempMax[i])
		}
		lines = append(lines, fmt.Sprintf("- %s: %s°C – %s°C, %s%s", f.Daily.Time[i], low, high, cond, rain))
	}

	return strings.Join(lines, "\n")
}

func weatherFallback(err error) string {
	var httpErr *statusError
	if errors.As(err, &httpErr) {
		return fmt.Sprintf("Weather service error (HTTP %d). I'll use my general knowledge instead.", httpErr.code)
	}
	return weatherUnavailable
}

// wmoCodeText converts a WMO weather interpretation code to readable text.
func wmoCodeText(code int) string {
	switch code {
	case 0:
		return "Clear sky"
	case 1:
		return "Mainly clear"
	case 2:
		return "Partly cloudy"
	case 3:
		return "Overcast"
	case 45:
		return "Foggy"
	case 48:
		return "Depositing rime fog"
	case 51:
		return "Light drizzle"
	case 53:
		return "Moderate drizzle"
	case 55:
		return "Dense drizzle"
	case 61:
		return "Slight rain"
	case 63:
		return "Moderate rain"
	case 65:
		return "Heavy rain"
	case 71:
		return "Slight snowfall"
	case 73:
		return "Moderate snowfall"
	case 75:
		return "Heavy snowfall"
	case 80:
		return "Slight rain showers"
	case 81:
		return "Moderate rain showers"
	case 82:
		return "Violent rain showers"
	case 85:
		return "Slight snow showers"
	case 86:
		return "Heavy snow showers"
	case 95:
		return "Thunderstorm"
	case 96:
		return "Thunderstorm with slight hail"
	case 99:
		return "Thunderstorm with heavy hail"
	default:
		return "Unknown conditions"
	}
}
