package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

const defaultHolidayYear = 2026

type holidaysTool struct {
	catalog *Catalog
}

var _ einotool.InvokableTool = (*holidaysTool)(nil)

type holidaysArgs struct {
	CountryCode string `json:"country_code"`
	Year        int    `json:"year"`
}

func (t *holidaysTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "get_public_holidays",
		Desc: "Get public holidays for a country in a given year. Use this when the user asks about holidays, festivals, or wants to know if anything special is happening during their visit. This helps with trip planning around local celebrations or avoiding closures.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"country_code": {Type: schema.String, Desc: "ISO 3166-1 alpha-2 country code (e.g. 'JP', 'FR', 'US', 'ES')", Required: true},
			"year":         {Type: schema.Integer, Desc: "Year to look up holidays for (default: 2026)"},
		}),
	}, nil
}

func (t *holidaysTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...einotool.Option) (string, error) {
	var args holidaysArgs
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return holidaysUnavailable, nil
	}
	return t.catalog.publicHolidays(ctx, args), nil
}

const holidaysUnavailable = "Holiday service is temporarily unavailable. I'll use my general knowledge instead."

type nagerHoliday struct {
	Date      string `json:"date"`
	LocalName string `json:"localName"`
	Name      string `json:"name"`
}

func (c *Catalog) publicHolidays(ctx context.Context, args holidaysArgs) string {
	code := strings.TrimSpace(args.CountryCode)

	year := args.Year
	if year <= 0 {
		year = defaultHolidayYear
	}

	rawURL := fmt.Sprintf("%s/api/v3/PublicHolidays/%d/%s", c.cfg.NagerBaseURL, year, strings.ToUpper(code))

	var holidays []nagerHoliday
	if err := c.getJSON(ctx, rawURL, nil, nil, &holidays); err != nil {
		var httpErr *statusError
		if errors.As(err, &httpErr) {
			if httpErr.code == http.StatusNotFound {
				return fmt.Sprintf("Could not find holidays for country code '%s'. Use a 2-letter ISO code (e.g. 'JP', 'FR', 'US').", code)
			}
			return "Holiday service error. I'll use my general knowledge instead."
		}
		return holidaysUnavailable
	}
	if len(holidays) == 0 {
		return fmt.Sprintf("No public holidays found for country code '%s' in %d.", code, year)
	}

	lines := []string{fmt.Sprintf("Public holidays in %s for %d:\n", strings.ToUpper(code), year)}
	for _, holiday := range holidays {
		name := holiday.LocalName
		if name == "" {
			name = holiday.Name
		}
		if name == "" {
			name = "Unknown"
		}

		if holiday.Name != "" && holiday.Name != name {
			lines = append(lines, fmt.Sprintf("- %s: %s (%s)", holiday.Date, name, holiday.Name))
		} else {
			lines = append(lines, fmt.Sprintf("- %s: %s", holiday.Date, name))
		}
	}

	return strings.Join(lines, "\n")
}
