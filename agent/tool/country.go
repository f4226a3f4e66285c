package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

type countryTool struct {
	catalog *Catalog
}

var _ einotool.InvokableTool = (*countryTool)(nil)

type countryArgs struct {
	CountryName string `json:"country_name"`
}

func (t *countryTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "get_country_info",
		Desc: "Get essential travel information about a country. Use this when the user asks about a destination's currency, language, capital, population, or general country-level facts useful for trip planning.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"country_name": {Type: schema.String, Desc: "Full name of the country (e.g. 'Japan', 'France', 'Brazil')", Required: true},
		}),
	}, nil
}

func (t *countryTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...einotool.Option) (string, error) {
	var args countryArgs
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return countryUnavailable, nil
	}
	return t.catalog.countryInfo(ctx, args.CountryName), nil
}

const countryUnavailable = "Country info service is temporarily unavailable. I'll use my general knowledge instead."

type restCountry struct {
	Name struct {
		Official string `json:"official"`
	} `json:"name"`
	Capital    []string `json:"capital"`
	Region     string   `json:"region"`
	Subregion  string   `json:"subregion"`
	Currencies map[string]struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"currencies"`
	Languages  map[string]string `json:"languages"`
	Population int64             `json:"population"`
	Timezones  []string          `json:"timezones"`
}

func (c *Catalog) countryInfo(ctx context.Context, countryName string) string {
	name := strings.TrimSpace(countryName)

	query := url.Values{}
	query.Set("fields", "name,capital,currencies,languages,population,region,subregion,timezones,flags")

	var countries []restCountry
	err := c.getJSON(ctx, c.cfg.RestCountriesBaseURL+"/v3.1/name/"+url.PathEscape(name), query, nil, &countries)
	if err != nil {
		var httpErr *statusError
		if errors.As(err, &httpErr) {
			if httpErr.code == http.StatusNotFound {
				return fmt.Sprintf("Could not find information for '%s'. Please check the country name.", name)
			}
			return "Country info service error. I'll use my general knowledge instead."
		}
		return countryUnavailable
	}
	if len(countries) == 0 {
		return fmt.Sprintf("No information found for '%s'.", name)
	}

	return renderCountry(name, countries[0])
}

func renderCountry(requested string, country restCountry) string {
	official := country.Name.Official
	if official == "" {
		official = requested
	}

	capital := "Unknown"
	if len(country.Capital) > 0 {
		capital = strings.Join(country.Capital, ", ")
	}

	region := country.Region
	if region == "" {
		region = "Unknown"
	}
	if country.Subregion != "" {
		region += " (" + country.Subregion + ")"
	}

	// Map order is random; sort for stable output.
	currencyStr := "Unknown"
	if len(country.Currencies) > 0 {
		codes := make([]string, 0, len(country.Currencies))
		for code := range country.Currencies {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		parts := make([]string, 0, len(codes))
		for _, code := range codes {
			info := country.Currencies[code]
			currencyName := info.Name
			if currencyName == "" {
				currencyName = code
			}
			parts = append(parts, strings.TrimSpace(fmt.Sprintf("%s (%s) %s", currencyName, code, info.Symbol)))
		}
		currencyStr = strings.Join(parts, ", ")
	}

	languageStr := "Unknown"
	if len(country.Languages) > 0 {
		keys := make([]string, 0, len(country.Languages))
		for key := range country.Languages {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		names := make([]string, 0, len(keys))
		for _, key := range keys {
			names = append(names, country.Languages[key])
		}
		languageStr = strings.Join(names, ", ")
	}

	timezones := "Unknown"
	if len(country.Timezones) > 0 {
		timezones = strings.Join(country.Timezones, ", ")
	}

	return fmt.Sprintf(
		"Country: %s\n- Capital: %s\n- Region: %s\n- Currency: %s\n- Languages: %s\n- Population: %s\n- Timezones: %s",
		official, capital, region, currencyStr, languageStr, formatPopulation(country.Population), timezones,
	)
}

func formatPopulation(pop int64) string {
	switch {
	case pop >= 1_000_000:
		return fmt.Sprintf("%.1f million", float64(pop)/1_000_000)
	case pop >= 1_000:
		return fmt.Sprintf("%.1f thousand", float64(pop)/1_000)
	default:
		return fmt.Sprintf("%d", pop)
	}
}
