package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

type exchangeTool struct {
	catalog *Catalog
}

var _ einotool.InvokableTool = (*exchangeTool)(nil)

type exchangeArgs struct {
	FromCurrency string  `json:"from_currency"`
	ToCurrency   string  `json:"to_currency"`
	Amount       float64 `json:"amount"`
}

func (t *exchangeTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "get_exchange_rate",
		Desc: "Convert between currencies using live exchange rates. Use this when the user asks about currency conversion, how much things cost in their home currency, or exchange rates for a destination.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"from_currency": {Type: schema.String, Desc: "Source currency code (e.g. 'USD', 'EUR', 'GBP')", Required: true},
			"to_currency":   {Type: schema.String, Desc: "Target currency code (e.g. 'JPY', 'THB', 'MXN')", Required: true},
			"amount":        {Type: schema.Number, Desc: "Amount to convert (default: 1.0)"},
		}),
	}, nil
}

func (t *exchangeTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...einotool.Option) (string, error) {
	var args exchangeArgs
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return exchangeUnavailable, nil
	}
	return t.catalog.exchangeRate(ctx, args), nil
}

const exchangeUnavailable = "Exchange rate service is temporarily unavailable. I'll use my general knowledge instead."

type frankfurterRates struct {
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

func (c *Catalog) exchangeRate(ctx context.Context, args exchangeArgs) string {
	from := strings.TrimSpace(args.FromCurrency)
	to := strings.TrimSpace(args.ToCurrency)

	amount := args.Amount
	if amount <= 0 {
		amount = 1
	}

	query := url.Values{}
	query.Set("from", strings.ToUpper(from))
	query.Set("to", strings.ToUpper(to))
	query.Set("amount", num(amount))

	var data frankfurterRates
	if err := c.getJSON(ctx, c.cfg.FrankfurterBaseURL+"/latest", query, nil, &data); err != nil {
		var httpErr *statusError
		if errors.As(err, &httpErr) {
			if httpErr.code == http.StatusNotFound {
				return fmt.Sprintf("Currency code '%s' or '%s' not recognized. Use standard 3-letter ISO codes (e.g. USD, EUR, JPY).", from, to)
			}
			return "Exchange rate service error. I'll use my general knowledge instead."
		}
		return exchangeUnavailable
	}

	target := strings.ToUpper(to)
	converted, ok := data.Rates[target]
	if len(data.Rates) == 0 || !ok {
		return fmt.Sprintf("Could not find exchange rate from %s to %s.", from, to)
	}

	date := data.Date
	if date == "" {
		date = "today"
	}

	return fmt.Sprintf(
		"Exchange rate (%s):\n- %s %s = %.2f %s\n- Rate: 1 %s = %.4f %s",
		date, num(amount), strings.ToUpper(from), converted, target, strings.ToUpper(from), converted/amount, target,
	)
}
