// Package catalog holds the fixed set of tools the server exposes. The
// catalog is declarative data: each entry names an upstream endpoint and the
// parameters a client may pass, and the rest of the server is driven off it.
package catalog

import "github.com/finpulse/finpulse-mcp/internal/domain"

var sentimentValues = []string{"bullish", "bearish", "neutral"}

var specs = []domain.ToolSpec{
	{
		Name:        "market_overview",
		Description: "Get a snapshot of current global market conditions: major index levels, top movers and a session summary.",
		Endpoint:    "market/overview",
	},
	{
		Name:        "prices",
		Description: "Get historical daily price data (open, high, low, close, volume) for a stock symbol, optionally limited to a date range.",
		Endpoint:    "market/prices",
		Params: []domain.ParamSpec{
			{Name: "symbol", Type: domain.ParamTypeString, Required: true, Description: "Ticker symbol, e.g. AAPL"},
			{Name: "from", Type: domain.ParamTypeString, Description: "Start date (YYYY-MM-DD)"},
			{Name: "to", Type: domain.ParamTypeString, Description: "End date (YYYY-MM-DD)"},
			{Name: "limit", Type: domain.ParamTypeString, Description: "Maximum number of rows to return"},
		},
	},
	{
		Name:        "indices",
		Description: "List major stock market indices and their current levels, optionally filtered by region or country.",
		Endpoint:    "market/indices",
		Params: []domain.ParamSpec{
			{Name: "region", Type: domain.ParamTypeString, Description: "Region filter, e.g. americas, europe, asia"},
			{Name: "country", Type: domain.ParamTypeString, Description: "Country filter, e.g. US"},
		},
	},
	{
		Name:        "forex",
		Description: "Get foreign exchange rates, optionally narrowed to a single currency pair.",
		Endpoint:    "market/forex",
		Params: []domain.ParamSpec{
			{Name: "symbol", Type: domain.ParamTypeString, Description: "Currency pair, e.g. EURUSD"},
		},
	},
	{
		Name:        "earnings",
		Description: "List upcoming corporate earnings announcements with report dates and consensus estimates.",
		Endpoint:    "events/earnings",
	},
	{
		Name:        "economic_events",
		Description: "List scheduled macroeconomic events such as rate decisions and inflation releases, filterable by country, expected impact and date range.",
		Endpoint:    "events/economic",
		Params: []domain.ParamSpec{
			{Name: "country", Type: domain.ParamTypeString, Description: "Country filter, e.g. US"},
			{Name: "impact", Type: domain.ParamTypeString, Enum: []string{"low", "medium", "high"}, Description: "Expected market impact"},
			{Name: "from", Type: domain.ParamTypeString, Description: "Start date (YYYY-MM-DD)"},
			{Name: "to", Type: domain.ParamTypeString, Description: "End date (YYYY-MM-DD)"},
		},
	},
	{
		Name:        "congressional_trades",
		Description: "Search stock trades disclosed by members of the US Congress, filterable by symbol, politician, party, trade type and date range.",
		Endpoint:    "trades/congressional",
		Params: []domain.ParamSpec{
			{Name: "symbol", Type: domain.ParamTypeString, Description: "Ticker symbol, e.g. NVDA"},
			{Name: "politician", Type: domain.ParamTypeString, Description: "Politician name filter"},
			{Name: "party", Type: domain.ParamTypeString, Enum: []string{"Democrat", "Republican"}, Description: "Political party filter"},
			{Name: "type", Type: domain.ParamTypeString, Enum: []string{"buy", "sell"}, Description: "Trade direction filter"},
			{Name: "from", Type: domain.ParamTypeString, Description: "Start date (YYYY-MM-DD)"},
			{Name: "to", Type: domain.ParamTypeString, Description: "End date (YYYY-MM-DD)"},
		},
	},
	{
		Name:        "sentiment",
		Description: "Get aggregated social media market sentiment, optionally filtered by direction or restricted to finance-focused accounts.",
		Endpoint:    "social/sentiment",
		Params: []domain.ParamSpec{
			{Name: "sentiment", Type: domain.ParamTypeString, Enum: sentimentValues, Description: "Sentiment direction filter"},
			{Name: "financial_only", Type: domain.ParamTypeBoolean, Description: "Restrict to finance-focused accounts"},
		},
	},
	{
		Name:        "tweets",
		Description: "Search recent finance-related tweets, filterable by author, stock symbol and sentiment.",
		Endpoint:    "social/tweets",
		Params: []domain.ParamSpec{
			{Name: "author", Type: domain.ParamTypeString, Description: "Author handle filter"},
			{Name: "symbol", Type: domain.ParamTypeString, Description: "Ticker symbol, e.g. TSLA"},
			{Name: "sentiment", Type: domain.ParamTypeString, Enum: sentimentValues, Description: "Sentiment direction filter"},
			{Name: "financial_only", Type: domain.ParamTypeBoolean, Description: "Only include tweets from finance-focused accounts"},
		},
	},
	{
		Name:        "news",
		Description: "Get a summary of the latest market-moving news headlines.",
		Endpoint:    "news/summary",
	},
}

// Tools returns the full catalog. The returned slice is a copy; the catalog
// itself never changes after process start.
func Tools() []domain.ToolSpec {
	out := make([]domain.ToolSpec, len(specs))
	copy(out, specs)
	return out
}

// Find returns the catalog entry with the given tool name.
func Find(name string) (domain.ToolSpec, bool) {
	for _, s := range specs {
		if s.Name == name {
			return s, true
		}
	}
	return domain.ToolSpec{}, false
}
